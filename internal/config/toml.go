// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/apbtype/internal/stats"
)

// DefaultAPIKeyEnv names the environment variable holding the OpenAI key.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Experiment ExperimentConfig `toml:"experiment"`
	Targets    TargetsConfig    `toml:"targets"`
	Provider   ProviderConfig   `toml:"provider"`
}

// ExperimentConfig maps phase and output settings.
type ExperimentConfig struct {
	Alphabet *string `toml:"alphabet"`
	CountA   *int    `toml:"count-a"`
	CountP   *int    `toml:"count-p"`
	CountB   *int    `toml:"count-b"`
	MaxChars *int    `toml:"max-chars"`
	Seed     *int64  `toml:"seed"`
	Pool     *string `toml:"pool"`
	Out      *string `toml:"out"`
	DB       *string `toml:"db"`
}

// TargetsConfig maps the target transition tuning constants.
type TargetsConfig struct {
	MinAttempts            *int     `toml:"min-attempts"`
	Z                      *float64 `toml:"z"`
	ErrorWeight            *float64 `toml:"error-weight"`
	LatencyWeight          *float64 `toml:"latency-weight"`
	TransitionsPerSentence *int     `toml:"transitions-per-sentence"`
	AvoidMinAttempts       *int     `toml:"avoid-min-attempts"`
	AvoidMaxErrorRate      *float64 `toml:"avoid-max-error-rate"`
	AvoidLatencyRatio      *float64 `toml:"avoid-latency-ratio"`
}

// ProviderConfig maps sentence provider settings.
type ProviderConfig struct {
	Name      *string `toml:"name"`
	Model     *string `toml:"model"`
	BaseURL   *string `toml:"base-url"`
	APIKeyEnv *string `toml:"api-key-env"`
	TimeoutS  *int    `toml:"timeout"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Apply overlays the set keys onto cfg.
func (c TargetsConfig) Apply(cfg stats.TargetConfig) stats.TargetConfig {
	if c.MinAttempts != nil {
		cfg.MinAttempts = *c.MinAttempts
	}
	if c.Z != nil {
		cfg.Z = *c.Z
	}
	if c.ErrorWeight != nil {
		cfg.ErrorWeight = *c.ErrorWeight
	}
	if c.LatencyWeight != nil {
		cfg.LatencyWeight = *c.LatencyWeight
	}
	if c.TransitionsPerSentence != nil {
		cfg.TransitionsPerSentence = *c.TransitionsPerSentence
	}
	if c.AvoidMinAttempts != nil {
		cfg.AvoidMinAttempts = *c.AvoidMinAttempts
	}
	if c.AvoidMaxErrorRate != nil {
		cfg.AvoidMaxErrorRate = *c.AvoidMaxErrorRate
	}
	if c.AvoidLatencyRatio != nil {
		cfg.AvoidLatencyRatio = *c.AvoidLatencyRatio
	}
	return cfg
}

// APIKey returns the API key from the configured environment variable.
func (c ProviderConfig) APIKey() string {
	name := DefaultAPIKeyEnv
	if c.APIKeyEnv != nil && *c.APIKeyEnv != "" {
		name = *c.APIKeyEnv
	}
	return os.Getenv(name)
}

// Template is written by the config command when no file exists.
const Template = `# apbtype configuration

[experiment]
# alphabet = "english"   # english | romaji
# count-a = 30
# count-p = 30
# count-b = 30
# max-chars = 60
# seed = 0               # 0 picks a random seed
# pool = ""              # sentence pool file, one sentence per line
# out = ""               # results directory
# db = ""                # results database

[targets]
# min-attempts = 3
# z = 1.96
# error-weight = 0.7
# latency-weight = 0.3
# transitions-per-sentence = 5
# avoid-min-attempts = 5
# avoid-max-error-rate = 0.03
# avoid-latency-ratio = 0.6

[provider]
# name = "openai"        # openai | static
# model = "gpt-4o-mini"
# base-url = ""
# api-key-env = "OPENAI_API_KEY"
# timeout = 30           # seconds
`
