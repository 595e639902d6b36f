package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/apbtype/internal/stats"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Experiment.CountA != nil || cfg.Provider.Name != nil {
		t.Fatalf("expected empty config")
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[experiment]
alphabet = "romaji"
count-p = 4
seed = 42

[targets]
z = 2.58
transitions-per-sentence = 2

[provider]
name = "static"
api-key-env = "APBTYPE_TEST_KEY"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Experiment.Alphabet == nil || *cfg.Experiment.Alphabet != "romaji" {
		t.Fatalf("unexpected alphabet")
	}
	if cfg.Experiment.CountP == nil || *cfg.Experiment.CountP != 4 || cfg.Experiment.CountA != nil {
		t.Fatalf("unexpected counts")
	}
	if cfg.Experiment.Seed == nil || *cfg.Experiment.Seed != 42 {
		t.Fatalf("unexpected seed")
	}

	tc := cfg.Targets.Apply(stats.DefaultTargetConfig())
	if tc.Z != 2.58 || tc.TransitionsPerSentence != 2 || tc.ErrorWeight != 0.7 {
		t.Fatalf("unexpected target config: %+v", tc)
	}

	t.Setenv("APBTYPE_TEST_KEY", "secret")
	if cfg.Provider.APIKey() != "secret" {
		t.Fatalf("expected key from configured env var")
	}
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[experiment\ncount-a = "), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("template should decode: %v", err)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "apbtype", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "apbtype", "apbtype.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultOutputDir(); got != filepath.Join("/data", "apbtype", "results") {
		t.Fatalf("unexpected output dir %s", got)
	}
}
