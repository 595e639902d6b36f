// Package main provides the CLI entrypoint for apbtype.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/config"
	"github.com/verte-zerg/apbtype/internal/model"
	"github.com/verte-zerg/apbtype/internal/provider"
	"github.com/verte-zerg/apbtype/internal/provider/openai"
	"github.com/verte-zerg/apbtype/internal/selector"
	"github.com/verte-zerg/apbtype/internal/stats"
	"github.com/verte-zerg/apbtype/internal/store"
	"github.com/verte-zerg/apbtype/internal/tui"
)

const (
	defaultAlphabet = "english"
	defaultCount    = 30
	defaultMaxChars = 60
	defaultProvider = "openai"
	defaultTimeoutS = 30
)

var (
	expAlphabet string
	expCountA   int
	expCountP   int
	expCountB   int
	expMaxChars int
	expSeed     int64
	expPool     string
	expOut      string
	expDB       string
	provName    string
	provModel   string

	runsAlphabet string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "apbtype",
		Short:         "A/P/B bigram typing experiment",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runExperimentCmd,
	}

	rootCmd.Flags().StringVar(&expAlphabet, "alphabet", defaultAlphabet, "typing alphabet (english, romaji)")
	rootCmd.Flags().IntVar(&expCountA, "count-a", defaultCount, "sentences in phase A")
	rootCmd.Flags().IntVar(&expCountP, "count-p", defaultCount, "sentences in phase P")
	rootCmd.Flags().IntVar(&expCountB, "count-b", defaultCount, "sentences in phase B")
	rootCmd.Flags().IntVar(&expMaxChars, "max-chars", defaultMaxChars, "maximum sentence length")
	rootCmd.Flags().Int64Var(&expSeed, "seed", 0, "random seed for baseline selection (0: random)")
	rootCmd.Flags().StringVar(&expPool, "pool", "", "sentence pool file, one sentence per line")
	rootCmd.Flags().StringVar(&expOut, "out", "", "results directory")
	rootCmd.Flags().StringVar(&expDB, "db", "", "results database path")
	rootCmd.Flags().StringVar(&provName, "provider", defaultProvider, "sentence provider (openai, static)")
	rootCmd.Flags().StringVar(&provModel, "model", openai.DefaultModel, "model for the openai provider")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRunsCmd())

	return rootCmd
}

func runExperimentCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	exp := fileCfg.Experiment
	applyStringConfig(cmd, "alphabet", &expAlphabet, exp.Alphabet)
	applyIntConfig(cmd, "count-a", &expCountA, exp.CountA)
	applyIntConfig(cmd, "count-p", &expCountP, exp.CountP)
	applyIntConfig(cmd, "count-b", &expCountB, exp.CountB)
	applyIntConfig(cmd, "max-chars", &expMaxChars, exp.MaxChars)
	applyInt64Config(cmd, "seed", &expSeed, exp.Seed)
	applyStringConfig(cmd, "pool", &expPool, exp.Pool)
	applyStringConfig(cmd, "out", &expOut, exp.Out)
	applyStringConfig(cmd, "db", &expDB, exp.DB)
	applyStringConfig(cmd, "provider", &provName, fileCfg.Provider.Name)
	applyStringConfig(cmd, "model", &provModel, fileCfg.Provider.Model)

	if expOut == "" {
		expOut = config.DefaultOutputDir()
	}
	if expDB == "" {
		expDB = config.DefaultDBPath()
	}

	cfg := model.Config{
		Alphabet: expAlphabet,
		CountA:   expCountA,
		CountP:   expCountP,
		CountB:   expCountB,
		MaxChars: expMaxChars,
		Seed:     expSeed,
		PoolPath: expPool,
		OutDir:   expOut,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	targetCfg := fileCfg.Targets.Apply(stats.DefaultTargetConfig())
	if err := validateTargetConfig(targetCfg); err != nil {
		return err
	}
	alphabet, err := bigram.AlphabetByName(cfg.Alphabet)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal")
	}

	fallback, err := staticProvider(cfg.PoolPath)
	if err != nil {
		return err
	}
	prov, err := buildProvider(provName, provModel, fileCfg.Provider, alphabet, fallback)
	if err != nil {
		return err
	}

	sel := selector.New(alphabet, cfg.MaxChars)
	if cfg.Seed != 0 {
		sel = selector.NewSeeded(alphabet, cfg.MaxChars, cfg.Seed)
	}

	m := tui.NewModel(tui.Options{
		Config:   cfg,
		Targets:  targetCfg,
		Alphabet: alphabet,
		Provider: prov,
		Fallback: fallback,
		Selector: sel,
		DBPath:   expDB,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if len(m.Report().Summaries) > 0 {
		if err := printSummary(os.Stdout, m.Report()); err != nil {
			return err
		}
	}
	if path := m.Saved(); path != "" {
		logErrf("Results: %s\n", path)
	}
	return nil
}

func printSummary(w io.Writer, report stats.Report) error {
	if err := stats.RenderPhaseTable(w, report.Summaries); err != nil {
		return err
	}
	if len(report.Targets) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return stats.RenderTargets(w, stats.TopTargets(report.Targets, 10))
}

func staticProvider(poolPath string) (*provider.Static, error) {
	if poolPath == "" {
		return provider.NewStatic(nil), nil
	}
	pool, err := provider.LoadPool(poolPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence pool: %w", err)
	}
	return provider.NewStatic(pool), nil
}

func buildProvider(name, modelName string, pc config.ProviderConfig, alphabet *bigram.Alphabet, fallback provider.Provider) (provider.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "static":
		return fallback, nil
	case "openai", "":
		key := pc.APIKey()
		if key == "" {
			logErrln("no OpenAI API key set; using static sentences")
			return fallback, nil
		}
		opts := []openai.Option{}
		if pc.BaseURL != nil && *pc.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(*pc.BaseURL))
		}
		timeout := defaultTimeoutS
		if pc.TimeoutS != nil && *pc.TimeoutS > 0 {
			timeout = *pc.TimeoutS
		}
		opts = append(opts, openai.WithTimeout(time.Duration(timeout)*time.Second))
		oai, err := openai.New(key, modelName, alphabet, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai provider: %w", err)
		}
		return provider.Chain(oai, fallback), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (available: openai, static)", name)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List exported runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsCmd,
	}
	cmd.Flags().StringVar(&runsAlphabet, "alphabet", "", "alphabet filter")
	cmd.Flags().StringVar(&expDB, "db", "", "results database path")
	return cmd
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	dbPath := expDB
	if dbPath == "" {
		fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		dbPath = config.DefaultDBPath()
		if fileCfg.Experiment.DB != nil && *fileCfg.Experiment.DB != "" {
			dbPath = *fileCfg.Experiment.DB
		}
	}
	if !fileExists(dbPath) {
		logErrf("No results database at %s\n", dbPath)
		return fmt.Errorf("no runs recorded")
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	runs, err := st.ListRuns(context.Background(), runsAlphabet)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if err := stats.RenderRuns(cmd.OutOrStdout(), runs); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func validateConfig(cfg model.Config) error {
	if cfg.CountA <= 0 {
		return fmt.Errorf("--count-a must be > 0")
	}
	if cfg.CountP <= 0 {
		return fmt.Errorf("--count-p must be > 0")
	}
	if cfg.CountB <= 0 {
		return fmt.Errorf("--count-b must be > 0")
	}
	if cfg.MaxChars < 10 {
		return fmt.Errorf("--max-chars must be >= 10")
	}
	if _, err := bigram.AlphabetByName(cfg.Alphabet); err != nil {
		return fmt.Errorf("--alphabet: %w", err)
	}
	return nil
}

func validateTargetConfig(cfg stats.TargetConfig) error {
	if cfg.MinAttempts < 1 {
		return fmt.Errorf("targets.min-attempts must be >= 1")
	}
	if cfg.Z <= 0 {
		return fmt.Errorf("targets.z must be > 0")
	}
	if cfg.ErrorWeight < 0 || cfg.LatencyWeight < 0 || cfg.ErrorWeight+cfg.LatencyWeight == 0 {
		return fmt.Errorf("targets.error-weight and targets.latency-weight must be >= 0 and not both 0")
	}
	if cfg.TransitionsPerSentence < 0 {
		return fmt.Errorf("targets.transitions-per-sentence must be >= 0")
	}
	if cfg.AvoidMaxErrorRate < 0 || cfg.AvoidMaxErrorRate > 1 {
		return fmt.Errorf("targets.avoid-max-error-rate must be between 0 and 1")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
