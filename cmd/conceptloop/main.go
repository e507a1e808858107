package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/conceptloop/internal/challenge"
	"github.com/michaelbrown/conceptloop/internal/config"
	"github.com/michaelbrown/conceptloop/internal/sandbox"
)

var (
	configFlag   string
	backendFlag  string
	timeoutFlag  time.Duration
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "conceptloop",
	Short: "ConceptLoop - Learn JavaScript by solving small challenges",
	Long: `ConceptLoop is an interactive JavaScript practice environment.

Read a short lesson, write a function, and run it against test cases in a
sandbox. Failing cases come with a hint about what likely went wrong.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ./conceptloop.yaml or ~/.conceptloop/conceptloop.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Sandbox backend (goja, docker)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "Per-case execution timeout (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env bundles what every command needs.
type env struct {
	cfg     *config.Config
	logger  *log.Logger
	catalog *challenge.Catalog
	sandbox sandbox.Sandbox
}

func setup() (*env, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if backendFlag != "" {
		cfg.Sandbox.Backend = backendFlag
	}
	if timeoutFlag > 0 {
		cfg.Sandbox.Timeout = timeoutFlag
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}

	logger := newLogger(cfg.Log.Level)

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	sb, err := cfg.NewSandbox()
	if err != nil {
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}
	logger.Debug("sandbox ready", "backend", cfg.Sandbox.Backend, "timeout", cfg.Sandbox.Timeout)

	return &env{cfg: cfg, logger: logger, catalog: catalog, sandbox: sb}, nil
}

// newLogger writes to stderr so stdout stays clean for reports and MCP.
func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "conceptloop",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
