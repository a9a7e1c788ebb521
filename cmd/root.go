package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/cefrplace/internal/config"
	"github.com/abhisek/cefrplace/internal/logging"
	"github.com/abhisek/cefrplace/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "cefrplace",
	Short: "Adaptive CEFR placement test",
	Long: `cefrplace runs an adaptive English placement test in the terminal and
reports a CEFR level (Pre-A1 to C2) with a per-skill breakdown.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CEFRPLACE_DB env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides CEFRPLACE_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional .env file with CEFRPLACE_* settings")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the .env file and environment, then applies flag
// overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}

	cfg := config.ConfigFromEnv()
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.LogLevel = l
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// env bundles what every database-backed command needs.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	store *store.Store
}

func (e *env) Close() {
	e.store.Close()
	_ = e.log.Sync()
}

// openEnv loads configuration, builds the logger and opens the store.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
		File:        cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &env{cfg: cfg, log: log, store: st}, nil
}

// resolveDBPath returns the configured database path (flag or CEFRPLACE_DB),
// falling back to the default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
