package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/clever-tipster/internal/config"
	"github.com/yourusername/clever-tipster/internal/database"
	applogger "github.com/yourusername/clever-tipster/internal/logger"
	"github.com/yourusername/clever-tipster/internal/metrics"
	"github.com/yourusername/clever-tipster/internal/reliability"
	"github.com/yourusername/clever-tipster/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	logLevel   string
	cfg        *config.Config
	logger     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tipster",
	Short: "Fuse model probabilities into betting decisions",
	Long: `Clever Tipster fuses engine probabilities, corrects them for market bias,
scores the edge against bookmaker odds and builds combination tickets.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		metrics.InitRegistry()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.AddCommand(runCmd, serveCmd, feedbackCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}
	if err := config.ApplySecrets(ctx, cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return err
	}

	logger = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	logger.WithFields(logrus.Fields{
		"version":     Version,
		"environment": cfg.App.Environment,
		"config":      configFile,
	}).Debug("Configuration loaded")
	return nil
}

// openRepositories connects to PostgreSQL when it is enabled. Both return
// values are nil when persistence is disabled.
func openRepositories(ctx context.Context) (*database.DB, *repository.Repositories, error) {
	if !cfg.Database.Enabled {
		return nil, nil, nil
	}
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repos, err := repository.NewRepositories(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repos, nil
}

// loadStore builds the reliability store, restoring stored profiles when available
func loadStore(ctx context.Context, repos *repository.Repositories) (*reliability.Store, error) {
	store := reliability.NewStore(logger)
	if repos == nil {
		return store, nil
	}
	if err := store.Restore(ctx, repos.Reliability); err != nil {
		return nil, err
	}
	return store, nil
}
