package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/bg-insights/internal/config"
	"github.com/pable/bg-insights/internal/insights"
	"github.com/pable/bg-insights/internal/logging"
	"github.com/pable/bg-insights/internal/model"
	"github.com/pable/bg-insights/internal/storage"
)

var (
	dbPath   string
	userID   int64
	logLevel string

	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bginsights",
	Short: "Board game match insights",
	Long: `Import board game match history and compute insights per game: recurring
player groups, head-to-head records, player-count distributions, lineups,
team matchups and role effects.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default $BGI_DB_PATH or ~/.bginsights/insights.db)")
	rootCmd.PersistentFlags().Int64Var(&userID, "user", 0, "id of the user whose games are read (default $BGI_USER_ID or 1)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(dropCmd)
}

// loadConfig fills every flag the user left unset from the environment.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c

	flags := cmd.Flags()
	if !flags.Changed("db") {
		dbPath = cfg.DBPath
	}
	if !flags.Changed("user") {
		userID = cfg.UserID
	}
	if !flags.Changed("log-level") {
		logLevel = cfg.LogLevel
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id %d", userID)
	}
	logger = logging.New(logLevel, cfg.LogFormat)
	return nil
}

// readStore is what the read-only commands need from a backend.
type readStore interface {
	insights.RowSource
	ListGames(ctx context.Context, ownerID int64) ([]model.Game, error)
}

// openReadStore returns the Postgres source when a database URL is configured
// and the local SQLite file otherwise.
func openReadStore(ctx context.Context) (readStore, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPGSource(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Debug("reading from postgres")
		return pg, pg.Close, nil
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	logger.WithField("path", dbPath).Debug("reading from sqlite")
	return db, func() { db.Close() }, nil
}

func newInsightsService(src insights.RowSource) *insights.Service {
	return insights.NewService(src,
		insights.Options{MinCoreMatches: cfg.MinCoreMatches},
		logger.WithField("component", "insights"))
}

// findGame resolves a CLI game argument against the user's games.
func findGame(ctx context.Context, store readStore, arg string) (model.Game, error) {
	games, err := store.ListGames(ctx, userID)
	if err != nil {
		return model.Game{}, fmt.Errorf("list games: %w", err)
	}
	return storage.ResolveGame(games, arg)
}
