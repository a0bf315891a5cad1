package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/bg-insights/internal/bundle"
	"github.com/pable/bg-insights/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import <file> [<file>...]",
	Short: "Import match history bundles (.json, .json.zst, .json.gz)",
	Long: `Load one or more match history bundles and upsert their games, players,
matches and role assignments into the SQLite database. Importing the same
bundle twice leaves the database unchanged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	for _, path := range args {
		b, err := bundle.Load(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		stats, err := db.ImportBundle(b)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		logger.WithFields(logrus.Fields{
			"file":    path,
			"games":   stats.Games,
			"players": stats.Players,
			"matches": stats.Matches,
		}).Debug("bundle imported")
		fmt.Fprintf(os.Stdout, "%s: %d games, %d players, %d matches\n",
			path, stats.Games, stats.Players, stats.Matches)
	}
	return nil
}
