package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/bg-insights/internal/report"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List the user's games with match counts",
	Args:  cobra.NoArgs,
	RunE:  runGames,
}

func runGames(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openReadStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	games, err := store.ListGames(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'bginsights import <bundle.json>' to add some.")
		return nil
	}
	report.PrintGames(os.Stdout, games)
	return nil
}
