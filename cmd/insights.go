package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/bg-insights/internal/model"
	"github.com/pable/bg-insights/internal/report"
)

var (
	insightsJSON      bool
	insightsPlayerKey string
)

var insightsCmd = &cobra.Command{
	Use:   "insights <game>",
	Short: "Show insights for one game",
	Long: `Compute and print insights for a game: summary, player-count distribution,
recurring pairs/trios/quartets with head-to-head records, exact lineups, team
matchups and role effects.

<game> is a game id or name; close misspellings of a name are accepted.`,
	Example: `  bginsights insights Catan
  bginsights insights 7 --player-key original-3
  bginsights insights "brass birmingham" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "print the raw insights object as JSON")
	insightsCmd.Flags().StringVar(&insightsPlayerKey, "player-key", "", "highlight rows involving this player (e.g. original-3, shared-12)")
}

func runInsights(cmd *cobra.Command, args []string) error {
	var focus model.PlayerKey
	if insightsPlayerKey != "" {
		k, err := model.ParsePlayerKey(insightsPlayerKey)
		if err != nil {
			return fmt.Errorf("invalid --player-key: %w", err)
		}
		focus = k
	}

	ctx := cmd.Context()
	store, closeStore, err := openReadStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	game, err := findGame(ctx, store, args[0])
	if err != nil {
		return err
	}
	gi, err := newInsightsService(store).GameInsights(ctx, game.ID, userID)
	if err != nil {
		return fmt.Errorf("compute insights: %w", err)
	}

	if insightsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(gi)
	}
	report.PrintInsights(os.Stdout, game.Name, gi, focus)
	return nil
}
