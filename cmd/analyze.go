package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/bg-insights/internal/model"
)

const analyzeSystemPrompt = `You are a board game group analyst. You are given structured insights
computed from one game's match history and a question from a player in the group.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Respect the confidence field: treat "low" confidence head-to-head records as anecdotes.
- Be concise. Refer to players by name.

Glossary:
- Core: a set of 2, 3 or 4 players who played together in several matches.
- Guest: a player who joined a core's match without being a member.
- Stability: share of a core's matches with no guests.
- finishesAboveRate: share of head-to-head comparisons where playerA outranked playerB.
- avgPlacementDelta: playerA's placement minus playerB's, averaged. Negative means A finishes higher.
- groupOrdering: core members ranked by average placement, or by win rate when no placements exist.
- Lineup: the exact set of participants of a match.
- byPlayerCount: the same head-to-head record split by the match's player count.
- Team cores: players who were on the same team; configurations: recurring team-vs-team matchups.
- Role classification: unique (one holder), team (all holders on one team), shared (holders on different teams).
- Presence effects: win rate of role holders split by whether another holder was absent, a teammate or an opponent.`

var (
	analyzeModel  string
	analyzeAPIKey string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <game> <question>",
	Short: "AI-powered grounded analysis of a game's insights (requires ANTHROPIC_API_KEY)",
	Example: `  bginsights analyze Catan "who do I lose to most often?"
  bginsights analyze 7 "does holding the Mayor role help?"`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Anthropic model to use (default $BGI_ANTHROPIC_MODEL)")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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
	if gi.Summary.TotalMatchesAnalyzed == 0 {
		return fmt.Errorf("no matches recorded for %s", game.Name)
	}

	contextJSON, err := buildGameContext(game, gi)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	apiKey, modelID := analyzeAPIKey, analyzeModel
	if apiKey == "" {
		apiKey = cfg.Anthropic.APIKey
	}
	if modelID == "" {
		modelID = cfg.Anthropic.Model
	}
	return callAnthropic(ctx, os.Stdout, apiKey, modelID, contextJSON, args[1])
}

// buildGameContext serialises a game's insights into compact JSON.
func buildGameContext(game model.Game, gi *model.GameInsights) (string, error) {
	doc := map[string]any{
		"subject":  "game",
		"game":     game.Name,
		"matches":  gi.Summary.TotalMatchesAnalyzed,
		"insights": gi,
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

// callAnthropic streams a response from the Anthropic API and prints it to w.
func callAnthropic(ctx context.Context, w io.Writer, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(w, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(w, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(w, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed: check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
