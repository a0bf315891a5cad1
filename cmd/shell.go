package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/bg-insights/internal/insights"
	"github.com/pable/bg-insights/internal/model"
	"github.com/pable/bg-insights/internal/report"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

type shellSession struct {
	ctx   context.Context
	store readStore
	svc   *insights.Service
}

func runShell(cmd *cobra.Command, _ []string) error {
	store, closeStore, err := openReadStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	s := &shellSession{ctx: cmd.Context(), store: store, svc: newInsightsService(store)}

	cGreeting.Println("bginsights shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("bginsights")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "games":
			s.games()
		case "insights":
			game, player, ok := parseInsightsArgs(args)
			if !ok {
				cError.Fprintln(os.Stderr, "usage: insights <game> [--player <key>]")
				continue
			}
			s.insights(game, player)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return scanner.Err()
}

// parseInsightsArgs splits "insights" arguments into the game (which may
// contain spaces) and an optional --player value.
func parseInsightsArgs(args []string) (game, player string, ok bool) {
	var words []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--player" {
			if i+1 >= len(args) {
				return "", "", false
			}
			player = args[i+1]
			i++
			continue
		}
		words = append(words, args[i])
	}
	game = strings.Join(words, " ")
	return game, player, game != ""
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"games", "list your games with match counts"},
		{"insights <game>", "show a game's insights (id or name)"},
		{"insights <game> --player <key>", "same, highlighting one player"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) games() {
	games, err := s.store.ListGames(s.ctx, userID)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(games) == 0 {
		cMuted.Println("No games stored yet.")
		return
	}
	report.PrintGames(os.Stdout, games)
}

func (s *shellSession) insights(arg, player string) {
	var focus model.PlayerKey
	if player != "" {
		k, err := model.ParsePlayerKey(player)
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		focus = k
	}
	game, err := findGame(s.ctx, s.store, arg)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	gi, err := s.svc.GameInsights(s.ctx, game.ID, userID)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintInsights(os.Stdout, game.Name, gi, focus)
}
