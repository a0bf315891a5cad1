package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/bg-insights/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the insights database",
	Long: `Run an arbitrary SQL query against the SQLite database and print results as a table.

Schema overview:
  games(id, owner_id, name, created_at)
  players(id, source_type, name, is_user, image_name, image_url, image_type)
  matches(id, game_id, owner_id, match_date, is_coop, win_condition)
  teams(match_id, id, name)
  match_players(match_id, player_id, player_source_type, team_id, winner, score, placement)
  roles(id, game_id, name, description)
  match_player_roles(match_id, player_id, player_source_type, role_id)

Players are keyed by (id, source_type); source_type is 'original' or 'shared'.
match_date is stored as RFC3339 text.`,
	Example: `  bginsights sql "SELECT g.name, COUNT(*) FROM matches m JOIN games g ON g.id = m.game_id GROUP BY g.name"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
