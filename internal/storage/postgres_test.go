package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// sqliteTypedDDL mirrors schema.sql column types, so flags are integers and
// dates are text.
var sqliteTypedDDL = []string{
	`CREATE TABLE games (id BIGINT PRIMARY KEY, owner_id BIGINT NOT NULL, name TEXT NOT NULL)`,
	`CREATE TABLE players (id BIGINT NOT NULL, source_type TEXT NOT NULL, name TEXT NOT NULL,
		is_user INTEGER NOT NULL DEFAULT 0, image_name TEXT, image_url TEXT, image_type TEXT,
		PRIMARY KEY (id, source_type))`,
	`CREATE TABLE matches (id BIGINT PRIMARY KEY, game_id BIGINT NOT NULL, owner_id BIGINT NOT NULL,
		match_date TEXT NOT NULL, is_coop INTEGER NOT NULL DEFAULT 0, win_condition TEXT NOT NULL DEFAULT '')`,
	`CREATE TABLE teams (id BIGINT NOT NULL, match_id BIGINT NOT NULL, name TEXT NOT NULL, PRIMARY KEY (match_id, id))`,
	`CREATE TABLE match_players (match_id BIGINT NOT NULL, player_id BIGINT NOT NULL,
		player_source_type TEXT NOT NULL, team_id BIGINT, winner INTEGER, score INTEGER, placement INTEGER)`,
	`CREATE TABLE roles (id BIGINT PRIMARY KEY, game_id BIGINT NOT NULL, name TEXT NOT NULL, description TEXT)`,
	`CREATE TABLE match_player_roles (match_id BIGINT NOT NULL, player_id BIGINT NOT NULL,
		player_source_type TEXT NOT NULL, role_id BIGINT NOT NULL)`,
	`INSERT INTO games VALUES (7, 1, 'Catan')`,
	`INSERT INTO players (id, source_type, name, is_user) VALUES (1, 'original', 'Alice', 1), (2, 'original', 'Bob', 0)`,
	`INSERT INTO matches VALUES
		(100, 7, 1, '2025-03-01T19:00:00Z', 0, 'Highest Score'),
		(101, 7, 1, '2025-03-08T19:00:00Z', 1, 'Manual')`,
	`INSERT INTO match_players VALUES
		(100, 1, 'original', NULL, 1, 10, 1),
		(100, 2, 'original', NULL, 0, 8, 2),
		(101, 1, 'original', NULL, 1, NULL, NULL),
		(101, 2, 'original', NULL, 1, NULL, NULL)`,
}

// openTestPG connects to $BGI_TEST_DATABASE_URL inside a throwaway schema.
func openTestPG(t *testing.T, ddl []string) *PGSource {
	t.Helper()
	raw := os.Getenv("BGI_TEST_DATABASE_URL")
	if raw == "" {
		t.Skip("BGI_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, raw)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(admin.Close)

	schema := fmt.Sprintf("bgi_test_%d", time.Now().UnixNano())
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
	})

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("BGI_TEST_DATABASE_URL must be a URL: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	src, err := NewPGSource(ctx, u.String())
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	t.Cleanup(src.Close)

	for _, stmt := range ddl {
		if _, err := src.pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return src
}

func TestPGSource_SQLiteColumnTypes(t *testing.T) {
	src := openTestPG(t, sqliteTypedDDL)
	ctx := context.Background()

	games, err := src.ListGames(ctx, 1)
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 1 || games[0].MatchCount != 2 {
		t.Fatalf("games = %+v, want Catan with 2 matches", games)
	}

	rows, err := src.InsightRows(ctx, 7, 1)
	if err != nil {
		t.Fatalf("insight rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	first := rows[0]
	if first.MatchID != 101 || !first.IsCoop {
		t.Errorf("first row match %d coop %v, want newest coop match 101", first.MatchID, first.IsCoop)
	}
	if want := time.Date(2025, 3, 8, 19, 0, 0, 0, time.UTC); !first.MatchDate.Equal(want) {
		t.Errorf("match date = %v, want %v", first.MatchDate, want)
	}
	if !first.IsUser || first.Winner == nil || !*first.Winner {
		t.Errorf("alice row: isUser %v winner %v", first.IsUser, first.Winner)
	}
	if first.PlayerCount != 2 {
		t.Errorf("player count = %d, want 2", first.PlayerCount)
	}
	last := rows[3]
	if last.IsCoop || last.Winner == nil || *last.Winner || last.Placement == nil || *last.Placement != 2 {
		t.Errorf("bob in match 100: %+v", last)
	}

	if _, err := src.InsightRows(ctx, 8, 1); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("missing game: err = %v, want ErrGameNotFound", err)
	}
}
