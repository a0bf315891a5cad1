package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/bg-insights/internal/bundle"
)

// ImportStats counts what one import wrote.
type ImportStats struct {
	Games   int
	Players int
	Matches int
}

// ImportBundle upserts a bundle in a single transaction. Re-importing the same
// bundle leaves the database unchanged; a re-imported match has its teams,
// participants and role assignments replaced.
func (db *DB) ImportBundle(b *bundle.Bundle) (ImportStats, error) {
	var stats ImportStats
	tx, err := db.conn.Begin()
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	owners := make(map[int64]int64, len(b.Games))
	for _, g := range b.Games {
		if _, err := tx.Exec(`
			INSERT INTO games(id, owner_id, name) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET owner_id = excluded.owner_id, name = excluded.name`,
			g.ID, g.OwnerID, g.Name); err != nil {
			return stats, fmt.Errorf("insert game %d: %w", g.ID, err)
		}
		for _, r := range g.Roles {
			if _, err := tx.Exec(`
				INSERT INTO roles(id, game_id, name, description) VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET game_id = excluded.game_id, name = excluded.name,
					description = excluded.description`,
				r.ID, g.ID, r.Name, nullString(r.Description)); err != nil {
				return stats, fmt.Errorf("insert role %d: %w", r.ID, err)
			}
		}
		owners[g.ID] = g.OwnerID
		stats.Games++
	}

	for _, p := range b.Players {
		var name, url, typ sql.NullString
		if p.Image != nil {
			name, url, typ = nullString(p.Image.Name), nullString(p.Image.URL), nullString(p.Image.Type)
		}
		if _, err := tx.Exec(`
			INSERT INTO players(id, source_type, name, is_user, image_name, image_url, image_type)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id, source_type) DO UPDATE SET name = excluded.name, is_user = excluded.is_user,
				image_name = excluded.image_name, image_url = excluded.image_url, image_type = excluded.image_type`,
			p.ID, string(p.Source()), p.Name, boolInt(p.IsUser), name, url, typ); err != nil {
			return stats, fmt.Errorf("insert player %d: %w", p.ID, err)
		}
		stats.Players++
	}

	for _, m := range b.Matches {
		if err := importMatch(tx, m, owners[m.GameID]); err != nil {
			return stats, fmt.Errorf("insert match %d: %w", m.ID, err)
		}
		stats.Matches++
	}
	return stats, tx.Commit()
}

func importMatch(tx *sql.Tx, m bundle.Match, gameOwner int64) error {
	owner := m.OwnerID
	if owner == 0 {
		owner = gameOwner
	}
	if _, err := tx.Exec(`
		INSERT INTO matches(id, game_id, owner_id, match_date, is_coop, win_condition)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET game_id = excluded.game_id, owner_id = excluded.owner_id,
			match_date = excluded.match_date, is_coop = excluded.is_coop,
			win_condition = excluded.win_condition`,
		m.ID, m.GameID, owner, m.Date.UTC().Format(time.RFC3339), boolInt(m.IsCoop), m.WinCondition); err != nil {
		return err
	}
	for _, table := range []string{"match_player_roles", "match_players", "teams"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE match_id = ?", m.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, t := range m.Teams {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO teams(id, match_id, name) VALUES (?, ?, ?)`,
			t.ID, m.ID, t.Name); err != nil {
			return fmt.Errorf("team %d: %w", t.ID, err)
		}
	}

	playerStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO match_players(
			match_id, player_id, player_source_type, team_id, winner, score, placement
		) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()
	roleStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO match_player_roles(match_id, player_id, player_source_type, role_id)
		VALUES (?,?,?,?)`)
	if err != nil {
		return err
	}
	defer roleStmt.Close()

	for _, p := range m.Players {
		src := string(p.Source())
		if _, err := playerStmt.Exec(m.ID, p.PlayerID, src,
			nullInt64(p.TeamID), nullBool(p.Winner), nullInt(p.Score), nullInt(p.Placement)); err != nil {
			return fmt.Errorf("participant %s-%d: %w", src, p.PlayerID, err)
		}
		for _, roleID := range p.RoleIDs {
			if _, err := roleStmt.Exec(m.ID, p.PlayerID, src, roleID); err != nil {
				return fmt.Errorf("role %d for %s-%d: %w", roleID, src, p.PlayerID, err)
			}
		}
	}
	return nil
}
