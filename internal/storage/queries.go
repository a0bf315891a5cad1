package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/bg-insights/internal/model"
)

// ListGames returns the owner's games with their match counts, ordered by name.
func (db *DB) ListGames(ctx context.Context, ownerID int64) ([]model.Game, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT g.id, g.owner_id, g.name, COUNT(m.id)
		FROM games g
		LEFT JOIN matches m ON m.game_id = g.id AND m.owner_id = g.owner_id
		WHERE g.owner_id = ?
		GROUP BY g.id
		ORDER BY g.name COLLATE NOCASE, g.id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.MatchCount); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (db *DB) gameExists(ctx context.Context, gameID, ownerID int64) error {
	var count int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM games WHERE id = ? AND owner_id = ?", gameID, ownerID).Scan(&count)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrGameNotFound
	}
	return nil
}

// InsightRows returns one row per participant of every match of the game,
// newest match first. player_count counts every participant of the match.
func (db *DB) InsightRows(ctx context.Context, gameID, ownerID int64) ([]model.InsightRow, error) {
	if err := db.gameExists(ctx, gameID, ownerID); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.id, m.match_date, m.is_coop, m.win_condition,
		       (SELECT COUNT(1) FROM match_players c WHERE c.match_id = m.id),
		       p.id, p.name, p.source_type, p.is_user,
		       mp.winner, mp.score, mp.placement, mp.team_id, t.name,
		       p.image_name, p.image_url, p.image_type
		FROM matches m
		JOIN match_players mp ON mp.match_id = m.id
		JOIN players p ON p.id = mp.player_id AND p.source_type = mp.player_source_type
		LEFT JOIN teams t ON t.match_id = m.id AND t.id = mp.team_id
		WHERE m.game_id = ? AND m.owner_id = ?
		ORDER BY m.match_date DESC, m.id, mp.rowid`, gameID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.InsightRow
	for rows.Next() {
		var (
			r         model.InsightRow
			date      string
			isCoop    int
			source    string
			isUser    int
			winner    sql.NullInt64
			score     sql.NullInt64
			placement sql.NullInt64
			teamID    sql.NullInt64
			teamName  sql.NullString
			imageName sql.NullString
			imageURL  sql.NullString
			imageType sql.NullString
		)
		if err := rows.Scan(
			&r.MatchID, &date, &isCoop, &r.WinCondition, &r.PlayerCount,
			&r.PlayerID, &r.PlayerName, &source, &isUser,
			&winner, &score, &placement, &teamID, &teamName,
			&imageName, &imageURL, &imageType,
		); err != nil {
			return nil, err
		}
		r.MatchDate, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("match %d: parse date %q: %w", r.MatchID, date, err)
		}
		r.IsCoop = isCoop != 0
		r.PlayerSourceType = model.SourceType(source)
		r.IsUser = isUser != 0
		if winner.Valid {
			w := winner.Int64 != 0
			r.Winner = &w
		}
		r.Score = intPtr(score)
		r.Placement = intPtr(placement)
		if teamID.Valid {
			id := teamID.Int64
			r.TeamID = &id
		}
		r.TeamName = stringPtr(teamName)
		r.PlayerImageName = stringPtr(imageName)
		r.PlayerImageURL = stringPtr(imageURL)
		r.PlayerImageType = stringPtr(imageType)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RoleRows returns every role assignment in the game's matches.
func (db *DB) RoleRows(ctx context.Context, gameID, ownerID int64) ([]model.RoleRow, error) {
	if err := db.gameExists(ctx, gameID, ownerID); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT a.match_id, a.player_id, a.player_source_type, r.id, r.name, r.description
		FROM match_player_roles a
		JOIN matches m ON m.id = a.match_id
		JOIN roles r ON r.id = a.role_id
		WHERE m.game_id = ? AND m.owner_id = ?
		ORDER BY a.match_id, a.rowid`, gameID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoleRow
	for rows.Next() {
		var (
			r      model.RoleRow
			source string
			desc   sql.NullString
		)
		if err := rows.Scan(&r.MatchID, &r.PlayerID, &source, &r.CanonicalRoleID, &r.RoleName, &desc); err != nil {
			return nil, err
		}
		r.PlayerSourceType = model.SourceType(source)
		r.RoleDescription = stringPtr(desc)
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
// NULLs render as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(v)
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
