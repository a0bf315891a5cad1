package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pable/bg-insights/internal/model"
)

// PGSource reads match history from a Postgres database with the same table
// layout as the SQLite schema. Flag and date columns may be either the SQLite
// types (INTEGER 0/1, RFC3339 TEXT) or native boolean and timestamptz; the
// queries cast them. It is read-only.
type PGSource struct {
	pool *pgxpool.Pool
}

// NewPGSource connects to url and verifies the connection.
func NewPGSource(ctx context.Context, url string) (*PGSource, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PGSource{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PGSource) Close() {
	s.pool.Close()
}

// ListGames returns the owner's games with their match counts, ordered by name.
func (s *PGSource) ListGames(ctx context.Context, ownerID int64) ([]model.Game, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id, g.owner_id, g.name, COUNT(m.id)
		FROM games g
		LEFT JOIN matches m ON m.game_id = g.id AND m.owner_id = g.owner_id
		WHERE g.owner_id = $1
		GROUP BY g.id, g.owner_id, g.name
		ORDER BY lower(g.name), g.id`, ownerID)
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

func (s *PGSource) gameExists(ctx context.Context, gameID, ownerID int64) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM games WHERE id = $1 AND owner_id = $2)", gameID, ownerID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrGameNotFound
	}
	return nil
}

// InsightRows mirrors DB.InsightRows.
func (s *PGSource) InsightRows(ctx context.Context, gameID, ownerID int64) ([]model.InsightRow, error) {
	if err := s.gameExists(ctx, gameID, ownerID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.match_date::timestamptz, m.is_coop::boolean, m.win_condition,
		       COUNT(*) OVER (PARTITION BY m.id),
		       p.id, p.name, p.source_type, p.is_user::boolean,
		       mp.winner::boolean, mp.score, mp.placement, mp.team_id, t.name,
		       p.image_name, p.image_url, p.image_type
		FROM matches m
		JOIN match_players mp ON mp.match_id = m.id
		JOIN players p ON p.id = mp.player_id AND p.source_type = mp.player_source_type
		LEFT JOIN teams t ON t.match_id = m.id AND t.id = mp.team_id
		WHERE m.game_id = $1 AND m.owner_id = $2
		ORDER BY m.match_date::timestamptz DESC, m.id, mp.player_source_type, mp.player_id`, gameID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.InsightRow
	for rows.Next() {
		var (
			r      model.InsightRow
			date   time.Time
			source string
		)
		if err := rows.Scan(
			&r.MatchID, &date, &r.IsCoop, &r.WinCondition, &r.PlayerCount,
			&r.PlayerID, &r.PlayerName, &source, &r.IsUser,
			&r.Winner, &r.Score, &r.Placement, &r.TeamID, &r.TeamName,
			&r.PlayerImageName, &r.PlayerImageURL, &r.PlayerImageType,
		); err != nil {
			return nil, err
		}
		r.MatchDate = date.UTC()
		r.PlayerSourceType = model.SourceType(source)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RoleRows mirrors DB.RoleRows.
func (s *PGSource) RoleRows(ctx context.Context, gameID, ownerID int64) ([]model.RoleRow, error) {
	if err := s.gameExists(ctx, gameID, ownerID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT a.match_id, a.player_id, a.player_source_type, r.id, r.name, r.description
		FROM match_player_roles a
		JOIN matches m ON m.id = a.match_id
		JOIN roles r ON r.id = a.role_id
		WHERE m.game_id = $1 AND m.owner_id = $2
		ORDER BY a.match_id, a.player_source_type, a.player_id, r.id`, gameID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoleRow
	for rows.Next() {
		var (
			r      model.RoleRow
			source string
		)
		if err := rows.Scan(&r.MatchID, &r.PlayerID, &source, &r.CanonicalRoleID, &r.RoleName, &r.RoleDescription); err != nil {
			return nil, err
		}
		r.PlayerSourceType = model.SourceType(source)
		out = append(out, r)
	}
	return out, rows.Err()
}
