// Package bundle reads match-history export files: a JSON document with games,
// players and matches, optionally gzip or zstd compressed.
package bundle

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/bg-insights/internal/model"
)

// Bundle is one export file.
type Bundle struct {
	Games   []Game   `json:"games"`
	Players []Player `json:"players"`
	Matches []Match  `json:"matches"`
}

// Game is a board game and its role catalog.
type Game struct {
	ID      int64        `json:"id"`
	OwnerID int64        `json:"ownerId"`
	Name    string       `json:"name"`
	Roles   []model.Role `json:"roles"`
}

// Player is a player record under one provenance.
type Player struct {
	ID         int64              `json:"id"`
	SourceType model.SourceType   `json:"sourceType"`
	Name       string             `json:"name"`
	IsUser     bool               `json:"isUser"`
	Image      *model.PlayerImage `json:"image,omitempty"`
}

// Source returns the declared source type, original when omitted.
func (p Player) Source() model.SourceType {
	return sourceOrDefault(p.SourceType)
}

func (p Player) ref() model.PlayerKey {
	return model.PlayerKey{Source: p.Source(), ID: p.ID}
}

// Team is a side within one match.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Participant is one player's result in one match.
type Participant struct {
	PlayerID   int64            `json:"playerId"`
	SourceType model.SourceType `json:"sourceType"`
	TeamID     *int64           `json:"teamId,omitempty"`
	Winner     *bool            `json:"winner,omitempty"`
	Score      *int             `json:"score,omitempty"`
	Placement  *int             `json:"placement,omitempty"`
	RoleIDs    []int64          `json:"roleIds,omitempty"`
}

// Source returns the declared source type, original when omitted.
func (p Participant) Source() model.SourceType {
	return sourceOrDefault(p.SourceType)
}

func (p Participant) ref() model.PlayerKey {
	return model.PlayerKey{Source: p.Source(), ID: p.PlayerID}
}

func sourceOrDefault(s model.SourceType) model.SourceType {
	if s == "" {
		return model.SourceOriginal
	}
	return s
}

// Match is one recorded play of a game.
type Match struct {
	ID           int64         `json:"id"`
	GameID       int64         `json:"gameId"`
	OwnerID      int64         `json:"ownerId"`
	Date         time.Time     `json:"date"`
	IsCoop       bool          `json:"isCoop"`
	WinCondition string        `json:"winCondition"`
	Teams        []Team        `json:"teams"`
	Players      []Participant `json:"players"`
}

// Load reads and validates the bundle at path. Files ending in .zst or .gz are
// decompressed.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		src = dec
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		src = gz
	}
	return Decode(src)
}

// Decode parses and validates a bundle from r.
func Decode(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks that every match references a known game, and every
// participant a known player, team and role of that game.
func (b *Bundle) Validate() error {
	games := make(map[int64]map[int64]bool, len(b.Games))
	for _, g := range b.Games {
		if _, dup := games[g.ID]; dup {
			return fmt.Errorf("game %d listed twice", g.ID)
		}
		roles := make(map[int64]bool, len(g.Roles))
		for _, r := range g.Roles {
			roles[r.ID] = true
		}
		games[g.ID] = roles
	}
	players := make(map[model.PlayerKey]bool, len(b.Players))
	for _, p := range b.Players {
		if p.SourceType != "" && !p.SourceType.Valid() {
			return fmt.Errorf("player %d: unknown source type %q", p.ID, p.SourceType)
		}
		players[p.ref()] = true
	}

	var errs []error
	for _, m := range b.Matches {
		roles, ok := games[m.GameID]
		if !ok {
			errs = append(errs, fmt.Errorf("match %d: unknown game %d", m.ID, m.GameID))
			continue
		}
		teams := make(map[int64]bool, len(m.Teams))
		for _, t := range m.Teams {
			teams[t.ID] = true
		}
		seen := make(map[model.PlayerKey]bool, len(m.Players))
		for _, p := range m.Players {
			k := p.ref()
			switch {
			case !players[k]:
				errs = append(errs, fmt.Errorf("match %d: unknown player %s", m.ID, k))
			case seen[k]:
				errs = append(errs, fmt.Errorf("match %d: player %s listed twice", m.ID, k))
			case p.TeamID != nil && !teams[*p.TeamID]:
				errs = append(errs, fmt.Errorf("match %d: player %s on unknown team %d", m.ID, k, *p.TeamID))
			}
			seen[k] = true
			for _, id := range p.RoleIDs {
				if !roles[id] {
					errs = append(errs, fmt.Errorf("match %d: player %s holds unknown role %d", m.ID, k, id))
				}
			}
		}
	}
	return errors.Join(errs...)
}
