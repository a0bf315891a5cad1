package model

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SourceType is the provenance of a player record.
type SourceType string

const (
	SourceOriginal SourceType = "original"
	SourceShared   SourceType = "shared"
	SourceLinked   SourceType = "linked"
)

// Normalize folds linked players into original ones; both are the same person
// as far as insights are concerned. Unknown values are treated as original.
func (s SourceType) Normalize() SourceType {
	if s == SourceShared {
		return SourceShared
	}
	return SourceOriginal
}

// Valid reports whether s is one of the known provenance kinds.
func (s SourceType) Valid() bool {
	switch s {
	case SourceOriginal, SourceShared, SourceLinked:
		return true
	}
	return false
}

// PlayerKey identifies a player across matches: provenance plus numeric id.
type PlayerKey struct {
	Source SourceType
	ID     int64
}

// NewPlayerKey builds a key with a normalized source.
func NewPlayerKey(source SourceType, id int64) PlayerKey {
	return PlayerKey{Source: source.Normalize(), ID: id}
}

func (k PlayerKey) String() string {
	return string(k.Source) + "-" + strconv.FormatInt(k.ID, 10)
}

// Compare orders keys by source, then id.
func (k PlayerKey) Compare(o PlayerKey) int {
	if c := cmp.Compare(k.Source, o.Source); c != 0 {
		return c
	}
	return cmp.Compare(k.ID, o.ID)
}

func (k PlayerKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PlayerKey) UnmarshalText(b []byte) error {
	parsed, err := ParsePlayerKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParsePlayerKey parses the "source-id" form produced by String.
func ParsePlayerKey(s string) (PlayerKey, error) {
	i := strings.LastIndexByte(s, '-')
	if i <= 0 {
		return PlayerKey{}, fmt.Errorf("invalid player key %q", s)
	}
	id, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return PlayerKey{}, fmt.Errorf("invalid player key %q: %w", s, err)
	}
	src := SourceType(s[:i])
	if !src.Valid() {
		return PlayerKey{}, fmt.Errorf("invalid player key %q: unknown source", s)
	}
	return NewPlayerKey(src, id), nil
}

// WinConditionManual marks matches where winners are picked by hand and
// placements carry no ranking signal.
const WinConditionManual = "Manual"

// ---- Rows yielded by the repository ----

// InsightRow is one participant of one match.
type InsightRow struct {
	MatchID          int64
	MatchDate        time.Time
	IsCoop           bool
	WinCondition     string
	PlayerCount      int
	PlayerID         int64
	PlayerName       string
	PlayerSourceType SourceType
	IsUser           bool
	Winner           *bool
	Score            *int
	Placement        *int
	TeamID           *int64
	TeamName         *string
	PlayerImageName  *string
	PlayerImageURL   *string
	PlayerImageType  *string
}

// RoleRow is one role held by one participant of one match.
type RoleRow struct {
	MatchID          int64
	PlayerID         int64
	PlayerSourceType SourceType
	CanonicalRoleID  int64
	RoleName         string
	RoleDescription  *string
}

// ---- Grouped match history ----

type PlayerImage struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Type string `json:"type,omitempty"`
}

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MatchPlayer is a player's participation in one match.
type MatchPlayer struct {
	Key        PlayerKey
	PlayerID   int64
	Name       string
	SourceType SourceType
	IsUser     bool
	Winner     bool
	Score      *int
	Placement  int // 0 when not applicable
	TeamID     *int64
	TeamName   string
	Image      *PlayerImage
	Roles      []Role
}

// HasRole reports whether the player holds the role in this match.
func (p *MatchPlayer) HasRole(roleID int64) bool {
	for _, r := range p.Roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}

// SameTeam reports whether both players are on the same non-empty team.
func (p *MatchPlayer) SameTeam(o *MatchPlayer) bool {
	return p.TeamID != nil && o.TeamID != nil && *p.TeamID == *o.TeamID
}

// MatchInsight is one match with its deduplicated participants.
type MatchInsight struct {
	MatchID      int64
	MatchDate    time.Time
	IsCoop       bool
	WinCondition string
	PlayerCount  int
	Players      []*MatchPlayer
}

// Player returns the participant with the given key, if present.
func (m *MatchInsight) Player(key PlayerKey) (*MatchPlayer, bool) {
	for _, p := range m.Players {
		if p.Key == key {
			return p, true
		}
	}
	return nil, false
}

// IsManual reports whether winners were picked by hand.
func (m *MatchInsight) IsManual() bool {
	return m.WinCondition == WinConditionManual
}
