package insights

import (
	"github.com/pable/bg-insights/internal/model"
)

// History is the grouped match history of one game, in repository row order.
type History struct {
	Matches []*model.MatchInsight
	byID    map[int64]*model.MatchInsight
}

// Match looks up a match by id.
func (h *History) Match(id int64) (*model.MatchInsight, bool) {
	m, ok := h.byID[id]
	return m, ok
}

// Len returns the number of matches.
func (h *History) Len() int {
	return len(h.Matches)
}

// GroupRows collapses per-participant rows into matches and merges role rows
// into the matching participants. Duplicate participants (join fan-out) and
// duplicate role ids are dropped; role rows for unknown participants are ignored.
func GroupRows(rows []model.InsightRow, roleRows []model.RoleRow) *History {
	h := &History{byID: make(map[int64]*model.MatchInsight)}

	for _, r := range rows {
		m, ok := h.byID[r.MatchID]
		if !ok {
			m = &model.MatchInsight{
				MatchID:      r.MatchID,
				MatchDate:    r.MatchDate,
				IsCoop:       r.IsCoop,
				WinCondition: r.WinCondition,
				PlayerCount:  r.PlayerCount,
			}
			h.byID[r.MatchID] = m
			h.Matches = append(h.Matches, m)
		}

		key := model.NewPlayerKey(r.PlayerSourceType, r.PlayerID)
		if _, dup := m.Player(key); dup {
			continue
		}

		p := &model.MatchPlayer{
			Key:        key,
			PlayerID:   r.PlayerID,
			Name:       r.PlayerName,
			SourceType: key.Source,
			IsUser:     r.IsUser,
			Winner:     r.Winner != nil && *r.Winner,
			Score:      r.Score,
			TeamID:     r.TeamID,
		}
		if r.Placement != nil && *r.Placement > 0 {
			p.Placement = *r.Placement
		}
		if r.TeamName != nil {
			p.TeamName = *r.TeamName
		}
		if r.PlayerImageName != nil && *r.PlayerImageName != "" {
			p.Image = &model.PlayerImage{
				Name: *r.PlayerImageName,
				URL:  deref(r.PlayerImageURL),
				Type: deref(r.PlayerImageType),
			}
		}
		m.Players = append(m.Players, p)
	}

	for _, m := range h.Matches {
		if m.PlayerCount <= 0 {
			m.PlayerCount = len(m.Players)
		}
	}

	for _, rr := range roleRows {
		m, ok := h.byID[rr.MatchID]
		if !ok {
			continue
		}
		p, ok := m.Player(model.NewPlayerKey(rr.PlayerSourceType, rr.PlayerID))
		if !ok || p.HasRole(rr.CanonicalRoleID) {
			continue
		}
		p.Roles = append(p.Roles, model.Role{
			ID:          rr.CanonicalRoleID,
			Name:        rr.RoleName,
			Description: deref(rr.RoleDescription),
		})
	}
	return h
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
