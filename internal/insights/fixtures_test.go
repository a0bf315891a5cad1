package insights

import (
	"time"

	"github.com/pable/bg-insights/internal/model"
)

// Player ids used across tests. alice is the requesting user.
const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
	dave  int64 = 4
	erin  int64 = 5
)

var names = map[int64]string{alice: "Alice", bob: "Bob", carol: "Carol", dave: "Dave", erin: "Erin"}

var baseDate = time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)

// seat describes one participant of a test match.
type seat struct {
	id    int64
	win   bool
	place int
	score *int
	team  int64 // 0 means no team
	src   model.SourceType
}

func intp(v int) *int { return &v }

func key(id int64) model.PlayerKey { return model.NewPlayerKey(model.SourceOriginal, id) }

// match builds the rows for one match played day days after baseDate.
func match(id int64, day int, coop bool, winCondition string, seats ...seat) []model.InsightRow {
	rows := make([]model.InsightRow, 0, len(seats))
	for _, s := range seats {
		src := s.src
		if src == "" {
			src = model.SourceOriginal
		}
		win := s.win
		r := model.InsightRow{
			MatchID:          id,
			MatchDate:        baseDate.AddDate(0, 0, day),
			IsCoop:           coop,
			WinCondition:     winCondition,
			PlayerCount:      len(seats),
			PlayerID:         s.id,
			PlayerName:       names[s.id],
			PlayerSourceType: src,
			IsUser:           s.id == alice,
			Winner:           &win,
			Score:            s.score,
		}
		if s.place > 0 {
			place := s.place
			r.Placement = &place
		}
		if s.team != 0 {
			team := s.team
			name := "Team " + string(rune('A'+team-1))
			r.TeamID = &team
			r.TeamName = &name
		}
		rows = append(rows, r)
	}
	return rows
}

func flatten(sets ...[]model.InsightRow) []model.InsightRow {
	var out []model.InsightRow
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

func history(sets ...[]model.InsightRow) *History {
	return GroupRows(flatten(sets...), nil)
}

func roleRow(matchID, playerID, roleID int64, roleName string) model.RoleRow {
	return model.RoleRow{
		MatchID:          matchID,
		PlayerID:         playerID,
		PlayerSourceType: model.SourceOriginal,
		CanonicalRoleID:  roleID,
		RoleName:         roleName,
	}
}

const scored = "Highest Score"
