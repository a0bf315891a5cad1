package insights

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"github.com/pable/bg-insights/internal/model"
)

const (
	maxRoleEffects = 10
	// effectFloor is the minimum number of matches a relationship category
	// needs before its win rate is reported.
	effectFloor = 5
)

// BuildRoleInsights returns nil when no player held a role in any match.
func BuildRoleInsights(h *History) *model.RoleInsights {
	catalog := roleCatalog(h)
	if len(catalog) == 0 {
		return nil
	}
	return &model.RoleInsights{
		Roles:             RoleSummaries(h, catalog),
		PresenceEffects:   RolePresenceEffects(h, catalog),
		RoleEffects:       RoleToRoleEffects(h, catalog),
		PlayerPerformance: PlayerRolePerformances(h),
	}
}

// roleCatalog lists every role held in the history, ordered by name then id.
func roleCatalog(h *History) []model.Role {
	seen := make(map[int64]model.Role)
	for _, m := range h.Matches {
		for _, p := range m.Players {
			for _, r := range p.Roles {
				if _, ok := seen[r.ID]; !ok {
					seen[r.ID] = r
				}
			}
		}
	}
	out := make([]model.Role, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b model.Role) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func holders(m *model.MatchInsight, roleID int64) []*model.MatchPlayer {
	var out []*model.MatchPlayer
	for _, p := range m.Players {
		if p.HasRole(roleID) {
			out = append(out, p)
		}
	}
	return out
}

// classifyRole labels how a role was held in one match.
func classifyRole(hs []*model.MatchPlayer) model.RoleClassification {
	if len(hs) <= 1 {
		return model.RoleUnique
	}
	first := hs[0]
	if first.TeamID == nil {
		return model.RoleShared
	}
	for _, p := range hs[1:] {
		if !first.SameTeam(p) {
			return model.RoleShared
		}
	}
	return model.RoleTeam
}

// predominant picks the largest bucket; ties prefer team, then shared, then unique.
func predominant(b model.ClassificationBreakdown) model.RoleClassification {
	best, n := model.RoleTeam, b.Team
	if b.Shared > n {
		best, n = model.RoleShared, b.Shared
	}
	if b.Unique > n {
		best = model.RoleUnique
	}
	return best
}

// RoleSummaries aggregates usage and win rate per role, most played first.
func RoleSummaries(h *History, catalog []model.Role) []model.RoleSummary {
	out := make([]model.RoleSummary, 0, len(catalog))
	for _, role := range catalog {
		rs := model.RoleSummary{Role: role}
		for _, m := range h.Matches {
			hs := holders(m, role.ID)
			if len(hs) == 0 {
				continue
			}
			rs.MatchCount++
			switch classifyRole(hs) {
			case model.RoleUnique:
				rs.Breakdown.Unique++
			case model.RoleTeam:
				rs.Breakdown.Team++
			default:
				rs.Breakdown.Shared++
			}
			for _, p := range hs {
				rs.Assignments++
				if p.Winner {
					rs.Wins++
				}
			}
		}
		rs.WinRate = rate(rs.Wins, rs.Assignments)
		rs.Classification = predominant(rs.Breakdown)
		out = append(out, rs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchCount > out[j].MatchCount })
	return out
}

type effectAccum struct {
	wins, matches int
}

func (e *effectAccum) add(won bool) {
	e.matches++
	if won {
		e.wins++
	}
}

// effect is nil below the reporting floor.
func (e effectAccum) effect() *model.TeamRelationEffect {
	if e.matches < effectFloor {
		return nil
	}
	return &model.TeamRelationEffect{Wins: e.wins, Matches: e.matches, WinRate: rate(e.wins, e.matches)}
}

// relation classifies subject against the other holders: same is set when a
// different holder shares subject's team, opposing when one does not. Being a
// holder yourself clears opposing.
func relation(subject *model.MatchPlayer, self bool, others []*model.MatchPlayer) (same, opposing bool) {
	for _, o := range others {
		if o == subject {
			continue
		}
		if subject.SameTeam(o) {
			same = true
		} else {
			opposing = true
		}
	}
	if self {
		opposing = false
	}
	return same, opposing
}

func deviation(effects ...*model.TeamRelationEffect) float64 {
	d := 0.0
	for _, e := range effects {
		if e != nil {
			d = math.Max(d, math.Abs(e.WinRate-0.5))
		}
	}
	return d
}

// RolePresenceEffects reports, per role, how each player fares when they hold
// it, when a teammate holds it, and when an opponent holds it.
func RolePresenceEffects(h *History, catalog []model.Role) []model.RolePresenceEffect {
	out := make([]model.RolePresenceEffect, 0)
	for _, role := range catalog {
		type playerAccum struct {
			ref                  model.PlayerRef
			self, same, opposing effectAccum
		}
		accums := make(map[model.PlayerKey]*playerAccum)
		for _, m := range h.Matches {
			if m.IsCoop {
				continue
			}
			hs := holders(m, role.ID)
			if len(hs) == 0 {
				continue
			}
			for _, p := range m.Players {
				a, ok := accums[p.Key]
				if !ok {
					a = &playerAccum{ref: model.RefOf(p)}
					accums[p.Key] = a
				}
				self := p.HasRole(role.ID)
				same, opposing := relation(p, self, hs)
				if self {
					a.self.add(p.Winner)
				}
				if same {
					a.same.add(p.Winner)
				}
				if opposing {
					a.opposing.add(p.Winner)
				}
			}
		}

		var players []model.PlayerPresenceEffect
		for _, a := range accums {
			pe := model.PlayerPresenceEffect{
				Player:       a.ref,
				Self:         a.self.effect(),
				SameTeam:     a.same.effect(),
				OpposingTeam: a.opposing.effect(),
			}
			if pe.Self == nil && pe.SameTeam == nil && pe.OpposingTeam == nil {
				continue
			}
			players = append(players, pe)
		}
		if len(players) == 0 {
			continue
		}
		sort.Slice(players, func(i, j int) bool {
			di := deviation(players[i].Self, players[i].SameTeam, players[i].OpposingTeam)
			dj := deviation(players[j].Self, players[j].SameTeam, players[j].OpposingTeam)
			if di != dj {
				return di > dj
			}
			return players[i].Player.Key.Compare(players[j].Player.Key) < 0
		})
		if len(players) > maxRoleEffects {
			players = players[:maxRoleEffects]
		}
		out = append(out, model.RolePresenceEffect{Role: role, Players: players})
	}
	return out
}

// RoleToRoleEffects reports how holders of one role fare against holders of
// another, counted once per (holder, match).
func RoleToRoleEffects(h *History, catalog []model.Role) []model.RoleRoleEffect {
	out := make([]model.RoleRoleEffect, 0)
	for _, x := range catalog {
		for _, y := range catalog {
			if x.ID == y.ID {
				continue
			}
			var samePlayer, sameTeam, opposing effectAccum
			for _, m := range h.Matches {
				if m.IsCoop {
					continue
				}
				hx, hy := holders(m, x.ID), holders(m, y.ID)
				if len(hx) == 0 || len(hy) == 0 {
					continue
				}
				for _, p := range hx {
					self := p.HasRole(y.ID)
					same, opp := relation(p, self, hy)
					if self {
						samePlayer.add(p.Winner)
					}
					if same {
						sameTeam.add(p.Winner)
					}
					if opp {
						opposing.add(p.Winner)
					}
				}
			}
			re := model.RoleRoleEffect{
				Role:         x,
				Other:        y,
				SamePlayer:   samePlayer.effect(),
				SameTeam:     sameTeam.effect(),
				OpposingTeam: opposing.effect(),
			}
			if re.SamePlayer == nil && re.SameTeam == nil && re.OpposingTeam == nil {
				continue
			}
			out = append(out, re)
		}
	}
	// catalog order is the tie-break, so a stable sort keeps output deterministic
	sort.SliceStable(out, func(i, j int) bool {
		return deviation(out[i].SamePlayer, out[i].SameTeam, out[i].OpposingTeam) >
			deviation(out[j].SamePlayer, out[j].SameTeam, out[j].OpposingTeam)
	})
	if len(out) > maxRoleEffects {
		out = out[:maxRoleEffects]
	}
	return out
}

// PlayerRolePerformances aggregates each player's record per role held.
func PlayerRolePerformances(h *History) []model.PlayerRolePerformance {
	type roleAccum struct {
		role                         model.Role
		matches, wins                int
		placementSum, placementCount int
		scoreSum, scoreCount         int
	}
	type playerAccum struct {
		ref     model.PlayerRef
		matches int
		roles   map[int64]*roleAccum
	}
	accums := make(map[model.PlayerKey]*playerAccum)
	for _, m := range h.Matches {
		for _, p := range m.Players {
			if len(p.Roles) == 0 {
				continue
			}
			a, ok := accums[p.Key]
			if !ok {
				a = &playerAccum{ref: model.RefOf(p), roles: make(map[int64]*roleAccum)}
				accums[p.Key] = a
			}
			a.matches++
			for _, r := range p.Roles {
				ra, ok := a.roles[r.ID]
				if !ok {
					ra = &roleAccum{role: r}
					a.roles[r.ID] = ra
				}
				ra.matches++
				if p.Winner {
					ra.wins++
				}
				if p.Placement > 0 {
					ra.placementSum += p.Placement
					ra.placementCount++
				}
				if p.Score != nil {
					ra.scoreSum += *p.Score
					ra.scoreCount++
				}
			}
		}
	}

	out := make([]model.PlayerRolePerformance, 0, len(accums))
	for _, a := range accums {
		prp := model.PlayerRolePerformance{
			Player:       a.ref,
			TotalMatches: a.matches,
			Roles:        make([]model.RolePerformance, 0, len(a.roles)),
		}
		for _, ra := range a.roles {
			prp.Roles = append(prp.Roles, model.RolePerformance{
				Role:         ra.role,
				MatchCount:   ra.matches,
				Wins:         ra.wins,
				WinRate:      rate(ra.wins, ra.matches),
				AvgPlacement: mean(float64(ra.placementSum), ra.placementCount),
				AvgScore:     mean(float64(ra.scoreSum), ra.scoreCount),
			})
		}
		sort.Slice(prp.Roles, func(i, j int) bool {
			ri, rj := prp.Roles[i], prp.Roles[j]
			if ri.MatchCount != rj.MatchCount {
				return ri.MatchCount > rj.MatchCount
			}
			if ri.Role.Name != rj.Role.Name {
				return ri.Role.Name < rj.Role.Name
			}
			return ri.Role.ID < rj.Role.ID
		})
		out = append(out, prp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Player.IsUser != out[j].Player.IsUser {
			return out[i].Player.IsUser
		}
		if out[i].TotalMatches != out[j].TotalMatches {
			return out[i].TotalMatches > out[j].TotalMatches
		}
		return out[i].Player.Key.Compare(out[j].Player.Key) < 0
	})
	return out
}
