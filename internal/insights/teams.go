package insights

import (
	"slices"
	"sort"
	"strings"

	"github.com/pable/bg-insights/internal/model"
)

const maxTeamConfigs = 15

// ComputeTeamCoreStats extends core statistics with a team record: a match
// counts when the first present member has a team, and is a win when anyone on
// that team won.
func ComputeTeamCoreStats(raw model.RawCore, h *History) model.TeamCore {
	tc := model.TeamCore{DetectedCore: ComputeCoreStats(raw, h)}
	for _, id := range raw.MatchIDs {
		m, ok := h.Match(id)
		if !ok {
			continue
		}
		var teamID *int64
		for _, k := range raw.PlayerKeys {
			if p, ok := m.Player(k); ok {
				teamID = p.TeamID
				break
			}
		}
		if teamID == nil {
			continue
		}
		tc.TeamMatches++
		for _, p := range m.Players {
			if p.TeamID != nil && *p.TeamID == *teamID && p.Winner {
				tc.TeamWins++
				break
			}
		}
	}
	tc.TeamWinRate = rate(tc.TeamWins, tc.TeamMatches)
	return tc
}

// TeamConfigurations finds team-vs-team matchups (by exact player sets) that
// recur at least twice, most frequent first.
func TeamConfigurations(h *History) []model.TeamConfig {
	type sideAccum struct {
		key     string
		name    string
		players []model.PlayerKey
		wins    int
	}
	type configAccum struct {
		sides   []*sideAccum
		matches []int64
	}
	accums := make(map[string]*configAccum)

	for _, m := range h.Matches {
		groups := teamGroups(m)
		if len(groups) < 2 {
			continue
		}
		type side struct {
			key  string
			name string
			keys []model.PlayerKey
			won  bool
		}
		sides := make([]side, 0, len(groups))
		for _, g := range groups {
			keys := sortedKeys(playerKeys(g.players))
			s := side{key: groupKey(keys), name: g.name, keys: keys}
			for _, p := range g.players {
				if p.Winner {
					s.won = true
					break
				}
			}
			sides = append(sides, s)
		}
		sort.Slice(sides, func(i, j int) bool { return sides[i].key < sides[j].key })

		sideKeys := make([]string, len(sides))
		for i, s := range sides {
			sideKeys[i] = s.key
		}
		configKey := strings.Join(sideKeys, " vs ")

		a, ok := accums[configKey]
		if !ok {
			a = &configAccum{}
			for _, s := range sides {
				a.sides = append(a.sides, &sideAccum{key: s.key, name: s.name, players: s.keys})
			}
			accums[configKey] = a
		}
		a.matches = append(a.matches, m.MatchID)
		for i, s := range sides {
			if s.won {
				a.sides[i].wins++
			}
		}
	}

	out := make([]model.TeamConfig, 0)
	for k, a := range accums {
		if len(a.matches) < 2 {
			continue
		}
		ids := slices.Clone(a.matches)
		slices.Sort(ids)
		tc := model.TeamConfig{ConfigKey: k, MatchCount: len(ids), MatchIDs: ids}
		for _, s := range a.sides {
			tc.Teams = append(tc.Teams, model.TeamSide{
				SideKey:  s.key,
				TeamName: s.name,
				Players:  lookupRefs(s.players, ids, h),
				Wins:     s.wins,
			})
		}
		out = append(out, tc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchCount != out[j].MatchCount {
			return out[i].MatchCount > out[j].MatchCount
		}
		return out[i].ConfigKey < out[j].ConfigKey
	})
	if len(out) > maxTeamConfigs {
		out = out[:maxTeamConfigs]
	}
	return out
}

// hasTeams reports whether any participant in the history was on a team.
func hasTeams(h *History) bool {
	for _, m := range h.Matches {
		for _, p := range m.Players {
			if p.TeamID != nil {
				return true
			}
		}
	}
	return false
}

func teamCores(h *History, size, minMatches int) []model.TeamCore {
	raws := DetectCores(h, size, minMatches, true)
	out := make([]model.TeamCore, 0, len(raws))
	for _, raw := range raws {
		out = append(out, ComputeTeamCoreStats(raw, h))
	}
	return out
}

// BuildTeamInsights returns nil when no match in the history used teams.
func BuildTeamInsights(h *History, minMatches int) *model.TeamInsights {
	if !hasTeams(h) {
		return nil
	}
	return &model.TeamInsights{
		Cores: model.TeamCoresBySize{
			Pairs:    teamCores(h, 2, minMatches),
			Trios:    teamCores(h, 3, minMatches),
			Quartets: teamCores(h, 4, minMatches),
		},
		Configurations: TeamConfigurations(h),
	}
}
