package insights

import (
	"cmp"
	"slices"
	"sort"

	"github.com/pable/bg-insights/internal/model"
)

const maxLineups = 10

// PlayerCountDistribution tallies matches per player count, ascending.
func PlayerCountDistribution(h *History) []model.PlayerCountEntry {
	counts := make(map[int]int)
	for _, m := range h.Matches {
		counts[m.PlayerCount]++
	}
	return countEntries(counts, h.Len())
}

func countEntries(counts map[int]int, total int) []model.PlayerCountEntry {
	out := make([]model.PlayerCountEntry, 0, len(counts))
	for pc, n := range counts {
		out = append(out, model.PlayerCountEntry{
			PlayerCount: pc,
			MatchCount:  n,
			Percentage:  percentage(n, total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerCount < out[j].PlayerCount })
	return out
}

// PerPlayerDistribution tallies, for each player, matches per player count.
// The requesting user comes first, then players by total matches.
func PerPlayerDistribution(h *History) []model.PerPlayerDistribution {
	type playerAccum struct {
		ref    model.PlayerRef
		total  int
		counts map[int]int
	}
	accums := make(map[model.PlayerKey]*playerAccum)
	for _, m := range h.Matches {
		for _, p := range m.Players {
			a, ok := accums[p.Key]
			if !ok {
				a = &playerAccum{ref: model.RefOf(p), counts: make(map[int]int)}
				accums[p.Key] = a
			}
			a.total++
			a.counts[m.PlayerCount]++
		}
	}

	out := make([]model.PerPlayerDistribution, 0, len(accums))
	for _, a := range accums {
		out = append(out, model.PerPlayerDistribution{
			Player:       a.ref,
			TotalMatches: a.total,
			Counts:       countEntries(a.counts, a.total),
		})
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

// FrequentLineups groups matches by their exact player set and keeps sets
// seen at least twice, most frequent first. Each lineup's matches are newest first.
func FrequentLineups(h *History) []model.FrequentLineup {
	type lineupAccum struct {
		keys    []model.PlayerKey
		matches []*model.MatchInsight
	}
	accums := make(map[string]*lineupAccum)
	for _, m := range h.Matches {
		keys := sortedKeys(playerKeys(m.Players))
		k := groupKey(keys)
		a, ok := accums[k]
		if !ok {
			a = &lineupAccum{keys: keys}
			accums[k] = a
		}
		a.matches = append(a.matches, m)
	}

	out := make([]model.FrequentLineup, 0)
	for k, a := range accums {
		if len(a.matches) < 2 {
			continue
		}
		slices.SortFunc(a.matches, func(x, y *model.MatchInsight) int {
			if c := y.MatchDate.Compare(x.MatchDate); c != 0 {
				return c
			}
			return cmp.Compare(y.MatchID, x.MatchID)
		})
		ids := make([]int64, len(a.matches))
		lm := make([]model.LineupMatch, len(a.matches))
		for i, m := range a.matches {
			ids[i] = m.MatchID
			lm[i] = model.LineupMatch{MatchID: m.MatchID, MatchDate: m.MatchDate}
		}
		out = append(out, model.FrequentLineup{
			LineupKey:  k,
			Players:    lookupRefs(a.keys, ids, h),
			MatchCount: len(a.matches),
			Matches:    lm,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchCount != out[j].MatchCount {
			return out[i].MatchCount > out[j].MatchCount
		}
		return out[i].LineupKey < out[j].LineupKey
	})
	if len(out) > maxLineups {
		out = out[:maxLineups]
	}
	return out
}
