package insights

import (
	"cmp"
	"slices"
	"sort"

	"github.com/pable/bg-insights/internal/model"
)

const (
	maxCores  = 20
	maxGuests = 10
)

// DetectCores finds every coreSize-player group that co-occurs in at least
// minMatches matches. With teamOnly set, members must share a team in a match
// for that match to count. Results are sorted by match count (then key) and
// capped at maxCores.
func DetectCores(h *History, coreSize, minMatches int, teamOnly bool) []model.RawCore {
	type coreAccum struct {
		keys    []model.PlayerKey
		matches map[int64]struct{}
	}
	accums := make(map[string]*coreAccum)

	add := func(group []*model.MatchPlayer, matchID int64) {
		keys := sortedKeys(playerKeys(group))
		combinations(keys, coreSize, func(combo []model.PlayerKey) {
			k := groupKey(combo)
			a, ok := accums[k]
			if !ok {
				a = &coreAccum{keys: slices.Clone(combo), matches: make(map[int64]struct{})}
				accums[k] = a
			}
			a.matches[matchID] = struct{}{}
		})
	}

	for _, m := range h.Matches {
		if !teamOnly {
			add(m.Players, m.MatchID)
			continue
		}
		for _, team := range teamGroups(m) {
			add(team.players, m.MatchID)
		}
	}

	out := make([]model.RawCore, 0)
	for k, a := range accums {
		if len(a.matches) < minMatches {
			continue
		}
		ids := make([]int64, 0, len(a.matches))
		for id := range a.matches {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		out = append(out, model.RawCore{Key: k, PlayerKeys: a.keys, MatchIDs: ids})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].MatchIDs) != len(out[j].MatchIDs) {
			return len(out[i].MatchIDs) > len(out[j].MatchIDs)
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > maxCores {
		out = out[:maxCores]
	}
	return out
}

type teamGroup struct {
	teamID  int64
	name    string
	players []*model.MatchPlayer
}

// teamGroups splits a match's players by team id in first-seen order.
// Players without a team are left out.
func teamGroups(m *model.MatchInsight) []*teamGroup {
	var groups []*teamGroup
	byID := make(map[int64]*teamGroup)
	for _, p := range m.Players {
		if p.TeamID == nil {
			continue
		}
		g, ok := byID[*p.TeamID]
		if !ok {
			g = &teamGroup{teamID: *p.TeamID, name: p.TeamName}
			byID[*p.TeamID] = g
			groups = append(groups, g)
		}
		g.players = append(g.players, p)
	}
	return groups
}

type memberAccum struct {
	wins, matches                int
	placementSum, placementCount int
}

func (a memberAccum) winRate() float64 {
	return rate(a.wins, a.matches)
}

type deltaAccum struct {
	above, total   int
	placementSum   float64
	placementCount int
}

func (d *deltaAccum) record(above bool, placementDelta *int) {
	d.total++
	if above {
		d.above++
	}
	if placementDelta != nil {
		d.placementSum += float64(*placementDelta)
		d.placementCount++
	}
}

type pairAccum struct {
	deltaAccum
	scoreSum   float64
	scoreCount int
	buckets    map[string]*deltaAccum
}

// ComputeCoreStats derives ordering, stability, guests and head-to-head
// statistics for a detected core. Members or matches missing from the history
// are skipped rather than treated as errors.
func ComputeCoreStats(raw model.RawCore, h *History) model.DetectedCore {
	size := len(raw.PlayerKeys)
	refs := lookupRefs(raw.PlayerKeys, raw.MatchIDs, h)

	isMember := make(map[model.PlayerKey]int, size)
	for i, k := range raw.PlayerKeys {
		isMember[k] = i
	}

	members := make([]memberAccum, size)
	pairs := make(map[[2]int]*pairAccum)
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			pairs[[2]int{i, j}] = &pairAccum{buckets: make(map[string]*deltaAccum)}
		}
	}
	type guestAccum struct {
		ref   model.PlayerRef
		count int
	}
	guests := make(map[model.PlayerKey]*guestAccum)
	stable := 0

	for _, id := range raw.MatchIDs {
		m, ok := h.Match(id)
		if !ok {
			continue
		}

		present := make([]*model.MatchPlayer, size)
		guestCount := 0
		for _, p := range m.Players {
			if i, ok := isMember[p.Key]; ok {
				present[i] = p
				continue
			}
			guestCount++
			g, ok := guests[p.Key]
			if !ok {
				g = &guestAccum{ref: model.RefOf(p)}
				guests[p.Key] = g
			}
			g.count++
		}
		if guestCount == 0 && len(m.Players) == size {
			stable++
		}

		// score deltas count in every match; rankings skip coop
		for ij, acc := range pairs {
			a, b := present[ij[0]], present[ij[1]]
			if a != nil && b != nil && a.Score != nil && b.Score != nil {
				acc.scoreSum += float64(*a.Score - *b.Score)
				acc.scoreCount++
			}
		}

		if m.IsCoop {
			continue
		}

		for i, p := range present {
			if p == nil {
				continue
			}
			members[i].matches++
			if p.Winner {
				members[i].wins++
			}
			if !m.IsManual() && p.Placement > 0 {
				members[i].placementSum += p.Placement
				members[i].placementCount++
			}
		}

		bucket := playerCountBucket(m.PlayerCount)
		for ij, acc := range pairs {
			a, b := present[ij[0]], present[ij[1]]
			if a == nil || b == nil {
				continue
			}

			var above bool
			var placementDelta *int
			if m.IsManual() {
				if a.Winner == b.Winner {
					continue
				}
				above = a.Winner
			} else {
				if a.Placement <= 0 || b.Placement <= 0 {
					continue
				}
				above = a.Placement < b.Placement
				d := a.Placement - b.Placement
				placementDelta = &d
			}
			acc.record(above, placementDelta)
			ba, ok := acc.buckets[bucket]
			if !ok {
				ba = &deltaAccum{}
				acc.buckets[bucket] = ba
			}
			ba.record(above, placementDelta)
		}
	}

	core := model.DetectedCore{
		CoreKey:       raw.Key,
		Players:       refs,
		MatchCount:    len(raw.MatchIDs),
		MatchIDs:      slices.Clone(raw.MatchIDs),
		Stability:     rate(stable, len(raw.MatchIDs)),
		GroupOrdering: groupOrdering(refs, members),
		Guests:        make([]model.GuestPlayer, 0, len(guests)),
		Pairwise:      make([]model.PairwiseStat, 0, len(pairs)),
	}

	for _, g := range guests {
		core.Guests = append(core.Guests, model.GuestPlayer{Player: g.ref, Count: g.count})
	}
	sort.Slice(core.Guests, func(i, j int) bool {
		if core.Guests[i].Count != core.Guests[j].Count {
			return core.Guests[i].Count > core.Guests[j].Count
		}
		return core.Guests[i].Player.Key.Compare(core.Guests[j].Player.Key) < 0
	})
	if len(core.Guests) > maxGuests {
		core.Guests = core.Guests[:maxGuests]
	}

	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			acc := pairs[[2]int{i, j}]
			core.Pairwise = append(core.Pairwise, pairwiseStat(refs[i], refs[j], acc))
		}
	}
	return core
}

func pairwiseStat(a, b model.PlayerRef, acc *pairAccum) model.PairwiseStat {
	ps := model.PairwiseStat{
		PlayerA:           a,
		PlayerB:           b,
		FinishesAboveRate: rate(acc.above, acc.total),
		AvgPlacementDelta: mean(acc.placementSum, acc.placementCount),
		AvgScoreDelta:     mean(acc.scoreSum, acc.scoreCount),
		MatchCount:        acc.total,
		Confidence:        confidenceFor(acc.total),
		ByPlayerCount:     make([]model.PlayerCountBucket, 0, len(acc.buckets)),
	}
	for bucket, ba := range acc.buckets {
		ps.ByPlayerCount = append(ps.ByPlayerCount, model.PlayerCountBucket{
			Bucket:            bucket,
			MatchCount:        ba.total,
			FinishesAboveRate: rate(ba.above, ba.total),
			AvgPlacementDelta: mean(ba.placementSum, ba.placementCount),
		})
	}
	slices.SortFunc(ps.ByPlayerCount, func(x, y model.PlayerCountBucket) int {
		return cmp.Compare(bucketOrder(x.Bucket), bucketOrder(y.Bucket))
	})
	return ps
}

// groupOrdering ranks members by average placement when anyone in the core
// has placement data, otherwise by win rate. Members without placements rank
// after those with them; placement ties fall back to win rate.
func groupOrdering(refs []model.PlayerRef, members []memberAccum) []model.GroupRank {
	hasPlacement := false
	for _, a := range members {
		if a.placementCount > 0 {
			hasPlacement = true
			break
		}
	}

	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, b := members[order[x]], members[order[y]]
		if hasPlacement {
			aHas, bHas := a.placementCount > 0, b.placementCount > 0
			if aHas != bHas {
				return aHas
			}
			if aHas {
				aAvg := float64(a.placementSum) / float64(a.placementCount)
				bAvg := float64(b.placementSum) / float64(b.placementCount)
				if aAvg != bAvg {
					return aAvg < bAvg
				}
			}
		}
		return a.winRate() > b.winRate()
	})

	out := make([]model.GroupRank, len(order))
	for rank, i := range order {
		a := members[i]
		out[rank] = model.GroupRank{
			Player:         refs[i],
			Rank:           rank + 1,
			AvgPlacement:   mean(float64(a.placementSum), a.placementCount),
			PlacementCount: a.placementCount,
			Wins:           a.wins,
			Matches:        a.matches,
			WinRate:        a.winRate(),
		}
	}
	return out
}

// lookupRefs restores display identities for keys from the first listed
// match that contains each player.
func lookupRefs(keys []model.PlayerKey, matchIDs []int64, h *History) []model.PlayerRef {
	refs := make([]model.PlayerRef, len(keys))
	for i, k := range keys {
		refs[i] = model.PlayerRef{Key: k, PlayerID: k.ID, SourceType: k.Source}
		for _, id := range matchIDs {
			m, ok := h.Match(id)
			if !ok {
				continue
			}
			if p, ok := m.Player(k); ok {
				refs[i] = model.RefOf(p)
				break
			}
		}
	}
	return refs
}

// detectAndCompute runs detection and statistics for one size and variant.
func detectAndCompute(h *History, size, minMatches int, teamOnly bool) []model.DetectedCore {
	raws := DetectCores(h, size, minMatches, teamOnly)
	out := make([]model.DetectedCore, 0, len(raws))
	for _, raw := range raws {
		out = append(out, ComputeCoreStats(raw, h))
	}
	return out
}
