package insights

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/bg-insights/internal/model"
)

func TestCombinations(t *testing.T) {
	keys := []model.PlayerKey{key(1), key(2), key(3), key(4)}
	var got []string
	combinations(keys, 2, func(c []model.PlayerKey) { got = append(got, groupKey(c)) })
	assert.Equal(t, []string{
		"original-1|original-2", "original-1|original-3", "original-1|original-4",
		"original-2|original-3", "original-2|original-4", "original-3|original-4",
	}, got)

	n := 0
	combinations(keys, 5, func([]model.PlayerKey) { n++ })
	assert.Zero(t, n)
}

func TestDetectCores_ThresholdAndCoOccurrence(t *testing.T) {
	h := history(
		match(1, 0, false, scored, seat{id: alice, place: 1}, seat{id: bob, place: 2}, seat{id: carol, place: 3}),
		match(2, 1, false, scored, seat{id: alice, place: 2}, seat{id: bob, place: 1}),
		match(3, 2, false, scored, seat{id: alice, place: 1}, seat{id: carol, place: 2}),
		match(4, 3, false, scored, seat{id: alice, place: 1}, seat{id: bob, place: 2}, seat{id: dave, place: 3}),
	)

	for _, size := range []int{2, 3, 4} {
		for _, threshold := range []int{1, 2, 3} {
			for _, raw := range DetectCores(h, size, threshold, false) {
				require.GreaterOrEqual(t, len(raw.MatchIDs), threshold)
				require.Len(t, raw.PlayerKeys, size)
				for _, id := range raw.MatchIDs {
					m, ok := h.Match(id)
					require.True(t, ok)
					for _, k := range raw.PlayerKeys {
						_, present := m.Player(k)
						assert.True(t, present, "core %s missing %s in match %d", raw.Key, k, id)
					}
				}
			}
		}
	}

	pairs := DetectCores(h, 2, 2, false)
	require.Len(t, pairs, 2)
	assert.Equal(t, "original-1|original-2", pairs[0].Key)
	assert.Equal(t, []int64{1, 2, 4}, pairs[0].MatchIDs)
	assert.Equal(t, "original-1|original-3", pairs[1].Key)
	assert.Empty(t, DetectCores(h, 4, 2, false))
}

func TestDetectCores_DeterministicUnderRowOrder(t *testing.T) {
	rows := flatten(
		match(1, 0, false, scored, seat{id: alice, place: 1}, seat{id: bob, place: 2}, seat{id: carol, place: 3}),
		match(2, 1, false, scored, seat{id: carol, place: 1}, seat{id: bob, place: 2}, seat{id: alice, place: 3}),
		match(3, 2, false, scored, seat{id: bob, place: 1}, seat{id: alice, place: 2}),
	)
	want := DetectCores(GroupRows(rows, nil), 2, 2, false)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]model.InsightRow(nil), rows...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, DetectCores(GroupRows(shuffled, nil), 2, 2, false))
	}
}

func TestDetectCores_TeamOnly(t *testing.T) {
	h := history(
		match(1, 0, false, scored, seat{id: alice, team: 1, win: true}, seat{id: bob, team: 1, win: true}, seat{id: carol, team: 2}, seat{id: dave, team: 2}),
		match(2, 1, false, scored, seat{id: alice, team: 1}, seat{id: bob, team: 1}, seat{id: carol, team: 2, win: true}, seat{id: dave, team: 2, win: true}),
		match(3, 2, false, scored, seat{id: alice, team: 1}, seat{id: carol, team: 1}, seat{id: bob, team: 2}, seat{id: dave}),
	)
	cores := DetectCores(h, 2, 2, true)
	keys := make([]string, len(cores))
	for i, c := range cores {
		keys[i] = c.Key
	}
	assert.Equal(t, []string{"original-1|original-2", "original-3|original-4"}, keys)

	anySide := DetectCores(h, 2, 3, false)
	assert.Len(t, anySide, 6, "ignoring teams, all four players met in every match")
}

func TestDetectCores_CapsAtTwenty(t *testing.T) {
	var sets [][]model.InsightRow
	for m := int64(1); m <= 2; m++ {
		var seats []seat
		for p := int64(1); p <= 8; p++ {
			seats = append(seats, seat{id: p, place: int(p)})
		}
		sets = append(sets, match(m, int(m), false, scored, seats...))
	}
	// C(8,2) = 28 pairs all with two matches
	assert.Len(t, DetectCores(history(sets...), 2, 2, false), maxCores)
}

// Two players, three matches, placements [1,2], [1,2], [2,1].
func TestComputeCoreStats_HeadToHead(t *testing.T) {
	h := history(
		match(1, 0, false, scored, seat{id: alice, win: true, place: 1, score: intp(30)}, seat{id: bob, place: 2, score: intp(20)}),
		match(2, 1, false, scored, seat{id: alice, win: true, place: 1, score: intp(25)}, seat{id: bob, place: 2, score: intp(24)}),
		match(3, 2, false, scored, seat{id: alice, place: 2, score: intp(10)}, seat{id: bob, win: true, place: 1}),
	)
	raws := DetectCores(h, 2, 2, false)
	require.Len(t, raws, 1)
	core := ComputeCoreStats(raws[0], h)

	require.Len(t, core.Pairwise, 1)
	ps := core.Pairwise[0]
	assert.Equal(t, key(alice), ps.PlayerA.Key)
	assert.Equal(t, "Bob", ps.PlayerB.Name)
	assert.InDelta(t, 2.0/3.0, ps.FinishesAboveRate, 1e-9)
	require.NotNil(t, ps.AvgPlacementDelta)
	assert.InDelta(t, -1.0/3.0, *ps.AvgPlacementDelta, 1e-9)
	require.NotNil(t, ps.AvgScoreDelta)
	assert.InDelta(t, 5.5, *ps.AvgScoreDelta, 1e-9, "only matches where both scored count")
	assert.Equal(t, 3, ps.MatchCount)
	// fewer than 3 comparisons is low, so exactly 3 is medium
	assert.Equal(t, model.ConfidenceMedium, ps.Confidence)
	require.Len(t, ps.ByPlayerCount, 1)
	assert.Equal(t, "2p", ps.ByPlayerCount[0].Bucket)

	assert.Equal(t, 1.0, core.Stability)
	assert.Empty(t, core.Guests)
	require.Len(t, core.GroupOrdering, 2)
	assert.Equal(t, key(alice), core.GroupOrdering[0].Player.Key)
	assert.Equal(t, 1, core.GroupOrdering[0].Rank)
	assert.InDelta(t, 4.0/3.0, *core.GroupOrdering[0].AvgPlacement, 1e-9)
}

func TestComputeCoreStats_CoopManualFallsBackToWinRate(t *testing.T) {
	coop := func(id int64, win bool) []model.InsightRow {
		return match(id, int(id), true, model.WinConditionManual,
			seat{id: dave, win: win}, seat{id: carol, win: win}, seat{id: bob, win: win}, seat{id: alice, win: win})
	}
	h := history(coop(1, true), coop(2, false), coop(3, true))
	raws := DetectCores(h, 4, 2, false)
	require.Len(t, raws, 1)
	core := ComputeCoreStats(raws[0], h)

	require.Len(t, core.GroupOrdering, 4)
	for i, gr := range core.GroupOrdering {
		assert.Equal(t, i+1, gr.Rank)
		assert.Equal(t, key(int64(i+1)), gr.Player.Key, "ties keep core key order")
		assert.Nil(t, gr.AvgPlacement)
		assert.Zero(t, gr.Matches, "coop matches are not accumulated")
	}
	for _, ps := range core.Pairwise {
		assert.Zero(t, ps.MatchCount)
		assert.Equal(t, 0.0, ps.FinishesAboveRate)
		assert.Equal(t, model.ConfidenceLow, ps.Confidence)
	}
	assert.Equal(t, 1.0, core.Stability)
}

func TestComputeCoreStats_CoopScoresStillCountForScoreDelta(t *testing.T) {
	h := history(
		match(1, 0, true, scored, seat{id: alice, win: true, place: 1, score: intp(40)}, seat{id: bob, win: true, place: 2, score: intp(30)}),
		match(2, 1, true, scored, seat{id: alice, place: 1, score: intp(12)}, seat{id: bob, place: 2, score: intp(18)}),
		match(3, 2, false, scored, seat{id: alice, place: 2, score: intp(20)}, seat{id: bob, win: true, place: 1, score: intp(22)}),
	)
	raws := DetectCores(h, 2, 2, false)
	require.Len(t, raws, 1)
	ps := ComputeCoreStats(raws[0], h).Pairwise[0]

	assert.Equal(t, 1, ps.MatchCount, "only the competitive match is a comparison")
	assert.Equal(t, 0.0, ps.FinishesAboveRate)
	require.NotNil(t, ps.AvgScoreDelta)
	assert.InDelta(t, 2.0/3.0, *ps.AvgScoreDelta, 1e-9, "(10 - 6 - 2) / 3")
}

func TestComputeCoreStats_GuestsCapAtTen(t *testing.T) {
	var sets [][]model.InsightRow
	id := int64(0)
	add := func(guest int64) {
		id++
		sets = append(sets, match(id, int(id), false, scored,
			seat{id: alice, place: 1}, seat{id: bob, place: 2}, seat{id: guest, place: 3}))
	}
	// ten regular guests twice each, four one-off guests
	for g := int64(100); g < 110; g++ {
		add(g)
		add(g)
	}
	for g := int64(110); g < 114; g++ {
		add(g)
	}
	h := history(sets...)

	var core model.DetectedCore
	for _, raw := range DetectCores(h, 2, 2, false) {
		if raw.Key == "original-1|original-2" {
			core = ComputeCoreStats(raw, h)
		}
	}
	require.Equal(t, 24, core.MatchCount)
	require.Len(t, core.Guests, maxGuests)
	for i, g := range core.Guests {
		assert.Equal(t, 2, g.Count, "guest %d", i)
		assert.Equal(t, key(100+int64(i)), g.Player.Key, "count ties ordered by key")
	}
	assert.Equal(t, 0.0, core.Stability)
}

func TestComputeCoreStats_ManualWinConditionUsesWinnerFlag(t *testing.T) {
	h := history(
		match(1, 0, false, model.WinConditionManual, seat{id: alice, win: true}, seat{id: bob}, seat{id: carol}),
		match(2, 1, false, model.WinConditionManual, seat{id: alice}, seat{id: bob, win: true}),
		match(3, 2, false, model.WinConditionManual, seat{id: alice, win: true}, seat{id: bob, win: true}),
		match(4, 3, false, model.WinConditionManual, seat{id: alice}, seat{id: bob}),
	)
	raws := DetectCores(h, 2, 2, false)
	var ab model.RawCore
	for _, r := range raws {
		if r.Key == "original-1|original-2" {
			ab = r
		}
	}
	require.NotEmpty(t, ab.Key)
	core := ComputeCoreStats(ab, h)
	ps := core.Pairwise[0]

	assert.Equal(t, 2, ps.MatchCount, "ties are excluded")
	assert.InDelta(t, 0.5, ps.FinishesAboveRate, 1e-9)
	assert.Nil(t, ps.AvgPlacementDelta)
	assert.Nil(t, ps.AvgScoreDelta)

	// win-rate fallback: alice 2/4, bob 2/4, so key order decides
	assert.Equal(t, key(alice), core.GroupOrdering[0].Player.Key)
	assert.Equal(t, 0.75, core.Stability)
	require.Len(t, core.Guests, 1)
	assert.Equal(t, "Carol", core.Guests[0].Player.Name)
	assert.Equal(t, 1, core.Guests[0].Count)
}

func TestComputeCoreStats_PlayersWithoutPlacementRankLast(t *testing.T) {
	h := history(
		match(1, 0, false, scored, seat{id: alice, win: true}, seat{id: bob, place: 2}, seat{id: carol, place: 1}),
		match(2, 1, false, scored, seat{id: alice, win: true}, seat{id: bob, place: 1}, seat{id: carol, place: 2}),
		match(3, 2, false, scored, seat{id: alice, win: true}, seat{id: bob, place: 1, win: true}, seat{id: carol, place: 2}),
	)
	raws := DetectCores(h, 3, 2, false)
	require.Len(t, raws, 1)
	core := ComputeCoreStats(raws[0], h)

	got := []model.PlayerKey{}
	for _, gr := range core.GroupOrdering {
		got = append(got, gr.Player.Key)
	}
	// bob averages 4/3, carol 5/3; alice has no placements
	assert.Equal(t, []model.PlayerKey{key(bob), key(carol), key(alice)}, got)
}

func TestComputeCoreStats_PlacementTieBrokenByWinRate(t *testing.T) {
	h := history(
		match(1, 0, false, scored, seat{id: alice, place: 1}, seat{id: bob, place: 2, win: true}),
		match(2, 1, false, scored, seat{id: alice, place: 2}, seat{id: bob, place: 1}),
	)
	core := ComputeCoreStats(DetectCores(h, 2, 2, false)[0], h)
	assert.Equal(t, key(bob), core.GroupOrdering[0].Player.Key)
	assert.Equal(t, key(alice), core.GroupOrdering[1].Player.Key)
}

func TestComputeCoreStats_BucketsSumToTotal(t *testing.T) {
	var sets [][]model.InsightRow
	for i := int64(1); i <= 12; i++ {
		seats := []seat{{id: alice, place: 1 + int(i%2)}, {id: bob, place: 2 - int(i%2)}}
		for extra := int64(0); extra < i%6; extra++ {
			seats = append(seats, seat{id: 10 + extra, place: 3 + int(extra)})
		}
		sets = append(sets, match(i, int(i), false, scored, seats...))
	}
	h := history(sets...)
	for _, raw := range DetectCores(h, 2, 2, false) {
		core := ComputeCoreStats(raw, h)
		for _, ps := range core.Pairwise {
			sum := 0
			for _, b := range ps.ByPlayerCount {
				sum += b.MatchCount
			}
			assert.Equal(t, ps.MatchCount, sum, "pair %s", core.CoreKey)
		}
	}

	ab := ComputeCoreStats(DetectCores(h, 2, 2, false)[0], h)
	assert.Equal(t, model.ConfidenceHigh, ab.Pairwise[0].Confidence)
	buckets := []string{}
	for _, b := range ab.Pairwise[0].ByPlayerCount {
		buckets = append(buckets, b.Bucket)
	}
	assert.Equal(t, []string{"2p", "3p", "4p", "5-6p", "7+p"}, buckets)
}

func TestComputeCoreStats_MissingMatchIsSkipped(t *testing.T) {
	h := history(
		match(1, 0, false, scored, seat{id: alice, place: 1}, seat{id: bob, place: 2}),
	)
	raw := model.RawCore{
		Key:        "original-1|original-2",
		PlayerKeys: []model.PlayerKey{key(alice), key(bob)},
		MatchIDs:   []int64{1, 404},
	}
	core := ComputeCoreStats(raw, h)
	assert.Equal(t, 2, core.MatchCount)
	assert.Equal(t, 1, core.Pairwise[0].MatchCount)
	assert.Equal(t, 0.5, core.Stability)
}

func TestPlayerCountBucket(t *testing.T) {
	cases := map[int]string{2: "2p", 3: "3p", 4: "4p", 5: "5-6p", 6: "5-6p", 7: "7+p", 12: "7+p"}
	for n, want := range cases {
		assert.Equal(t, want, playerCountBucket(n), "count %d", n)
	}
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, model.ConfidenceLow, confidenceFor(0))
	assert.Equal(t, model.ConfidenceLow, confidenceFor(2))
	assert.Equal(t, model.ConfidenceMedium, confidenceFor(3))
	assert.Equal(t, model.ConfidenceMedium, confidenceFor(10))
	assert.Equal(t, model.ConfidenceHigh, confidenceFor(11))
}
