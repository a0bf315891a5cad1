package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/bg-insights/internal/model"
)

const (
	mayor   int64 = 10
	sheriff int64 = 11
)

// Mayor is held by alice and bob together in four team matches and by alice
// alone in two more.
func mayorHistory() *History {
	var rows []model.InsightRow
	var roles []model.RoleRow
	for i := int64(1); i <= 4; i++ {
		won := i <= 2
		rows = append(rows, match(i, int(i), false, scored,
			seat{id: alice, team: 1, win: won, place: 1, score: intp(10)},
			seat{id: bob, team: 1, win: won, place: 2},
			seat{id: carol, team: 2, win: !won, place: 3},
			seat{id: dave, team: 2, win: !won, place: 4})...)
		roles = append(roles, roleRow(i, alice, mayor, "Mayor"), roleRow(i, bob, mayor, "Mayor"))
	}
	for i := int64(5); i <= 6; i++ {
		rows = append(rows, match(i, int(i), false, scored,
			seat{id: alice, win: i == 5, place: 2, score: intp(20)},
			seat{id: carol, win: i == 6, place: 1})...)
		roles = append(roles, roleRow(i, alice, mayor, "Mayor"))
	}
	return GroupRows(rows, roles)
}

func TestRoleSummaries_ClassificationBreakdown(t *testing.T) {
	h := mayorHistory()
	summaries := RoleSummaries(h, roleCatalog(h))

	require.Len(t, summaries, 1)
	rs := summaries[0]
	assert.Equal(t, "Mayor", rs.Role.Name)
	assert.Equal(t, 6, rs.MatchCount)
	assert.Equal(t, model.ClassificationBreakdown{Team: 4, Unique: 2, Shared: 0}, rs.Breakdown)
	assert.Equal(t, model.RoleTeam, rs.Classification)
	assert.Equal(t, 10, rs.Assignments)
	assert.Equal(t, 5, rs.Wins)
	assert.InDelta(t, 0.5, rs.WinRate, 1e-9)
}

func TestClassifyRole(t *testing.T) {
	one, two := int64(1), int64(2)
	a := &model.MatchPlayer{Key: key(alice), TeamID: &one}
	b := &model.MatchPlayer{Key: key(bob), TeamID: &one}
	c := &model.MatchPlayer{Key: key(carol), TeamID: &two}
	noTeamA := &model.MatchPlayer{Key: key(alice)}
	noTeamB := &model.MatchPlayer{Key: key(bob)}

	assert.Equal(t, model.RoleUnique, classifyRole([]*model.MatchPlayer{a}))
	assert.Equal(t, model.RoleTeam, classifyRole([]*model.MatchPlayer{a, b}))
	assert.Equal(t, model.RoleShared, classifyRole([]*model.MatchPlayer{a, b, c}))
	assert.Equal(t, model.RoleShared, classifyRole([]*model.MatchPlayer{noTeamA, noTeamB}))
}

func TestPredominant_TiesPreferTeamThenShared(t *testing.T) {
	assert.Equal(t, model.RoleTeam, predominant(model.ClassificationBreakdown{Unique: 1, Team: 1, Shared: 1}))
	assert.Equal(t, model.RoleShared, predominant(model.ClassificationBreakdown{Unique: 2, Shared: 2}))
	assert.Equal(t, model.RoleUnique, predominant(model.ClassificationBreakdown{Unique: 3, Team: 2}))
	assert.Equal(t, model.RoleTeam, predominant(model.ClassificationBreakdown{}))
}

func findPresence(t *testing.T, effects []model.RolePresenceEffect, roleID int64, k model.PlayerKey) model.PlayerPresenceEffect {
	t.Helper()
	for _, re := range effects {
		if re.Role.ID != roleID {
			continue
		}
		for _, pe := range re.Players {
			if pe.Player.Key == k {
				return pe
			}
		}
	}
	t.Fatalf("no presence effect for role %d player %s", roleID, k)
	return model.PlayerPresenceEffect{}
}

func TestRolePresenceEffects(t *testing.T) {
	var rows []model.InsightRow
	var roles []model.RoleRow
	for i := int64(1); i <= 5; i++ {
		won := i != 3
		rows = append(rows, match(i, int(i), false, scored,
			seat{id: alice, team: 1, win: won},
			seat{id: bob, team: 1, win: won},
			seat{id: carol, team: 2, win: !won})...)
		roles = append(roles, roleRow(i, alice, sheriff, "Sheriff"), roleRow(i, bob, sheriff, "Sheriff"))
	}
	h := GroupRows(rows, roles)
	effects := RolePresenceEffects(h, roleCatalog(h))

	a := findPresence(t, effects, sheriff, key(alice))
	require.NotNil(t, a.Self)
	assert.Equal(t, 5, a.Self.Matches)
	assert.InDelta(t, 0.8, a.Self.WinRate, 1e-9)
	require.NotNil(t, a.SameTeam, "holding the role does not clear a teammate also holding it")
	assert.Equal(t, 4, a.SameTeam.Wins)
	assert.Nil(t, a.OpposingTeam)

	c := findPresence(t, effects, sheriff, key(carol))
	assert.Nil(t, c.Self)
	assert.Nil(t, c.SameTeam)
	require.NotNil(t, c.OpposingTeam)
	assert.InDelta(t, 0.2, c.OpposingTeam.WinRate, 1e-9)
}

func TestRolePresenceEffects_BelowFloorAndCoopSkipped(t *testing.T) {
	var rows []model.InsightRow
	var roles []model.RoleRow
	for i := int64(1); i <= 8; i++ {
		coop := i > 4
		rows = append(rows, match(i, int(i), coop, scored,
			seat{id: alice, team: 1, win: true}, seat{id: bob, team: 2})...)
		roles = append(roles, roleRow(i, alice, sheriff, "Sheriff"))
	}
	h := GroupRows(rows, roles)

	effects := RolePresenceEffects(h, roleCatalog(h))
	assert.NotNil(t, effects)
	assert.Empty(t, effects, "four competitive matches stay under the floor")
}

func TestRoleToRoleEffects(t *testing.T) {
	var rows []model.InsightRow
	var roles []model.RoleRow
	for i := int64(1); i <= 5; i++ {
		aliceWins := i != 5
		rows = append(rows, match(i, int(i), false, scored,
			seat{id: alice, team: 1, win: aliceWins},
			seat{id: bob, team: 2, win: !aliceWins})...)
		roles = append(roles, roleRow(i, alice, mayor, "Mayor"), roleRow(i, bob, sheriff, "Sheriff"))
	}
	h := GroupRows(rows, roles)
	effects := RoleToRoleEffects(h, roleCatalog(h))

	require.Len(t, effects, 2)
	byPair := make(map[[2]int64]model.RoleRoleEffect)
	for _, e := range effects {
		byPair[[2]int64{e.Role.ID, e.Other.ID}] = e
	}

	mVsS := byPair[[2]int64{mayor, sheriff}]
	assert.Nil(t, mVsS.SamePlayer)
	assert.Nil(t, mVsS.SameTeam)
	require.NotNil(t, mVsS.OpposingTeam)
	assert.Equal(t, 5, mVsS.OpposingTeam.Matches)
	assert.InDelta(t, 0.8, mVsS.OpposingTeam.WinRate, 1e-9)

	sVsM := byPair[[2]int64{sheriff, mayor}]
	require.NotNil(t, sVsM.OpposingTeam)
	assert.InDelta(t, 0.2, sVsM.OpposingTeam.WinRate, 1e-9)
}

func TestPlayerRolePerformances(t *testing.T) {
	perf := PlayerRolePerformances(mayorHistory())

	require.Len(t, perf, 2)
	assert.Equal(t, key(alice), perf[0].Player.Key, "user first")
	assert.Equal(t, 6, perf[0].TotalMatches)
	require.Len(t, perf[0].Roles, 1)
	mayorPerf := perf[0].Roles[0]
	assert.Equal(t, 6, mayorPerf.MatchCount)
	assert.Equal(t, 3, mayorPerf.Wins)
	require.NotNil(t, mayorPerf.AvgPlacement)
	assert.InDelta(t, 8.0/6.0, *mayorPerf.AvgPlacement, 1e-9)
	require.NotNil(t, mayorPerf.AvgScore)
	assert.InDelta(t, 80.0/6.0, *mayorPerf.AvgScore, 1e-9)

	assert.Equal(t, key(bob), perf[1].Player.Key)
	assert.Nil(t, perf[1].Roles[0].AvgScore)
}

func TestBuildRoleInsights_NilWithoutRoles(t *testing.T) {
	h := history(match(1, 0, false, scored, seat{id: alice, place: 1}, seat{id: bob, place: 2}))
	assert.Nil(t, BuildRoleInsights(h))
	assert.NotNil(t, BuildRoleInsights(mayorHistory()))
}

func TestRolePresenceEffects_CapsAtTenMostDeviant(t *testing.T) {
	var rows []model.InsightRow
	var roles []model.RoleRow
	id := int64(0)
	// alice holds the role; 100..108 always lose to her, 110..112 take two of five
	for _, opp := range []int64{100, 101, 102, 103, 104, 105, 106, 107, 108, 110, 111, 112} {
		for i := 0; i < 5; i++ {
			id++
			oppWins := opp >= 110 && i < 2
			rows = append(rows, match(id, int(id), false, scored,
				seat{id: alice, team: 1, win: !oppWins}, seat{id: opp, team: 2, win: oppWins})...)
			roles = append(roles, roleRow(id, alice, sheriff, "Sheriff"))
		}
	}
	h := GroupRows(rows, roles)
	effects := RolePresenceEffects(h, roleCatalog(h))

	require.Len(t, effects, 1)
	players := effects[0].Players
	require.Len(t, players, maxRoleEffects)
	for i, p := range players[:9] {
		assert.Equal(t, key(100+int64(i)), p.Player.Key)
		require.NotNil(t, p.OpposingTeam)
		assert.Equal(t, 0.0, p.OpposingTeam.WinRate)
	}
	assert.Equal(t, key(alice), players[9].Player.Key)
	require.NotNil(t, players[9].Self)
	assert.InDelta(t, 0.9, players[9].Self.WinRate, 1e-9)
}

func TestRoleToRoleEffects_CapsAtTenMostDeviant(t *testing.T) {
	const (
		roleA int64 = 20
		roleB int64 = 21
		roleC int64 = 22
		roleD int64 = 23
	)
	// four solo teams; alice wins 7 of 10, bob 2, carol 1, dave none
	winner := []int64{alice, alice, alice, alice, alice, alice, alice, bob, bob, carol}
	var rows []model.InsightRow
	var roles []model.RoleRow
	for i, w := range winner {
		id := int64(i + 1)
		rows = append(rows, match(id, i, false, scored,
			seat{id: alice, team: 1, win: w == alice},
			seat{id: bob, team: 2, win: w == bob},
			seat{id: carol, team: 3, win: w == carol},
			seat{id: dave, team: 4, win: w == dave})...)
		roles = append(roles,
			roleRow(id, alice, roleA, "Role A"),
			roleRow(id, bob, roleB, "Role B"),
			roleRow(id, carol, roleC, "Role C"),
			roleRow(id, dave, roleD, "Role D"))
	}
	h := GroupRows(rows, roles)
	effects := RoleToRoleEffects(h, roleCatalog(h))

	// twelve ordered role pairs qualify
	require.Len(t, effects, maxRoleEffects)
	wantHolders := []int64{roleD, roleD, roleD, roleC, roleC, roleC, roleB, roleB, roleB, roleA}
	for i, e := range effects {
		assert.Equal(t, wantHolders[i], e.Role.ID, "effect %d", i)
		require.NotNil(t, e.OpposingTeam)
		assert.Equal(t, 10, e.OpposingTeam.Matches)
	}
	last := effects[maxRoleEffects-1]
	assert.Equal(t, roleB, last.Other.ID, "catalog order breaks deviation ties")
}
