package insights

import (
	"github.com/pable/bg-insights/internal/model"
)

// Rivalries need at least this many head-to-head comparisons, and team
// highlights at least this many team matches.
const (
	minRivalComparisons = 3
	minTeamCoreMatches  = 3
	minGroupSize        = 3
)

// BuildSummary distills already computed sections into highlights.
func BuildSummary(dist model.Distribution, cores model.CoresBySize, lineups []model.FrequentLineup, teams *model.TeamInsights) model.Summary {
	s := model.Summary{}
	for _, e := range dist.Game {
		s.TotalMatchesAnalyzed += e.MatchCount
	}

	if e, ok := maxBy(dist.Game, func(a, b model.PlayerCountEntry) bool { return a.MatchCount > b.MatchCount }); ok {
		s.MostCommonPlayerCount = &e
	}
	s.UserPlayerCount = userPlayerCount(dist.PerPlayer)
	s.TopRival = findTopRival(cores.Pairs)

	byMatches := func(a, b model.DetectedCore) bool { return a.MatchCount > b.MatchCount }
	if c, ok := maxBy(cores.Pairs, byMatches); ok {
		s.TopPair = &model.CoreHighlight{CoreKey: c.CoreKey, Players: c.Players, MatchCount: c.MatchCount}
	}
	if c, ok := maxBy(cores.Trios, byMatches); ok {
		s.TopTrio = &model.CoreHighlight{CoreKey: c.CoreKey, Players: c.Players, MatchCount: c.MatchCount}
	}

	for _, l := range lineups {
		if len(l.Players) >= minGroupSize {
			s.TopGroup = &model.CoreHighlight{CoreKey: l.LineupKey, Players: l.Players, MatchCount: l.MatchCount}
			break
		}
	}

	if teams != nil {
		s.BestTeamCore = findBestTeamCore(teams.Cores.Pairs)
	}
	return s
}

func userPlayerCount(perPlayer []model.PerPlayerDistribution) *model.UserPlayerCountProfile {
	for _, pp := range perPlayer {
		if !pp.Player.IsUser {
			continue
		}
		e, ok := maxBy(pp.Counts, func(a, b model.PlayerCountEntry) bool { return a.MatchCount > b.MatchCount })
		if !ok {
			return nil
		}
		return &model.UserPlayerCountProfile{
			Player:       pp.Player,
			TotalMatches: pp.TotalMatches,
			PlayerCount:  e.PlayerCount,
			MatchCount:   e.MatchCount,
			Percentage:   percentage(e.MatchCount, pp.TotalMatches),
		}
	}
	return nil
}

// findTopRival picks the pair in which the user has the best finishes-above
// rate, from the user's side of the comparison. Earlier pairs win ties.
func findTopRival(pairs []model.DetectedCore) *model.Rival {
	var best *model.Rival
	for _, c := range pairs {
		for _, ps := range c.Pairwise {
			if ps.MatchCount < minRivalComparisons {
				continue
			}
			var r model.Rival
			switch {
			case ps.PlayerA.IsUser && !ps.PlayerB.IsUser:
				r = model.Rival{Opponent: ps.PlayerB, FinishesAboveRate: ps.FinishesAboveRate}
			case ps.PlayerB.IsUser && !ps.PlayerA.IsUser:
				r = model.Rival{Opponent: ps.PlayerA, FinishesAboveRate: 1 - ps.FinishesAboveRate}
			default:
				continue
			}
			r.MatchCount = ps.MatchCount
			r.Confidence = ps.Confidence
			if best == nil || r.FinishesAboveRate > best.FinishesAboveRate {
				best = &r
			}
		}
	}
	return best
}

// findBestTeamCore picks the team pair with the highest team win rate.
// Earlier pairs win ties.
func findBestTeamCore(pairs []model.TeamCore) *model.TeamCoreHighlight {
	var best *model.TeamCoreHighlight
	for _, tc := range pairs {
		if tc.TeamMatches < minTeamCoreMatches {
			continue
		}
		if best == nil || tc.TeamWinRate > best.TeamWinRate {
			best = &model.TeamCoreHighlight{
				CoreKey:     tc.CoreKey,
				Players:     tc.Players,
				TeamWinRate: tc.TeamWinRate,
				TeamMatches: tc.TeamMatches,
			}
		}
	}
	return best
}
