package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/bg-insights/internal/model"
)

var (
	cSection = color.New(color.FgCyan, color.Bold)
	cMuted   = color.New(color.Faint)
)

// maxPairwiseRows bounds the head-to-head table printed under each core size.
const maxPairwiseRows = 15

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	cSection.Fprintf(w, "=== %s ===\n", title)
}

// PrintGames prints the game list.
func PrintGames(w io.Writer, games []model.Game) {
	table := newTable(w)
	table.Header("ID", "GAME", "MATCHES")
	for _, g := range games {
		table.Append(strconv.FormatInt(g.ID, 10), g.Name, strconv.Itoa(g.MatchCount))
	}
	table.Render()
}

// PrintInsights prints every section of a game's insights. When focus is not
// the zero key, rows involving that player are marked with ">".
func PrintInsights(w io.Writer, gameName string, gi *model.GameInsights, focus model.PlayerKey) {
	PrintSummary(w, gameName, gi.Summary)
	if gi.Summary.TotalMatchesAnalyzed == 0 {
		return
	}
	PrintDistribution(w, gi.Distribution, focus)
	PrintCores(w, "Pairs", gi.Cores.Pairs, focus)
	PrintCores(w, "Trios", gi.Cores.Trios, focus)
	PrintCores(w, "Quartets", gi.Cores.Quartets, focus)
	PrintPairwise(w, gi.Cores.Pairs, focus)
	PrintLineups(w, gi.Lineups, focus)
	if gi.Teams != nil {
		PrintTeams(w, gi.Teams, focus)
	}
	if gi.Roles != nil {
		PrintRoles(w, gi.Roles, focus)
	}
}

// PrintSummary prints the headline facts.
func PrintSummary(w io.Writer, gameName string, s model.Summary) {
	section(w, "Summary: "+gameName)
	fmt.Fprintf(w, "Matches analyzed: %d\n", s.TotalMatchesAnalyzed)
	if s.TotalMatchesAnalyzed == 0 {
		cMuted.Fprintln(w, "No matches recorded for this game yet.")
		return
	}
	if e := s.MostCommonPlayerCount; e != nil {
		fmt.Fprintf(w, "Most common player count: %d (%d matches, %d%%)\n", e.PlayerCount, e.MatchCount, e.Percentage)
	}
	if u := s.UserPlayerCount; u != nil {
		fmt.Fprintf(w, "You usually play at %d players (%d of %d matches, %d%%)\n",
			u.PlayerCount, u.MatchCount, u.TotalMatches, u.Percentage)
	}
	if r := s.TopRival; r != nil {
		fmt.Fprintf(w, "Top rival: %s (you finish above %s of %d times, %s confidence)\n",
			r.Opponent.Name, pct(r.FinishesAboveRate), r.MatchCount, r.Confidence)
	}
	if c := s.TopPair; c != nil {
		fmt.Fprintf(w, "Most frequent pair: %s (%d matches)\n", names(c.Players), c.MatchCount)
	}
	if c := s.TopTrio; c != nil {
		fmt.Fprintf(w, "Most frequent trio: %s (%d matches)\n", names(c.Players), c.MatchCount)
	}
	if c := s.TopGroup; c != nil {
		fmt.Fprintf(w, "Regular group: %s (%d matches)\n", names(c.Players), c.MatchCount)
	}
	if c := s.BestTeamCore; c != nil {
		fmt.Fprintf(w, "Best team pairing: %s (%s of %d team matches won)\n",
			names(c.Players), pct(c.TeamWinRate), c.TeamMatches)
	}
}

// PrintDistribution prints the game-wide and per-player player-count tables.
func PrintDistribution(w io.Writer, d model.Distribution, focus model.PlayerKey) {
	section(w, "Player counts")
	table := newTable(w)
	table.Header("PLAYERS", "MATCHES", "SHARE")
	for _, e := range d.Game {
		table.Append(strconv.Itoa(e.PlayerCount), strconv.Itoa(e.MatchCount), fmt.Sprintf("%d%%", e.Percentage))
	}
	table.Render()

	if len(d.PerPlayer) == 0 {
		return
	}
	counts := make([]int, 0, len(d.Game))
	for _, e := range d.Game {
		counts = append(counts, e.PlayerCount)
	}
	header := []any{" ", "PLAYER", "TOTAL"}
	for _, c := range counts {
		header = append(header, fmt.Sprintf("%dP", c))
	}
	table = newTable(w)
	table.Header(header...)
	for _, pp := range d.PerPlayer {
		row := []any{marker(focus, pp.Player), pp.Player.Name, strconv.Itoa(pp.TotalMatches)}
		byCount := make(map[int]model.PlayerCountEntry, len(pp.Counts))
		for _, e := range pp.Counts {
			byCount[e.PlayerCount] = e
		}
		for _, c := range counts {
			if e, ok := byCount[c]; ok {
				row = append(row, fmt.Sprintf("%d (%d%%)", e.MatchCount, e.Percentage))
			} else {
				row = append(row, "—")
			}
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintCores prints one core size: members by rank, stability and guests.
func PrintCores(w io.Writer, title string, cores []model.DetectedCore, focus model.PlayerKey) {
	section(w, title)
	if len(cores) == 0 {
		cMuted.Fprintln(w, "No recurring groups of this size.")
		return
	}
	table := newTable(w)
	table.Header(" ", "PLAYERS", "MATCHES", "STABLE", "RANKING", "GUESTS")
	for _, c := range cores {
		ranking := make([]string, len(c.GroupOrdering))
		for i, gr := range c.GroupOrdering {
			if gr.AvgPlacement != nil {
				ranking[i] = fmt.Sprintf("%d.%s (%.2f)", gr.Rank, gr.Player.Name, *gr.AvgPlacement)
			} else {
				ranking[i] = fmt.Sprintf("%d.%s (%s W)", gr.Rank, gr.Player.Name, pct(gr.WinRate))
			}
		}
		guests := make([]string, 0, 3)
		for i, g := range c.Guests {
			if i == 3 {
				guests = append(guests, fmt.Sprintf("+%d", len(c.Guests)-3))
				break
			}
			guests = append(guests, fmt.Sprintf("%s×%d", g.Player.Name, g.Count))
		}
		table.Append(
			marker(focus, c.Players...),
			names(c.Players),
			strconv.Itoa(c.MatchCount),
			pct(c.Stability),
			strings.Join(ranking, " "),
			orDash(strings.Join(guests, ", ")),
		)
	}
	table.Render()
}

// PrintPairwise prints head-to-head records from the pair cores.
func PrintPairwise(w io.Writer, pairs []model.DetectedCore, focus model.PlayerKey) {
	section(w, "Head to head")
	table := newTable(w)
	table.Header(" ", "PLAYER A", "PLAYER B", "N", "A ABOVE", "ΔPLACE", "ΔSCORE", "CONF", "BY COUNT")
	rows := 0
	for _, c := range pairs {
		for _, ps := range c.Pairwise {
			if ps.MatchCount == 0 || rows == maxPairwiseRows {
				continue
			}
			buckets := make([]string, len(ps.ByPlayerCount))
			for i, b := range ps.ByPlayerCount {
				buckets[i] = fmt.Sprintf("%s:%s/%d", b.Bucket, pct(b.FinishesAboveRate), b.MatchCount)
			}
			table.Append(
				marker(focus, ps.PlayerA, ps.PlayerB),
				ps.PlayerA.Name,
				ps.PlayerB.Name,
				strconv.Itoa(ps.MatchCount),
				pct(ps.FinishesAboveRate),
				optFloat(ps.AvgPlacementDelta, "%+.2f"),
				optFloat(ps.AvgScoreDelta, "%+.1f"),
				string(ps.Confidence),
				strings.Join(buckets, " "),
			)
			rows++
		}
	}
	if rows == 0 {
		cMuted.Fprintln(w, "No head-to-head comparisons yet.")
		return
	}
	table.Render()
}

// PrintLineups prints exact player sets that recur.
func PrintLineups(w io.Writer, lineups []model.FrequentLineup, focus model.PlayerKey) {
	section(w, "Lineups")
	if len(lineups) == 0 {
		cMuted.Fprintln(w, "No lineup played more than once.")
		return
	}
	table := newTable(w)
	table.Header(" ", "PLAYERS", "MATCHES", "LAST PLAYED")
	for _, l := range lineups {
		last := "—"
		if len(l.Matches) > 0 {
			last = l.Matches[0].MatchDate.Format("2006-01-02")
		}
		table.Append(marker(focus, l.Players...), names(l.Players), strconv.Itoa(l.MatchCount), last)
	}
	table.Render()
}

// PrintTeams prints team cores and recurring team configurations.
func PrintTeams(w io.Writer, t *model.TeamInsights, focus model.PlayerKey) {
	section(w, "Teams")
	cores := make([]model.TeamCore, 0, len(t.Cores.Pairs)+len(t.Cores.Trios)+len(t.Cores.Quartets))
	cores = append(cores, t.Cores.Pairs...)
	cores = append(cores, t.Cores.Trios...)
	cores = append(cores, t.Cores.Quartets...)
	if len(cores) == 0 {
		cMuted.Fprintln(w, "No recurring teammates.")
	} else {
		table := newTable(w)
		table.Header(" ", "TEAMMATES", "MATCHES", "TEAM W", "TEAM WIN%")
		for _, c := range cores {
			table.Append(
				marker(focus, c.Players...),
				names(c.Players),
				strconv.Itoa(c.MatchCount),
				fmt.Sprintf("%d/%d", c.TeamWins, c.TeamMatches),
				pct(c.TeamWinRate),
			)
		}
		table.Render()
	}

	if len(t.Configurations) == 0 {
		return
	}
	table := newTable(w)
	table.Header("MATCHUP", "MATCHES", "WINS")
	for _, c := range t.Configurations {
		sides := make([]string, len(c.Teams))
		wins := make([]string, len(c.Teams))
		for i, s := range c.Teams {
			sides[i] = names(s.Players)
			wins[i] = strconv.Itoa(s.Wins)
		}
		table.Append(strings.Join(sides, " vs "), strconv.Itoa(c.MatchCount), strings.Join(wins, "-"))
	}
	table.Render()
}

// PrintRoles prints role usage, presence effects and per-player role records.
func PrintRoles(w io.Writer, r *model.RoleInsights, focus model.PlayerKey) {
	section(w, "Roles")
	table := newTable(w)
	table.Header("ROLE", "MATCHES", "HELD", "WIN%", "UNIQUE", "TEAM", "SHARED", "MOSTLY")
	for _, rs := range r.Roles {
		table.Append(
			rs.Role.Name,
			strconv.Itoa(rs.MatchCount),
			strconv.Itoa(rs.Assignments),
			pct(rs.WinRate),
			strconv.Itoa(rs.Breakdown.Unique),
			strconv.Itoa(rs.Breakdown.Team),
			strconv.Itoa(rs.Breakdown.Shared),
			string(rs.Classification),
		)
	}
	table.Render()

	if len(r.PresenceEffects) > 0 {
		table = newTable(w)
		table.Header(" ", "ROLE", "PLAYER", "HOLDING", "TEAMMATE HOLDS", "OPPONENT HOLDS")
		for _, re := range r.PresenceEffects {
			for _, pe := range re.Players {
				table.Append(
					marker(focus, pe.Player),
					re.Role.Name,
					pe.Player.Name,
					effect(pe.Self),
					effect(pe.SameTeam),
					effect(pe.OpposingTeam),
				)
			}
		}
		table.Render()
	}

	if len(r.RoleEffects) > 0 {
		table = newTable(w)
		table.Header("ROLE", "VS ROLE", "SAME PLAYER", "SAME TEAM", "OPPOSING")
		for _, re := range r.RoleEffects {
			table.Append(re.Role.Name, re.Other.Name, effect(re.SamePlayer), effect(re.SameTeam), effect(re.OpposingTeam))
		}
		table.Render()
	}

	if len(r.PlayerPerformance) > 0 {
		table = newTable(w)
		table.Header(" ", "PLAYER", "ROLE", "MATCHES", "WIN%", "AVG PLACE", "AVG SCORE")
		for _, pp := range r.PlayerPerformance {
			for _, rp := range pp.Roles {
				table.Append(
					marker(focus, pp.Player),
					pp.Player.Name,
					rp.Role.Name,
					strconv.Itoa(rp.MatchCount),
					pct(rp.WinRate),
					optFloat(rp.AvgPlacement, "%.2f"),
					optFloat(rp.AvgScore, "%.1f"),
				)
			}
		}
		table.Render()
	}
}

func marker(focus model.PlayerKey, players ...model.PlayerRef) string {
	if focus == (model.PlayerKey{}) {
		return " "
	}
	for _, p := range players {
		if p.Key == focus {
			return ">"
		}
	}
	return " "
}

func names(players []model.PlayerRef) string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return strings.Join(out, ", ")
}

func pct(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf(format, *v)
}

func effect(e *model.TeamRelationEffect) string {
	if e == nil {
		return "—"
	}
	return fmt.Sprintf("%s (%d/%d)", pct(e.WinRate), e.Wins, e.Matches)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
