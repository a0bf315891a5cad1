package model

import "time"

// ---- Engine output ----

// GameInsights is the full analytics object for one game.
type GameInsights struct {
	Summary      Summary          `json:"summary"`
	Distribution Distribution     `json:"distribution"`
	Cores        CoresBySize      `json:"cores"`
	Lineups      []FrequentLineup `json:"lineups"`
	Teams        *TeamInsights    `json:"teams"`
	Roles        *RoleInsights    `json:"roles"`
}

// PlayerRef is the display identity of a player.
type PlayerRef struct {
	Key        PlayerKey    `json:"playerKey"`
	PlayerID   int64        `json:"playerId"`
	Name       string       `json:"name"`
	SourceType SourceType   `json:"sourceType"`
	IsUser     bool         `json:"isUser"`
	Image      *PlayerImage `json:"image,omitempty"`
}

// RefOf builds a PlayerRef from a match participant.
func RefOf(p *MatchPlayer) PlayerRef {
	return PlayerRef{
		Key:        p.Key,
		PlayerID:   p.PlayerID,
		Name:       p.Name,
		SourceType: p.SourceType,
		IsUser:     p.IsUser,
		Image:      p.Image,
	}
}

// RawCore is a group of players that co-occurred in at least the threshold
// number of matches. MatchIDs is ascending.
type RawCore struct {
	Key        string
	PlayerKeys []PlayerKey
	MatchIDs   []int64
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// PlayerCountBucket is the head-to-head breakdown for one player-count bucket.
type PlayerCountBucket struct {
	Bucket            string   `json:"bucket"`
	MatchCount        int      `json:"matchCount"`
	FinishesAboveRate float64  `json:"finishesAboveRate"`
	AvgPlacementDelta *float64 `json:"avgPlacementDelta"`
}

// PairwiseStat compares PlayerA against PlayerB; A sorts first by key.
type PairwiseStat struct {
	PlayerA           PlayerRef           `json:"playerA"`
	PlayerB           PlayerRef           `json:"playerB"`
	FinishesAboveRate float64             `json:"finishesAboveRate"`
	AvgPlacementDelta *float64            `json:"avgPlacementDelta"`
	AvgScoreDelta     *float64            `json:"avgScoreDelta"`
	MatchCount        int                 `json:"matchCount"`
	Confidence        Confidence          `json:"confidence"`
	ByPlayerCount     []PlayerCountBucket `json:"byPlayerCount"`
}

// GroupRank is one member's standing inside a core.
type GroupRank struct {
	Player         PlayerRef `json:"player"`
	Rank           int       `json:"rank"`
	AvgPlacement   *float64  `json:"avgPlacement"`
	PlacementCount int       `json:"placementCount"`
	Wins           int       `json:"wins"`
	Matches        int       `json:"matches"`
	WinRate        float64   `json:"winRate"`
}

// GuestPlayer is a non-member seen in a core's matches.
type GuestPlayer struct {
	Player PlayerRef `json:"player"`
	Count  int       `json:"count"`
}

// DetectedCore is a RawCore with its statistics.
type DetectedCore struct {
	CoreKey       string         `json:"coreKey"`
	Players       []PlayerRef    `json:"players"`
	MatchCount    int            `json:"matchCount"`
	MatchIDs      []int64        `json:"matchIds"`
	Stability     float64        `json:"stability"`
	GroupOrdering []GroupRank    `json:"groupOrdering"`
	Guests        []GuestPlayer  `json:"guests"`
	Pairwise      []PairwiseStat `json:"pairwise"`
}

type CoresBySize struct {
	Pairs    []DetectedCore `json:"pairs"`
	Trios    []DetectedCore `json:"trios"`
	Quartets []DetectedCore `json:"quartets"`
}

// PlayerCountEntry counts matches played at one player count.
type PlayerCountEntry struct {
	PlayerCount int `json:"playerCount"`
	MatchCount  int `json:"matchCount"`
	Percentage  int `json:"percentage"`
}

type PerPlayerDistribution struct {
	Player       PlayerRef          `json:"player"`
	TotalMatches int                `json:"totalMatches"`
	Counts       []PlayerCountEntry `json:"counts"`
}

type Distribution struct {
	Game      []PlayerCountEntry      `json:"game"`
	PerPlayer []PerPlayerDistribution `json:"perPlayer"`
}

type LineupMatch struct {
	MatchID   int64     `json:"matchId"`
	MatchDate time.Time `json:"matchDate"`
}

// FrequentLineup is an exact set of players seen together at least twice.
type FrequentLineup struct {
	LineupKey  string        `json:"lineupKey"`
	Players    []PlayerRef   `json:"players"`
	MatchCount int           `json:"matchCount"`
	Matches    []LineupMatch `json:"matches"`
}

// TeamCore is a same-team core with its team record.
type TeamCore struct {
	DetectedCore
	TeamWinRate float64 `json:"teamWinRate"`
	TeamWins    int     `json:"teamWins"`
	TeamMatches int     `json:"teamMatches"`
}

type TeamCoresBySize struct {
	Pairs    []TeamCore `json:"pairs"`
	Trios    []TeamCore `json:"trios"`
	Quartets []TeamCore `json:"quartets"`
}

// TeamSide is one side of a team configuration.
type TeamSide struct {
	SideKey  string      `json:"sideKey"`
	TeamName string      `json:"teamName"`
	Players  []PlayerRef `json:"players"`
	Wins     int         `json:"wins"`
}

// TeamConfig is a recurring team-vs-team matchup.
type TeamConfig struct {
	ConfigKey  string     `json:"configKey"`
	Teams      []TeamSide `json:"teams"`
	MatchCount int        `json:"matchCount"`
	MatchIDs   []int64    `json:"matchIds"`
}

type TeamInsights struct {
	Cores          TeamCoresBySize `json:"cores"`
	Configurations []TeamConfig    `json:"configurations"`
}

// ---- Roles ----

type RoleClassification string

const (
	RoleUnique RoleClassification = "unique"
	RoleTeam   RoleClassification = "team"
	RoleShared RoleClassification = "shared"
)

type ClassificationBreakdown struct {
	Unique int `json:"unique"`
	Team   int `json:"team"`
	Shared int `json:"shared"`
}

type RoleSummary struct {
	Role           Role                    `json:"role"`
	MatchCount     int                     `json:"matchCount"`
	Assignments    int                     `json:"assignments"`
	Wins           int                     `json:"wins"`
	WinRate        float64                 `json:"winRate"`
	Breakdown      ClassificationBreakdown `json:"classificationBreakdown"`
	Classification RoleClassification      `json:"predominantClassification"`
}

// TeamRelationEffect is a win record under one relationship category.
type TeamRelationEffect struct {
	Wins    int     `json:"wins"`
	Matches int     `json:"matches"`
	WinRate float64 `json:"winRate"`
}

// PlayerPresenceEffect is how a player fares relative to a role's holders.
type PlayerPresenceEffect struct {
	Player       PlayerRef           `json:"player"`
	Self         *TeamRelationEffect `json:"self"`
	SameTeam     *TeamRelationEffect `json:"sameTeam"`
	OpposingTeam *TeamRelationEffect `json:"opposingTeam"`
}

type RolePresenceEffect struct {
	Role    Role                   `json:"role"`
	Players []PlayerPresenceEffect `json:"players"`
}

// RoleRoleEffect is how holders of Role fare relative to holders of Other.
type RoleRoleEffect struct {
	Role         Role                `json:"role"`
	Other        Role                `json:"otherRole"`
	SamePlayer   *TeamRelationEffect `json:"samePlayer"`
	SameTeam     *TeamRelationEffect `json:"sameTeam"`
	OpposingTeam *TeamRelationEffect `json:"opposingTeam"`
}

type RolePerformance struct {
	Role         Role     `json:"role"`
	MatchCount   int      `json:"matchCount"`
	Wins         int      `json:"wins"`
	WinRate      float64  `json:"winRate"`
	AvgPlacement *float64 `json:"avgPlacement"`
	AvgScore     *float64 `json:"avgScore"`
}

type PlayerRolePerformance struct {
	Player       PlayerRef         `json:"player"`
	TotalMatches int               `json:"totalMatches"`
	Roles        []RolePerformance `json:"roles"`
}

type RoleInsights struct {
	Roles             []RoleSummary           `json:"roles"`
	PresenceEffects   []RolePresenceEffect    `json:"presenceEffects"`
	RoleEffects       []RoleRoleEffect        `json:"roleEffects"`
	PlayerPerformance []PlayerRolePerformance `json:"playerPerformance"`
}

// ---- Summary ----

type UserPlayerCountProfile struct {
	Player       PlayerRef `json:"player"`
	TotalMatches int       `json:"totalMatches"`
	PlayerCount  int       `json:"playerCount"`
	MatchCount   int       `json:"matchCount"`
	Percentage   int       `json:"percentage"`
}

// Rival is the opponent the requesting user finishes above most often.
type Rival struct {
	Opponent          PlayerRef  `json:"opponent"`
	FinishesAboveRate float64    `json:"finishesAboveRate"`
	MatchCount        int        `json:"matchCount"`
	Confidence        Confidence `json:"confidence"`
}

type CoreHighlight struct {
	CoreKey    string      `json:"coreKey"`
	Players    []PlayerRef `json:"players"`
	MatchCount int         `json:"matchCount"`
}

type TeamCoreHighlight struct {
	CoreKey     string      `json:"coreKey"`
	Players     []PlayerRef `json:"players"`
	TeamWinRate float64     `json:"teamWinRate"`
	TeamMatches int         `json:"teamMatches"`
}

type Summary struct {
	TotalMatchesAnalyzed  int                     `json:"totalMatchesAnalyzed"`
	MostCommonPlayerCount *PlayerCountEntry       `json:"mostCommonPlayerCount"`
	UserPlayerCount       *UserPlayerCountProfile `json:"userPlayerCount"`
	TopRival              *Rival                  `json:"topRival"`
	TopPair               *CoreHighlight          `json:"topPair"`
	TopTrio               *CoreHighlight          `json:"topTrio"`
	TopGroup              *CoreHighlight          `json:"topGroup"`
	BestTeamCore          *TeamCoreHighlight      `json:"bestTeamCore"`
}
