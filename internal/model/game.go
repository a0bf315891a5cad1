package model

// Game is a board game owned by a user, with its match count.
type Game struct {
	ID         int64  `json:"id"`
	OwnerID    int64  `json:"ownerId"`
	Name       string `json:"name"`
	MatchCount int    `json:"matchCount"`
}
