package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/pable/bg-insights/internal/model"
)

// nameSimilarity is the minimum normalized Levenshtein similarity for a fuzzy
// game-name match.
const nameSimilarity = 0.7

// ResolveGame picks the game a CLI argument refers to: a numeric id, an exact
// case-insensitive name, or else the closest name above the similarity threshold.
func ResolveGame(games []model.Game, query string) (model.Game, error) {
	q := strings.TrimSpace(query)
	if id, err := strconv.ParseInt(q, 10, 64); err == nil {
		for _, g := range games {
			if g.ID == id {
				return g, nil
			}
		}
	}
	for _, g := range games {
		if strings.EqualFold(g.Name, q) {
			return g, nil
		}
	}

	lq := strings.ToLower(q)
	var (
		best      model.Game
		bestScore float64
		found     bool
	)
	for _, g := range games {
		name := strings.ToLower(g.Name)
		distance := fuzzy.LevenshteinDistance(lq, name)
		maxLen := float64(max(len(lq), len(name)))
		if maxLen == 0 {
			continue
		}
		similarity := 1 - float64(distance)/maxLen
		if similarity > nameSimilarity && similarity > bestScore {
			best, bestScore, found = g, similarity, true
		}
	}
	if !found {
		return model.Game{}, fmt.Errorf("%w: %q", ErrGameNotFound, query)
	}
	return best, nil
}
