package insights

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pable/bg-insights/internal/model"
)

const keySep = "|"

// groupKey is the canonical key of a player set: sorted keys joined by keySep.
// Every composite player-set key in the package goes through here.
func groupKey(keys []model.PlayerKey) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(keySep)
		}
		b.WriteString(k.String())
	}
	return b.String()
}

func sortedKeys(keys []model.PlayerKey) []model.PlayerKey {
	out := slices.Clone(keys)
	slices.SortFunc(out, model.PlayerKey.Compare)
	return out
}

func playerKeys(players []*model.MatchPlayer) []model.PlayerKey {
	keys := make([]model.PlayerKey, len(players))
	for i, p := range players {
		keys[i] = p.Key
	}
	return keys
}

// combinations calls fn with every k-sized subset of keys, in lexicographic
// index order. The slice passed to fn is reused between calls.
func combinations(keys []model.PlayerKey, k int, fn func([]model.PlayerKey)) {
	n := len(keys)
	if k <= 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	buf := make([]model.PlayerKey, k)
	for {
		for i, j := range idx {
			buf[i] = keys[j]
		}
		fn(buf)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// playerCountBucket groups large tables together: 2p, 3p, 4p, 5-6p, 7+p.
func playerCountBucket(count int) string {
	switch {
	case count <= 4:
		return strconv.Itoa(count) + "p"
	case count <= 6:
		return "5-6p"
	default:
		return "7+p"
	}
}

// bucketOrder returns a sort key for player-count bucket strings.
func bucketOrder(bucket string) int {
	switch bucket {
	case "5-6p":
		return 5
	case "7+p":
		return 7
	}
	n, err := strconv.Atoi(strings.TrimSuffix(bucket, "p"))
	if err != nil {
		return 8
	}
	return n
}

func confidenceFor(n int) model.Confidence {
	switch {
	case n < 3:
		return model.ConfidenceLow
	case n <= 10:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceHigh
	}
}

func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// mean returns nil when n is zero.
func mean(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

// percentage rounds half away from zero and is 0 for an empty total.
func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(count)*100/float64(total) + 0.5)
}

// maxBy returns the first element for which no later element is strictly better.
func maxBy[T any](items []T, better func(a, b T) bool) (T, bool) {
	var best T
	found := false
	for _, it := range items {
		if !found || better(it, best) {
			best, found = it, true
		}
	}
	return best, found
}
