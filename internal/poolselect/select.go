// Package poolselect picks one pool per token, trading liquidity against
// depth of price history.
package poolselect

import (
	"errors"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
)

// DefaultLimit is how many of the most liquid candidates are considered.
const DefaultLimit = 5

const (
	// top pool's history is at least this share of the deepest history
	minHistoryShare = 0.5
	// a deeper pool must hold at least this share of the top pool's liquidity
	minLiquidityShare = 0.1
)

// ErrNoUsableCandidates is returned when no candidate has price history.
var ErrNoUsableCandidates = errors.New("no usable pool candidates")

// Reason names the rule that decided a selection.
type Reason string

const (
	ReasonLiquidity   Reason = "liquidity"
	ReasonDeepHistory Reason = "deep_history"
	ReasonFallback    Reason = "fallback"
)

// SelectPool picks from candidates ordered by liquidity, most liquid first.
// Only the first limit candidates are considered and those with no history
// are ignored.
func SelectPool(candidates []models.PoolCandidate, limit int) (models.PoolCandidate, error) {
	usable := usableCandidates(candidates, limit)
	if len(usable) == 0 {
		return models.PoolCandidate{}, ErrNoUsableCandidates
	}
	i, _ := pick(usable)
	return usable[i], nil
}

func usableCandidates(candidates []models.PoolCandidate, limit int) []models.PoolCandidate {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]models.PoolCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.HistoryDepth > 0 {
			out = append(out, c)
		}
	}
	return out
}

// pick returns the index of the chosen candidate. cands must be non-empty
// and ordered by liquidity, most liquid first.
func pick(cands []models.PoolCandidate) (int, Reason) {
	maxHistory := 0
	for _, c := range cands {
		maxHistory = max(maxHistory, c.HistoryDepth)
	}

	top := cands[0]
	if float64(top.HistoryDepth) >= minHistoryShare*float64(maxHistory) {
		return 0, ReasonLiquidity
	}

	best := -1
	for i, c := range cands {
		if c.HistoryDepth != maxHistory || c.LiquidityUSD < minLiquidityShare*top.LiquidityUSD {
			continue
		}
		if best < 0 || c.LiquidityUSD > cands[best].LiquidityUSD {
			best = i
		}
	}
	if best >= 0 {
		return best, ReasonDeepHistory
	}
	return 0, ReasonFallback
}
