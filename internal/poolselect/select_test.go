package poolselect

import (
	"errors"
	"testing"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cand(addr string, liq float64, hist int) models.PoolCandidate {
	return models.PoolCandidate{Address: addr, DisplayName: addr, LiquidityUSD: liq, HistoryDepth: hist}
}

func TestSelectPool(t *testing.T) {
	tests := []struct {
		name   string
		cands  []models.PoolCandidate
		limit  int
		want   string
		reason Reason
	}{
		{
			name:   "top history deep enough",
			cands:  []models.PoolCandidate{cand("a", 100, 30), cand("b", 90, 10)},
			want:   "a",
			reason: ReasonLiquidity,
		},
		{
			name:   "history exactly half of max",
			cands:  []models.PoolCandidate{cand("a", 100, 15), cand("b", 90, 30)},
			want:   "a",
			reason: ReasonLiquidity,
		},
		{
			name:   "deep history with enough liquidity",
			cands:  []models.PoolCandidate{cand("a", 100, 2), cand("b", 15, 30)},
			want:   "b",
			reason: ReasonDeepHistory,
		},
		{
			name:   "deep history pool too illiquid",
			cands:  []models.PoolCandidate{cand("a", 100, 2), cand("b", 5, 30)},
			want:   "a",
			reason: ReasonFallback,
		},
		{
			name:   "liquidity exactly ten percent",
			cands:  []models.PoolCandidate{cand("a", 100, 2), cand("b", 10, 30)},
			want:   "b",
			reason: ReasonDeepHistory,
		},
		{
			name: "most liquid of the deepest",
			cands: []models.PoolCandidate{
				cand("a", 100, 3), cand("b", 40, 30), cand("c", 60, 30), cand("d", 80, 20),
			},
			want:   "c",
			reason: ReasonDeepHistory,
		},
		{
			name: "zero history ignored",
			cands: []models.PoolCandidate{
				cand("a", 100, 0), cand("b", 50, 4), cand("c", 40, 5),
			},
			want:   "b",
			reason: ReasonLiquidity,
		},
		{
			name: "limit truncates before measuring",
			cands: []models.PoolCandidate{
				cand("a", 100, 2), cand("b", 90, 10), cand("c", 80, 100),
			},
			limit:  2,
			want:   "b",
			reason: ReasonDeepHistory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectPool(tt.cands, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Address)

			usable := usableCandidates(tt.cands, tt.limit)
			_, reason := pick(usable)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestSelectPool_NoUsable(t *testing.T) {
	_, err := SelectPool([]models.PoolCandidate{cand("a", 100, 0)}, 5)
	assert.True(t, errors.Is(err, ErrNoUsableCandidates))

	_, err = SelectPool(nil, 5)
	assert.True(t, errors.Is(err, ErrNoUsableCandidates))
}

func TestSelectPool_DefaultLimit(t *testing.T) {
	cands := make([]models.PoolCandidate, 0, 7)
	for i := 0; i < 6; i++ {
		cands = append(cands, cand(string(rune('a'+i)), float64(100-i), 1))
	}
	cands = append(cands, cand("deep", 99, 1000))

	got, err := SelectPool(cands, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Address, "candidate beyond the default limit is never considered")
}
