package poolselect

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/observability"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	depth map[string]int
	fail  map[string]error
	calls []string
}

func (f *fakeHistory) FetchPriceHistory(_ context.Context, pool models.PoolCandidate, _ models.Interval, limit int) ([]models.PriceSample, error) {
	f.calls = append(f.calls, pool.Address)
	if err := f.fail[pool.Address]; err != nil {
		return nil, err
	}
	n := min(f.depth[pool.Address], limit)
	out := make([]models.PriceSample, n)
	for i := range out {
		out[i] = models.PriceSample{TimestampMs: int64(i) * 86_400_000, Close: 1}
	}
	return out, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewSelector_RequiresFetcher(t *testing.T) {
	_, err := NewSelector(SelectorConfig{})
	assert.Error(t, err)

	s, err := NewSelector(SelectorConfig{Fetcher: &fakeHistory{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, s.Limit())
}

func TestSelector_ProbePartitions(t *testing.T) {
	f := &fakeHistory{
		depth: map[string]int{"a": 30, "c": 12},
		fail:  map[string]error{"b": errors.New("http 500")},
	}
	metrics := observability.NewMetrics("probe_test")
	s, err := NewSelector(SelectorConfig{Fetcher: f, Limit: 3, Logger: quietLogger(), Metrics: metrics})
	require.NoError(t, err)

	cands := []models.PoolCandidate{
		cand("a", 100, 0), cand("b", 90, 0), cand("c", 80, 0), cand("d", 70, 0),
	}
	res, err := s.Probe(context.Background(), cands, models.IntervalDaily, 90)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, f.calls, "probes stop at the limit")
	require.Len(t, res.Accepted, 2)
	assert.Equal(t, "a", res.Accepted[0].Candidate.Address)
	assert.Equal(t, 30, res.Accepted[0].Candidate.HistoryDepth)
	assert.Equal(t, 12, res.Accepted[1].Candidate.HistoryDepth)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "b", res.Skipped[0].Candidate.Address)
	assert.Contains(t, res.Skipped[0].Reason, "http 500")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ProbeOutcomes.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProbeOutcomes.WithLabelValues("skipped")))
}

func TestSelector_EmptyHistoryIsSkipped(t *testing.T) {
	f := &fakeHistory{depth: map[string]int{"b": 5}}
	s, err := NewSelector(SelectorConfig{Fetcher: f, Logger: quietLogger()})
	require.NoError(t, err)

	res, err := s.Probe(context.Background(), []models.PoolCandidate{cand("a", 100, 0), cand("b", 50, 0)}, models.IntervalDaily, 30)
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, storage.ErrNoData.Error(), res.Skipped[0].Reason)
}

func TestSelector_SelectDeepHistory(t *testing.T) {
	f := &fakeHistory{depth: map[string]int{"new": 2, "old": 30}}
	s, err := NewSelector(SelectorConfig{Fetcher: f, Logger: quietLogger()})
	require.NoError(t, err)

	sel, err := s.Select(context.Background(), []models.PoolCandidate{cand("new", 100, 0), cand("old", 15, 0)}, models.IntervalDaily, 30)
	require.NoError(t, err)
	assert.Equal(t, "old", sel.Candidate.Address)
	assert.Equal(t, ReasonDeepHistory, sel.Reason)
	assert.Len(t, sel.Samples, 30, "winner keeps its probed samples")
	assert.Len(t, sel.Probes.Accepted, 2)
}

func TestSelector_SelectFailingProbeDoesNotAbort(t *testing.T) {
	f := &fakeHistory{
		depth: map[string]int{"b": 10},
		fail:  map[string]error{"a": errors.New("timeout")},
	}
	s, err := NewSelector(SelectorConfig{Fetcher: f, Logger: quietLogger()})
	require.NoError(t, err)

	sel, err := s.Select(context.Background(), []models.PoolCandidate{cand("a", 100, 0), cand("b", 50, 0)}, models.IntervalDaily, 30)
	require.NoError(t, err)
	assert.Equal(t, "b", sel.Candidate.Address)
	assert.Len(t, sel.Probes.Skipped, 1)
}

func TestSelector_SelectNoUsable(t *testing.T) {
	f := &fakeHistory{fail: map[string]error{"a": errors.New("boom")}}
	s, err := NewSelector(SelectorConfig{Fetcher: f, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = s.Select(context.Background(), []models.PoolCandidate{cand("a", 100, 0)}, models.IntervalDaily, 30)
	assert.True(t, errors.Is(err, ErrNoUsableCandidates))
}

func TestSelector_ProbeHonoursCancellation(t *testing.T) {
	f := &fakeHistory{depth: map[string]int{"a": 1}}
	s, err := NewSelector(SelectorConfig{Fetcher: f, Logger: quietLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Probe(ctx, []models.PoolCandidate{cand("a", 100, 0)}, models.IntervalDaily, 30)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls)
}

func TestSelector_ChooseWithoutFetching(t *testing.T) {
	f := &fakeHistory{}
	s, err := NewSelector(SelectorConfig{Fetcher: f, Logger: quietLogger()})
	require.NoError(t, err)

	probes := ProbeResult{
		Accepted: []Probe{
			{Candidate: cand("a", 1000, 10)},
			{Candidate: cand("b", 500, 100)},
		},
		Skipped: []Skip{{Candidate: cand("c", 50, 0), Reason: "no data"}},
	}
	sel, err := s.Choose(probes)
	require.NoError(t, err)
	assert.Equal(t, "b", sel.Candidate.Address)
	assert.Equal(t, ReasonDeepHistory, sel.Reason)
	assert.Empty(t, f.calls)

	_, err = s.Choose(ProbeResult{Skipped: probes.Skipped})
	assert.ErrorIs(t, err, ErrNoUsableCandidates)
	assert.Contains(t, err.Error(), "all 1 candidates skipped")
}
