// Package series turns two per-token price histories into one ratio series.
package series

import (
	"errors"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
)

// ErrEmptyResult is returned when no index produced a usable ratio.
var ErrEmptyResult = errors.New("no aligned ratio points")

// MsPerDay is one day in milliseconds.
const MsPerDay int64 = 86_400_000

// AlignRatios pairs a and b by position, not by timestamp: index i of a is
// matched with index i of b and a's timestamp is kept. Missing candles on
// either side shift every later pair. Indices where either close is not
// positive are skipped.
func AlignRatios(a, b []models.PriceSample) ([]models.RatioPoint, error) {
	n := min(len(a), len(b))

	out := make([]models.RatioPoint, 0, n)
	for i := 0; i < n; i++ {
		pa, pb := a[i].Close, b[i].Close
		if pa <= 0 || pb <= 0 {
			continue
		}
		out = append(out, models.RatioPoint{
			TimestampMs: a[i].TimestampMs,
			Ratio:       pa / pb,
			PriceA:      pa,
			PriceB:      pb,
		})
	}

	if len(out) == 0 {
		return nil, ErrEmptyResult
	}
	return out, nil
}

// ResampleToBuckets folds chronological samples into buckets of bucketDays.
// A bucket opens at its first sample; the next one opens with the first
// sample at least bucketDays later. Each bucket yields its last close,
// stamped with the bucket's opening time.
func ResampleToBuckets(samples []models.PriceSample, bucketDays int) []models.PriceSample {
	if len(samples) == 0 {
		return nil
	}
	if bucketDays <= 0 {
		out := make([]models.PriceSample, len(samples))
		copy(out, samples)
		return out
	}

	width := int64(bucketDays) * MsPerDay
	out := make([]models.PriceSample, 0, len(samples)/bucketDays+1)

	start := samples[0].TimestampMs
	last := samples[0]
	for _, s := range samples[1:] {
		if s.TimestampMs-start >= width {
			out = append(out, models.PriceSample{TimestampMs: start, Close: last.Close})
			start = s.TimestampMs
		}
		last = s
	}
	out = append(out, models.PriceSample{TimestampMs: start, Close: last.Close})

	return out
}

// Ratios splits points into parallel value and timestamp slices.
func Ratios(points []models.RatioPoint) ([]float64, []int64) {
	values := make([]float64, len(points))
	stamps := make([]int64, len(points))
	for i, p := range points {
		values[i] = p.Ratio
		stamps[i] = p.TimestampMs
	}
	return values, stamps
}
