// Package ticks picks readable axis values for a numeric range and formats
// them as fixed-width labels.
package ticks

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
)

// DefaultTickCount is the target number of ticks when the caller passes < 2.
const DefaultTickCount = 10

// ErrInvalidRange is returned when min > max or either bound is not finite.
var ErrInvalidRange = errors.New("invalid range")

// GenerateNiceTicks returns strictly ascending tick values covering
// [min, max], each a multiple of a 1-2-5 step. min and max are added when
// the grid misses them by more than a tenth of a step.
func GenerateNiceTicks(min, max float64, tickCount int) ([]float64, error) {
	if !isFinite(min) || !isFinite(max) {
		return nil, fmt.Errorf("%w: non-finite bound", ErrInvalidRange)
	}
	if min > max {
		return nil, fmt.Errorf("%w: min %g > max %g", ErrInvalidRange, min, max)
	}
	if min == max {
		return []float64{min}, nil
	}
	if tickCount < 2 {
		tickCount = DefaultTickCount
	}

	span := max - min
	step := niceStep(span / float64(tickCount-1))
	if floor := span / 1000; step < floor {
		step = floor
	}
	if step <= 0 || !isFinite(step) {
		return dedupe([]float64{min, max}), nil
	}

	tol := step / 10
	start := math.Floor(min/step) * step
	if start < min-tol {
		start += step
	}

	out := make([]float64, 0, tickCount+2)
	// multiply rather than accumulate so float error does not drift
	for i := 0; i < tickCount*4; i++ {
		v := start + float64(i)*step
		if v > max+step/2 {
			break
		}
		if v >= min-tol {
			out = append(out, v)
		}
	}

	if len(out) == 0 {
		return dedupe([]float64{min, max}), nil
	}
	// compare against the grid only; dedupe sorts the extras in
	first, last := out[0], out[len(out)-1]
	if first-min > tol {
		out = append(out, min)
	}
	if max-last > tol {
		out = append(out, max)
	}

	return dedupe(out), nil
}

// Ticks is GenerateNiceTicks paired with FormatLabels.
func Ticks(min, max float64, tickCount int) ([]models.Tick, error) {
	values, err := GenerateNiceTicks(min, max, tickCount)
	if err != nil {
		return nil, err
	}
	labels := FormatLabels(values)
	out := make([]models.Tick, len(values))
	for i, v := range values {
		out[i] = models.Tick{Value: v, Label: labels[i]}
	}
	return out, nil
}

// niceStep rounds rough up onto the 1-2-5 ladder.
func niceStep(rough float64) float64 {
	if rough <= 0 || !isFinite(rough) {
		return 0
	}
	mag := math.Pow(10, math.Floor(math.Log10(rough)))
	switch r := rough / mag; {
	case r > 5:
		return 10 * mag
	case r > 2:
		return 5 * mag
	case r > 1:
		return 2 * mag
	}
	return mag
}

// round15 drops binary noise below 15 significant digits.
func round15(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 15, 64), 64)
	if err != nil {
		return v
	}
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

func dedupe(values []float64) []float64 {
	rounded := make([]float64, len(values))
	for i, v := range values {
		rounded[i] = round15(v)
	}
	sort.Float64s(rounded)

	out := rounded[:0]
	for i, v := range rounded {
		if i > 0 && v == out[len(out)-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
