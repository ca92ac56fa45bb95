package ticks

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatLabels renders tick values with a precision chosen from the span
// of the set and right-pads every label to the widest one.
func FormatLabels(values []float64) []string {
	if len(values) == 0 {
		return nil
	}

	scale := values[len(values)-1] - values[0]
	if scale == 0 {
		// single tick: size the precision by the value itself
		scale = math.Abs(values[0])
	}
	format := formatterFor(scale)

	labels := make([]string, len(values))
	width := 0
	for i, v := range values {
		labels[i] = format(v)
		if len(labels[i]) > width {
			width = len(labels[i])
		}
	}
	for i := range labels {
		labels[i] = PadRight(labels[i], width)
	}
	return labels
}

// Decimals returns the fixed-point precision for a value span, or -1 when
// the span calls for scientific notation.
func Decimals(span float64) int {
	switch {
	case span < 0.00001:
		return -1
	case span < 0.0001:
		return 12
	case span < 0.001:
		return 10
	case span < 0.01:
		return 8
	}
	return 6
}

// PadRight pads s with spaces up to width.
func PadRight(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

func formatterFor(span float64) func(float64) string {
	prec := Decimals(span)
	if prec < 0 {
		return func(v float64) string {
			return strconv.FormatFloat(v, 'e', 4, 64)
		}
	}
	return func(v float64) string {
		return trimZeros(strconv.FormatFloat(v, 'f', prec, 64))
	}
}

func trimZeros(s string) string {
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}
