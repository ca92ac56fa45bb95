package models

import (
	"fmt"
	"strings"
)

// PriceSample is a single close price, timestamps in unix milliseconds.
type PriceSample struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Close       float64 `json:"close"`
}

// RatioPoint is priceA/priceB at one aligned index.
type RatioPoint struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Ratio       float64 `json:"ratio"`
	PriceA      float64 `json:"price_a"`
	PriceB      float64 `json:"price_b"`
}

// Tick is an axis value and the label printed for it.
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Interval is the sampling cadence of a price series.
type Interval string

const (
	IntervalHourly Interval = "hourly"
	IntervalDaily  Interval = "daily"
	IntervalWeekly Interval = "weekly"
)

// ParseInterval accepts the canonical names plus the short forms h/d/w.
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hourly", "hour", "h", "1h":
		return IntervalHourly, nil
	case "daily", "day", "d", "1d", "":
		return IntervalDaily, nil
	case "weekly", "week", "w", "1w":
		return IntervalWeekly, nil
	}
	return "", fmt.Errorf("unknown interval %q (use hourly|daily|weekly)", s)
}

// SamplesPerDay is the number of upstream candles fetched per day of range.
// Weekly series are built from daily candles.
func (i Interval) SamplesPerDay() int {
	if i == IntervalHourly {
		return 24
	}
	return 1
}
