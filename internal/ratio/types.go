package ratio

import (
	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/poolselect"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/series"
)

// Request asks for TokenA priced in TokenB. Zero Interval and Days take
// the service defaults.
type Request struct {
	TokenA   string          `json:"token_a"`
	TokenB   string          `json:"token_b"`
	Interval models.Interval `json:"interval"`
	Days     int             `json:"days"`
}

// Leg is one token's side of the ratio.
type Leg struct {
	Token      string                `json:"token"`
	Symbol     string                `json:"symbol"`
	Candidates int                   `json:"candidates"`
	Pool       *models.PoolCandidate `json:"pool,omitempty"`
	Reason     poolselect.Reason     `json:"reason,omitempty"`
	Skipped    []poolselect.Skip     `json:"skipped,omitempty"`

	samples []models.PriceSample
}

type Result struct {
	Request
	LegA           Leg                 `json:"leg_a"`
	LegB           Leg                 `json:"leg_b"`
	Points         []models.RatioPoint `json:"points"`
	Ticks          []models.Tick       `json:"ticks"`
	Summary        series.Summary      `json:"summary"`
	Chart          string              `json:"chart"`
	Fallback       bool                `json:"fallback"`
	FallbackReason string              `json:"fallback_reason,omitempty"`
}

// PoolReport lists one token's candidates and the probe outcome.
type PoolReport struct {
	Token      string                 `json:"token"`
	Symbol     string                 `json:"symbol"`
	Limit      int                    `json:"limit"`
	Candidates []models.PoolCandidate `json:"candidates"`
	Probes     poolselect.ProbeResult `json:"probes"`
	Selected   *models.PoolCandidate  `json:"selected,omitempty"`
	Reason     poolselect.Reason      `json:"reason,omitempty"`
	Error      string                 `json:"error,omitempty"`
}
