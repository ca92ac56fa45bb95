package series

import (
	"math"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
)

// Summary describes a ratio series at a glance.
type Summary struct {
	First     float64 `json:"first"`
	Last      float64 `json:"last"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	ChangePct float64 `json:"change_pct"`
	Points    int     `json:"points"`
}

// Summarize returns the zero Summary for an empty series.
func Summarize(points []models.RatioPoint) Summary {
	if len(points) == 0 {
		return Summary{}
	}

	s := Summary{
		First:  points[0].Ratio,
		Last:   points[len(points)-1].Ratio,
		Min:    math.Inf(1),
		Max:    math.Inf(-1),
		Points: len(points),
	}
	for _, p := range points {
		s.Min = math.Min(s.Min, p.Ratio)
		s.Max = math.Max(s.Max, p.Ratio)
	}
	if s.First != 0 {
		s.ChangePct = (s.Last - s.First) / s.First * 100
	}
	return s
}
