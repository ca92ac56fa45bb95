package server

import "github.com/aman-zulfiqar/token-ratio-chart/internal/models"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Network string `json:"network,omitempty"`
	Cache   bool   `json:"cache"` // Redis cache in front of the market data API
}

// TicksResponse lists nice axis ticks for a numeric range
type TicksResponse struct {
	Min   float64       `json:"min"`
	Max   float64       `json:"max"`
	Count int           `json:"count"`
	Ticks []models.Tick `json:"ticks"`
}
