// ============================================================================
// models/pool.go
// ============================================================================
package models

// PoolCandidate is a liquidity venue for a token as reported by the market
// data source. HistoryDepth is zero until the pool has been probed.
type PoolCandidate struct {
	Address      string  `json:"address"`
	DisplayName  string  `json:"display_name"`
	TokenAddress string  `json:"token_address"`
	DexID        string  `json:"dex_id,omitempty"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	HistoryDepth int     `json:"history_depth"`
}
