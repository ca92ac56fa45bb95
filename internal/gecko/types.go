package gecko

import "encoding/json"

// Response shapes of the GeckoTerminal v2 API. Numeric attributes arrive
// as strings.

type poolsResponse struct {
	Data []poolResource `json:"data"`
}

type poolResource struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Attributes    poolAttributes `json:"attributes"`
	Relationships struct {
		Dex relationship `json:"dex"`
	} `json:"relationships"`
}

type poolAttributes struct {
	Address       string `json:"address"`
	Name          string `json:"name"`
	ReserveInUSD  string `json:"reserve_in_usd"`
	PoolCreatedAt string `json:"pool_created_at"`
}

type relationship struct {
	Data struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"data"`
}

type ohlcvResponse struct {
	Data struct {
		Attributes struct {
			// [timestamp_seconds, open, high, low, close, volume], newest first
			OHLCVList [][]json.Number `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}

type tokenPriceResponse struct {
	Data struct {
		Attributes struct {
			TokenPrices map[string]string `json:"token_prices"`
		} `json:"attributes"`
	} `json:"data"`
}
