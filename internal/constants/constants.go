package constants

import "time"

// Market data API
const (
	DefaultAPIBaseURL   = "https://api.geckoterminal.com/api/v2"
	DefaultNetwork      = "solana"
	GeckoAcceptHeader   = "application/json;version=20230302"
	GeckoRequestsPerMin = 30
	GeckoMaxOHLCVLimit  = 1000
	GeckoRequestTimeout = 15 * time.Second
)

// Redis keys
const (
	RedisKeyPoolsPrefix   = "ratio:pools:"
	RedisKeyHistoryPrefix = "ratio:history:"
)

// Defaults
const (
	DefaultPoolLimit   = 5
	DefaultDays        = 90
	DefaultTickCount   = 10
	DefaultChartHeight = 15
	WeeklyBucketDays   = 7
)

// API server
const (
	DefaultRatioRate      = 0.5 // requests per second per client
	DefaultRequestTimeout = 60 * time.Second
)

// Well-known Solana mints, used for display names only.
var TokenSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": "ETH",
	"3NZ9JMVBmGAqocybic2c7LQCJScmgsAZ6vQqTDzcqmJh": "BTC",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr": "POPCAT",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
	"orcaEKTdK7LKz57vaAYr9QeNsVEPfiu6QeMU1kektZE":  "ORCA",
}
