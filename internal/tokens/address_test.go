package tokens

import (
	"errors"
	"testing"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	valid := []struct{ network, addr string }{
		{"solana", "So11111111111111111111111111111111111111112"},
		{"solana", "  EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v "},
		{"", "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"},
		{"eth", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"},
		{"base", "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"},
	}
	for _, v := range valid {
		assert.NoError(t, ValidateAddress(v.network, v.addr), "%s %s", v.network, v.addr)
	}

	invalid := []struct{ network, addr string }{
		{"solana", ""},
		{"solana", "not-base58-0OIl"},
		{"solana", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"},
		{"eth", "So11111111111111111111111111111111111111112"},
		{"eth", "0x1234"},
	}
	for _, v := range invalid {
		err := ValidateAddress(v.network, v.addr)
		assert.Error(t, err, "%s %s", v.network, v.addr)
		assert.True(t, errors.Is(err, storage.ErrInvalidInput))
	}
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "SOL", Symbol("So11111111111111111111111111111111111111112"))
	assert.Equal(t, "Abcd...wxyz", Symbol("Abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "short", Symbol("short"))
}

func TestIsSolana(t *testing.T) {
	assert.True(t, IsSolana("Solana"))
	assert.True(t, IsSolana(""))
	assert.False(t, IsSolana("eth"))
}
