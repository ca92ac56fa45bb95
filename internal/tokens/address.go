package tokens

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/constants"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/gagliardetto/solana-go"
)

var evmAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidateAddress checks a token address against the network's format:
// base58 public keys on Solana, 0x-prefixed hex elsewhere.
func ValidateAddress(network, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("%w: token address is required", storage.ErrInvalidInput)
	}

	if IsSolana(network) {
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return fmt.Errorf("%w: %q is not a solana address: %v", storage.ErrInvalidInput, address, err)
		}
		return nil
	}

	if !evmAddressRe.MatchString(address) {
		return fmt.Errorf("%w: %q is not a %s address", storage.ErrInvalidInput, address, network)
	}
	return nil
}

// IsSolana reports whether the network uses Solana addressing.
func IsSolana(network string) bool {
	n := strings.ToLower(strings.TrimSpace(network))
	return n == "" || n == "solana" || n == "solana-devnet"
}

// Symbol returns the known symbol for a mint, or a shortened address.
func Symbol(address string) string {
	if symbol, ok := constants.TokenSymbols[address]; ok {
		return symbol
	}
	if len(address) > 8 {
		return address[:4] + "..." + address[len(address)-4:]
	}
	return address
}
