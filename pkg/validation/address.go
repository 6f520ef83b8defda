package validation

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ValidateAddress validates an EVM address (20 bytes, hex, optional 0x prefix).
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}

	normalized := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(normalized) != 2*common.AddressLength {
		return fmt.Errorf("invalid address length: expected %d characters (without 0x), got %d", 2*common.AddressLength, len(normalized))
	}

	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid hex address: %s", addr)
	}

	return nil
}

// ValidateAndParseAddress validates an address and returns it as a common.Address.
func ValidateAndParseAddress(addr string) (common.Address, error) {
	if err := ValidateAddress(addr); err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(addr), nil
}

// ValidatePrivateKey checks that key is a usable secp256k1 private key in
// hex (0x prefix allowed).
func ValidatePrivateKey(key string) error {
	normalized := strings.TrimPrefix(strings.TrimPrefix(key, "0x"), "0X")
	if _, err := crypto.HexToECDSA(normalized); err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	return nil
}
