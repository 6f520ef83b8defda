package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"valid with prefix", "0xc98d64da73a6616c42117b582e832812e7b8d57f", false},
		{"valid without prefix", "c98d64da73a6616c42117b582e832812e7b8d57f", false},
		{"empty", "", true},
		{"too short", "0x1234", true},
		{"core address length", "0xcb82a5fd22b9bee8b8ab877c86e0a83a1a7e6e3f2c1b", true},
		{"non hex", "0xzz8d64da73a6616c42117b582e832812e7b8d57f", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAndParseAddress(t *testing.T) {
	addr, err := ValidateAndParseAddress("0xc98d64da73a6616c42117b582e832812e7b8d57f")
	assert.NoError(t, err)
	assert.True(t, strings.EqualFold("0xc98d64da73a6616c42117b582e832812e7b8d57f", addr.Hex()))
}

func TestValidatePrivateKey(t *testing.T) {
	assert.NoError(t, ValidatePrivateKey("2b8258cde747e3820e56a40aec5cd473150c6078819b45afe61baaf1fa1c75e6"))
	assert.NoError(t, ValidatePrivateKey("0x2b8258cde747e3820e56a40aec5cd473150c6078819b45afe61baaf1fa1c75e6"))
	assert.Error(t, ValidatePrivateKey("2b8258"))
	assert.Error(t, ValidatePrivateKey("zz8258cde747e3820e56a40aec5cd473150c6078819b45afe61baaf1fa1c75e6"))
}

func TestValidatePrivateKeyOutsideCurve(t *testing.T) {
	// zero and the secp256k1 group order are well formed hex but not keys
	assert.Error(t, ValidatePrivateKey("0000000000000000000000000000000000000000000000000000000000000000"))
	assert.Error(t, ValidatePrivateKey("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"))
}
