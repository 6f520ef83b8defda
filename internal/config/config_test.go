package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken   = "0xc98d64da73a6616c42117b582e832812e7b8d57f"
	testBilling = "0x5a2e6a0c1f6c2e0a6b9c3f2d3a1f0e8b7c6d5e4f"
	testKey     = "2b8258cde747e3820e56a40aec5cd473150c6078819b45afe61baaf1fa1c75e6"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	assert.Equal(t, "value", getEnv("TEST_STRING", "default"))
	assert.Equal(t, "default", getEnv("MISSING_STRING", "default"))

	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 5))
	t.Setenv("TEST_INT", "invalid")
	assert.Equal(t, 5, getEnvAsInt("TEST_INT", 5))

	t.Setenv("TEST_BOOL", "true")
	assert.True(t, getEnvAsBool("TEST_BOOL", false))
	t.Setenv("TEST_BOOL", "invalid")
	assert.True(t, getEnvAsBool("TEST_BOOL", true))

	t.Setenv("TEST_DURATION", "30s")
	assert.Equal(t, 30*time.Second, getEnvAsDuration("TEST_DURATION", time.Minute))
	t.Setenv("TEST_DURATION", "invalid")
	assert.Equal(t, time.Minute, getEnvAsDuration("TEST_DURATION", time.Minute))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GATEWAY_URL", "https://gateway.example.com")
	t.Setenv("TOKEN_CONTRACT_ADDRESS", testToken)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example.com", cfg.GatewayURL)
	assert.Equal(t, "auth_token", cfg.SessionCookie)
	assert.Equal(t, 6532, cfg.APIPort)
	assert.Equal(t, 10*time.Minute, cfg.WithdrawalWatchInterval)
	assert.Equal(t, testToken, cfg.TokenContractAddress)
}

func TestLoadConfigRejectsBadAddress(t *testing.T) {
	t.Setenv("TOKEN_CONTRACT_ADDRESS", "0x1234")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "TOKEN_CONTRACT_ADDRESS")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			GatewayURL:              "http://localhost:3000",
			RequestTimeout:          time.Minute,
			WithdrawalWatchInterval: time.Minute,
			RPCURL:                  "http://localhost:8545",
			TokenContractAddress:    testToken,
			BillingContractAddress:  testBilling,
			WalletPrivateKey:        testKey,
		}
	}

	assert.NoError(t, valid().Validate())
	assert.NoError(t, valid().ValidateBilling())

	cfg := valid()
	cfg.GatewayURL = ""
	assert.ErrorContains(t, cfg.Validate(), "GATEWAY_URL")

	cfg = valid()
	cfg.WalletPrivateKey = "nope"
	assert.ErrorContains(t, cfg.Validate(), "WALLET_PRIVATE_KEY")

	cfg = valid()
	cfg.BillingContractAddress = ""
	assert.NoError(t, cfg.Validate())
	assert.ErrorContains(t, cfg.ValidateBilling(), "BILLING_CONTRACT_ADDRESS")

	cfg = valid()
	cfg.WithdrawalWatchInterval = 0
	assert.ErrorContains(t, cfg.Validate(), "WITHDRAWAL_WATCH_INTERVAL")
}
