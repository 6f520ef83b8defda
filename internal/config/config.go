package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/rss3-network/gateway-dashboard/pkg/validation"
)

type Config struct {
	Development bool
	// API configuration
	APIPort int

	// Gateway configuration
	GatewayURL string
	// SessionCookie is the name of the cookie that carries the gateway session.
	SessionCookie string
	SessionToken  string
	// RequestTimeout bounds every gateway and RPC call started from the CLI.
	RequestTimeout time.Duration

	// Blockchain configuration
	RPCURL                 string
	ChainID                int64
	TokenContractAddress   string
	BillingContractAddress string
	WalletPrivateKey       string

	// Notification configuration
	TelegramBotToken string
	TelegramChatID   string

	// SMTP configuration
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	SMTPSender        string
	NotificationEmail string

	// WithdrawalWatchInterval is how often `billing watch` polls the gateway.
	WithdrawalWatchInterval time.Duration
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:    getEnvAsBool("DEVELOPMENT", false),
		APIPort:        getEnvAsInt("API_PORT", 6532),
		GatewayURL:     getEnv("GATEWAY_URL", "http://localhost:3000"),
		SessionCookie:  getEnv("GATEWAY_SESSION_COOKIE", "auth_token"),
		SessionToken:   getEnv("GATEWAY_SESSION_TOKEN", ""),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 2*time.Minute),

		RPCURL:                 getEnv("RPC_URL", "http://localhost:8545"),
		ChainID:                int64(getEnvAsInt("CHAIN_ID", 0)),
		TokenContractAddress:   getEnv("TOKEN_CONTRACT_ADDRESS", ""),
		BillingContractAddress: getEnv("BILLING_CONTRACT_ADDRESS", ""),
		WalletPrivateKey:       getEnv("WALLET_PRIVATE_KEY", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SMTPSender:        getEnv("SMTP_SENDER", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),

		WithdrawalWatchInterval: getEnvAsDuration("WITHDRAWAL_WATCH_INTERVAL", 10*time.Minute),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set.
// Contract addresses and the wallet key are optional as a whole (key-only
// commands work without them) but must be well formed when present.
func (c *Config) Validate() error {
	if c.GatewayURL == "" {
		return fmt.Errorf("GATEWAY_URL is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.WithdrawalWatchInterval <= 0 {
		return fmt.Errorf("WITHDRAWAL_WATCH_INTERVAL must be positive")
	}

	if c.TokenContractAddress != "" {
		if err := validation.ValidateAddress(c.TokenContractAddress); err != nil {
			return fmt.Errorf("invalid TOKEN_CONTRACT_ADDRESS format: %w", err)
		}
	}
	if c.BillingContractAddress != "" {
		if err := validation.ValidateAddress(c.BillingContractAddress); err != nil {
			return fmt.Errorf("invalid BILLING_CONTRACT_ADDRESS format: %w", err)
		}
	}
	if c.WalletPrivateKey != "" {
		if err := validation.ValidatePrivateKey(c.WalletPrivateKey); err != nil {
			return fmt.Errorf("invalid WALLET_PRIVATE_KEY: %w", err)
		}
	}

	return nil
}

// ValidateBilling checks the settings needed to talk to the contracts.
func (c *Config) ValidateBilling() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}
	if c.TokenContractAddress == "" {
		return fmt.Errorf("TOKEN_CONTRACT_ADDRESS is required")
	}
	if c.BillingContractAddress == "" {
		return fmt.Errorf("BILLING_CONTRACT_ADDRESS is required")
	}
	if c.WalletPrivateKey == "" {
		return fmt.Errorf("WALLET_PRIVATE_KEY is required")
	}
	return nil
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
