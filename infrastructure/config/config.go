package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"archboard-backend/pkg/utils"
)

// Config is the process-level configuration, loaded once at startup.
type Config struct {
	ServerAddress string `validate:"required"`
	Environment   string `validate:"required,oneof=development staging production"`

	AWSRegion     string `validate:"required"`
	DynamoDBTable string
	EventBusName  string

	WebSocketEndpoint string
	ConnectionsTable  string

	// Editing behavior
	FadeOutDuration time.Duration
	CacheTTLSeconds int `validate:"gte=0"`

	JWTSecret string
	JWTIssuer string `validate:"required"`

	EnableMetrics bool
}

// LoadConfig reads configuration from the environment, applies defaults,
// and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: envOr("SERVER_ADDRESS", ":8080"),
		Environment:   envOr("ENVIRONMENT", "development"),

		AWSRegion:     envOr("AWS_REGION", "us-west-2"),
		DynamoDBTable: envOr("TABLE_NAME", envOr("DYNAMODB_TABLE", "archboard")),
		EventBusName:  envOr("EVENT_BUS_NAME", "archboard-events"),

		WebSocketEndpoint: os.Getenv("WEBSOCKET_ENDPOINT"),
		ConnectionsTable:  envOr("CONNECTIONS_TABLE", "archboard-connections"),

		FadeOutDuration: time.Duration(envIntOr("FADE_OUT_MS", 300)) * time.Millisecond,
		CacheTTLSeconds: envIntOr("CACHE_TTL_SECONDS", 300),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: envOr("JWT_ISSUER", "archboard-backend"),

		EnableMetrics: envBoolOr("ENABLE_METRICS", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the tag rules plus the stricter production checks.
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required in production")
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "":
		return fallback
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
