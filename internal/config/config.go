// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// ============================================================
// DEVELOPER: Add new configuration fields here.
// ============================================================
// Use struct tags to define:
// - `env:"VAR_NAME"` - the environment variable name
// - `envDefault:"value"` - set a default value
//
// After adding fields here, update loader.go Validate() if custom
// validation is needed.
// ============================================================
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"3000"`
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"nightchill-checkin"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Redis configuration (primary store)
	// ============================================================
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisDB           int    `env:"REDIS_DB" envDefault:"0"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// ============================================================
	// Optional integrations
	// ============================================================
	// DatabaseURL enables the Postgres ledger of check-ins and redemptions.
	DatabaseURL      string   `env:"DATABASE_URL"`
	DatabaseMaxConns int      `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopicPrefix string   `env:"KAFKA_TOPIC_PREFIX" envDefault:"nightchill"`

	// ============================================================
	// Secrets
	// ============================================================
	QRSecret  string `env:"QR_SECRET"`
	JWTSecret string `env:"JWT_SECRET"`

	// ============================================================
	// Domain configuration
	// ============================================================
	StreakPolicy         string        `env:"STREAK_POLICY" envDefault:"hours_since_last"`
	ConfigPath           string        `env:"CONFIG_PATH" envDefault:"config/pipeline.yaml"`
	LocationsSeedPath    string        `env:"LOCATIONS_SEED_PATH" envDefault:"config/locations.yaml"`
	ExpirySweepInterval  time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"10m"`
	CORSAllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	CheckInRatePerMinute int           `env:"CHECKIN_RATE_PER_MINUTE" envDefault:"6"`
	LockTTL              time.Duration `env:"CHECKIN_LOCK_TTL" envDefault:"10s"`
	LockMaxWait          time.Duration `env:"CHECKIN_LOCK_MAX_WAIT" envDefault:"3s"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ZipkinEndpoint string `env:"ZIPKIN_ENDPOINT"`
}

// IsProduction reports whether the service runs with production guarantees
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// RedisAddr returns host:port
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
