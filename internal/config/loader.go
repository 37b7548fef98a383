// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/nightchill/checkin-service/pkg/apperr"
	"github.com/nightchill/checkin-service/pkg/state"
	"github.com/sirupsen/logrus"
)

const (
	EnvironmentProduction = "production"

	// DevJWTSecret is used only outside production when JWT_SECRET is unset.
	DevJWTSecret = "dev-jwt-secret-change-in-production"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// In production (Docker/K8s), environment variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
// Outside production a missing JWT secret is replaced by DevJWTSecret;
// the QR secret fallback is applied by the voucher signer.
//
// ============================================================
// DEVELOPER: Add custom validation logic here.
// ============================================================
func (c *Config) Validate() error {
	for name, port := range map[string]int{"HTTP_PORT": c.HTTPPort, "GRPC_PORT": c.GRPCPort, "METRICS_PORT": c.MetricsPort} {
		if port < 1 || port > 65535 {
			return apperr.Configuration("invalid %s: %d (must be 1-65535)", name, port)
		}
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return apperr.Configuration("invalid LOG_LEVEL: %s", c.LogLevel)
	}

	if _, err := state.NewStreakPolicy(c.StreakPolicy); err != nil {
		return apperr.Configuration("invalid STREAK_POLICY: %s", c.StreakPolicy)
	}

	if c.IsProduction() {
		if c.QRSecret == "" {
			return apperr.Configuration("QR_SECRET must be set in production")
		}
		if c.JWTSecret == "" {
			return apperr.Configuration("JWT_SECRET must be set in production")
		}
	} else if c.JWTSecret == "" {
		logrus.Warnf("JWT_SECRET not set, using development secret (environment=%s)", c.Environment)
		c.JWTSecret = DevJWTSecret
	}

	if c.ExpirySweepInterval < 0 {
		return apperr.Configuration("EXPIRY_SWEEP_INTERVAL must not be negative")
	}
	if c.CheckInRatePerMinute < 0 {
		return apperr.Configuration("CHECKIN_RATE_PER_MINUTE must not be negative")
	}
	if c.LockTTL <= 0 || c.LockMaxWait < 0 {
		return apperr.Configuration("check-in lock ttl must be positive and max wait not negative")
	}

	return nil
}
