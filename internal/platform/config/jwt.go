package config

import (
	"fmt"
	"os"
	"time"
)

// JWTConfig configures verification of bearer tokens issued by the account
// service. Tokens are HS256-signed with a shared secret.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string

	ClockSkew time.Duration
}

func LoadJWTConfigFromEnv() (JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	issuer := os.Getenv("JWT_ISSUER")
	audience := os.Getenv("JWT_AUDIENCE")
	if secret == "" || issuer == "" || audience == "" {
		return JWTConfig{}, fmt.Errorf("missing required env vars: JWT_SECRET, JWT_ISSUER, JWT_AUDIENCE")
	}

	cfg := JWTConfig{
		Secret:    secret,
		Issuer:    issuer,
		Audience:  audience,
		ClockSkew: 30 * time.Second,
	}

	if v := os.Getenv("JWT_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return JWTConfig{}, fmt.Errorf("JWT_CLOCK_SKEW must be a duration (e.g. 30s): %w", err)
		}
		cfg.ClockSkew = d
	}

	return cfg, nil
}
