package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustPositive(value int, envName string) {
	if value <= 0 {
		log.Fatalf("env %s must be > 0, got %d", envName, value)
	}
}

// MustLoad returns the configuration with every required value checked.
func MustLoad() Config {
	cfg := Load()

	MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	MustPositive(cfg.MaxCartLines, "MAX_CART_LINES")

	return cfg
}
