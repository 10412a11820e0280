package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret []byte

	KafkaBrokers     []string
	OrderEventsTopic string

	ESURL          string
	ESUser         string
	ESPassword     string
	ESProductIndex string

	CheckoutLockTimeout time.Duration
	MaxCartLines        int

	CSRFCookieSecure bool
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),

		KafkaBrokers:     CSV(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: EnvDefault("ORDER_EVENTS_TOPIC", "order_events"),

		ESURL:          os.Getenv("ES_URL"),
		ESUser:         os.Getenv("ES_USER"),
		ESPassword:     os.Getenv("ES_PASSWORD"),
		ESProductIndex: EnvDefault("ES_PRODUCT_INDEX", "product"),

		CheckoutLockTimeout: EnvDurationDefault("CHECKOUT_LOCK_TIMEOUT", 5*time.Second),
		MaxCartLines:        EnvIntDefault("MAX_CART_LINES", 100),

		CSRFCookieSecure: EnvBoolDefault("CSRF_COOKIE_SECURE", false),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvDurationDefault accepts Go duration strings ("750ms", "5s").
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}
