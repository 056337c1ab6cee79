package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTAccessSecret []byte
	CookieSecure    bool

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	PaymentURL       string
	PaymentKeyID     string
	PaymentKeySecret string
	PaymentCurrency  string

	ChatURL         string
	ChatAPIKey      string
	ChatModel       string
	ChatTimeout     time.Duration
	ChatHistory     int
	ChatMaxSessions int

	LowStockThreshold int
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(EnvDefault("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		CookieSecure:    EnvDefault("COOKIE_SECURE", "false") == "true",

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		PaymentURL:       os.Getenv("PAYMENT_URL"),
		PaymentKeyID:     os.Getenv("PAYMENT_KEY_ID"),
		PaymentKeySecret: os.Getenv("PAYMENT_KEY_SECRET"),
		PaymentCurrency:  EnvDefault("PAYMENT_CURRENCY", "INR"),

		ChatURL:         os.Getenv("CHAT_URL"),
		ChatAPIKey:      os.Getenv("CHAT_API_KEY"),
		ChatModel:       EnvDefault("CHAT_MODEL", "gemini-1.5-flash"),
		ChatTimeout:     time.Duration(EnvIntDefault("CHAT_TIMEOUT", 10)) * time.Second,
		ChatHistory:     EnvIntDefault("CHAT_HISTORY", 10),
		ChatMaxSessions: EnvIntDefault("CHAT_MAX_SESSIONS", 1000),

		LowStockThreshold: EnvIntDefault("LOW_STOCK_THRESHOLD", 5),
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
	if v := os.Getenv(key); v != "" {
		return v
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
