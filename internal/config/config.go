package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries the runtime settings of the service. A missing .env file is
// fine; everything has a default suitable for local development.
type Config struct {
	HTTPAddr          string
	PostgresDSN       string
	KafkaBrokers      []string
	PlatformAccountID string
}

// Load reads configuration from the environment, after loading .env if present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:          getenv("HTTP_ADDR", ":8081"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		PlatformAccountID: getenv("PLATFORM_ACCOUNT_ID", "platform"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
