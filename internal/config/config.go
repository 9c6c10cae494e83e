// Package config loads runtime settings from the environment, with a
// .env file honoured when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DataDir          string
	GmailCredentials string
	GmailToken       string
	PollInterval     time.Duration
	ModelName        string
}

// Load reads the environment. Every setting has a working default, so
// the service starts with no configuration at all.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:             getenv("PORT", "8080"),
		DataDir:          getenv("DATA_DIR", "data"),
		GmailCredentials: getenv("GMAIL_CREDENTIALS", "credentials.json"),
		GmailToken:       getenv("GMAIL_TOKEN", "token.json"),
		PollInterval:     getDuration("POLL_INTERVAL_SECONDS", 30*time.Second),
		ModelName:        getenv("MODEL_NAME", "gemini-1.5-flash"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
