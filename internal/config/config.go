package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	DBPath     string
	Location   *time.Location
	Env        string // dev|prod
	LogLevel   string
	SessionTTL time.Duration

	// AllowStartEdit lets the edit flow move a booking's start time.
	// Off by default: ticketing only ever adjusts duration today.
	AllowStartEdit bool

	// Bootstrap director account, created on first start if no users exist.
	BootstrapEmail    string
	BootstrapPassword string
}

func Load() (*Config, error) {
	tz := getenv("TZ", "America/Santiago")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	ttl := 12 * time.Hour
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			ttl = time.Duration(h) * time.Hour
		}
	}

	cfg := &Config{
		Addr:              getenv("ADDR", ":8080"),
		DBPath:            getenv("DB_PATH", "skisched.db"),
		Location:          loc,
		Env:               getenv("ENV", "dev"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		SessionTTL:        ttl,
		AllowStartEdit:    os.Getenv("ALLOW_START_EDIT") == "1",
		BootstrapEmail:    os.Getenv("BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("BOOTSTRAP_PASSWORD"),
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
