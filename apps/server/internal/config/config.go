// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"blackjack-lite/apps/server/internal/ledger"
)

const (
	defaultAddr        = ":8080"
	defaultShoeDecks   = 6
	defaultLocalDBName = "blackjack_local.db"
	defaultRedisURL    = "redis://localhost:6379/0"
)

type Config struct {
	Addr      string
	ShoeDecks int
	// Seed 0 seeds shuffles from the clock.
	Seed   int64
	Ledger ledger.Config
}

// Load builds a Config from BLACKJACK_* and LEDGER_* variables.
func Load() (Config, error) {
	cfg := Config{
		Addr:      envOrDefault("BLACKJACK_ADDR", defaultAddr),
		ShoeDecks: envIntOrDefault("BLACKJACK_SHOE_DECKS", defaultShoeDecks),
		Ledger: ledger.Config{
			Mode:        strings.ToLower(envOrDefault("LEDGER_MODE", "memory")),
			DatabaseDSN: ledgerDSNFromEnv(),
			RedisURL:    envOrDefault("LEDGER_REDIS_URL", defaultRedisURL),
			RecentLimit: envIntOrDefault("LEDGER_RECENT_LIMIT", 0),
		},
	}

	if raw := strings.TrimSpace(os.Getenv("BLACKJACK_SEED")); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("BLACKJACK_SEED: %w", err)
		}
		cfg.Seed = seed
	}

	if cfg.Ledger.Mode == "sqlite" || cfg.Ledger.Mode == "local" {
		path, err := ledgerLocalDatabasePathFromEnv()
		if err != nil {
			return Config{}, err
		}
		cfg.Ledger.LocalDatabasePath = path
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func ledgerDSNFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("LEDGER_DATABASE_DSN")); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

func ledgerLocalDatabasePathFromEnv() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("LEDGER_LOCAL_DATABASE_PATH")),
		strings.TrimSpace(os.Getenv("LOCAL_DATABASE_PATH")),
	}
	for _, candidate := range candidates {
		if candidate != "" {
			return filepath.Clean(candidate), nil
		}
	}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "BlackjackLite", defaultLocalDBName), nil
}
