// Package config loads server configuration from the environment.
//
// All variables are prefixed LUMEN_. In development a .env file in the
// working directory is honored (loaded by cmd/server before Load runs).
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "LUMEN"

// Store backends selectable via LUMEN_STORE.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `envconfig:"ADDR" default:":8080"`

	// Store selects the persistence gateway: json, sqlite, or memory.
	Store string `envconfig:"STORE" default:"json"`

	// DataPath is the snapshot file (json) or database file (sqlite).
	DataPath string `envconfig:"DATA_PATH" default:"data/inventory.json"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json or console
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch strings.ToLower(cfg.Store) {
	case StoreJSON, StoreSQLite, StoreMemory:
		cfg.Store = strings.ToLower(cfg.Store)
	default:
		return nil, fmt.Errorf("unknown store %q (want json, sqlite, or memory)", cfg.Store)
	}
	return &cfg, nil
}
