// Package config loads plangate settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into Config.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrInvalidStore is returned for an unknown PLANGATE_STORE value.
	ErrInvalidStore = errors.New("invalid session store")
)

// Store names a session store backend.
type Store string

const (
	StoreFile    Store = "file"
	StoreKeyring Store = "keyring"
	StoreRedis   Store = "redis"
	StoreMemory  Store = "memory"
)

// Config holds every setting plangate reads from its environment.
type Config struct {
	APIURL string `env:"PLANGATE_API_URL" envDefault:"http://localhost:8000"`
	// Token overrides the stored session for this process only.
	Token string `env:"PLANGATE_TOKEN"`
	Store Store  `env:"PLANGATE_STORE" envDefault:"file"`
	// Home is where the file store and log file live. Defaults to ~/.plangate.
	Home     string `env:"PLANGATE_HOME"`
	RedisURL string `env:"PLANGATE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	APIKey   string `env:"PLANGATE_API_KEY"`
	// Password lets register/login run without a prompt.
	Password string `env:"PLANGATE_PASSWORD"`

	// GuestCheckout leaves the purchase flow open to anonymous buyers.
	GuestCheckout bool `env:"PLANGATE_GUEST_CHECKOUT" envDefault:"true"`

	// HTTPTimeout bounds each backend call. Zero waits forever.
	HTTPTimeout time.Duration `env:"PLANGATE_HTTP_TIMEOUT" envDefault:"0s"`

	LogLevel  string `env:"PLANGATE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"PLANGATE_LOG_FORMAT" envDefault:"text"`
	// LogFile is a path, or "-" for stderr. Defaults to <Home>/plangate.log.
	LogFile string `env:"PLANGATE_LOG_FILE"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment into a Config and fills derived defaults.
func Load() (Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load() //nolint:errcheck
	return parse(env.Options{})
}

// LoadFrom parses cfg from an explicit variable map, ignoring the process
// environment. Used by tests and embedders.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	switch cfg.Store {
	case StoreFile, StoreKeyring, StoreRedis, StoreMemory:
	default:
		return Config{}, fmt.Errorf("config.Load: %w: %q", ErrInvalidStore, cfg.Store)
	}
	if cfg.HTTPTimeout < 0 {
		return Config{}, fmt.Errorf("config.Load: %w: negative PLANGATE_HTTP_TIMEOUT", ErrParsingConfig)
	}
	if cfg.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("config.Load: get home dir: %w", err)
		}
		cfg.Home = filepath.Join(home, ".plangate")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.Home, "plangate.log")
	}
	return cfg, nil
}
