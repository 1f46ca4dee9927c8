package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "ParentPortal"
	defaultAppEnv         = "development"
	defaultLogLevel       = "info"
	defaultStorageDir     = ".portal"
	defaultRequestTimeout = 15 * time.Second
	reqTimeoutSecondsVar  = "REQUEST_TIMEOUT_SECONDS"
	reqTimeoutDurationVar = "REQUEST_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	LogLevel       string
	BackendURL     string
	BackendAPIKey  string
	StorageDir     string
	RedisURL       string
	RequestTimeout time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		BackendURL:     os.Getenv("BACKEND_URL"),
		BackendAPIKey:  os.Getenv("BACKEND_API_KEY"),
		StorageDir:     getEnv("STORAGE_DIR", defaultStorageDir),
		RedisURL:       os.Getenv("REDIS_URL"),
		RequestTimeout: defaultRequestTimeout,
	}

	if v := os.Getenv(reqTimeoutSecondsVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", reqTimeoutSecondsVar, err)
		}
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(reqTimeoutDurationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", reqTimeoutDurationVar, err)
		}
		cfg.RequestTimeout = d
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL must be set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
