package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/simplimarked/signup-api/internal/domain"
)

type StorageBackend string

const (
	BackendMemory   StorageBackend = "memory"
	BackendSQLite   StorageBackend = "sqlite"
	BackendPostgres StorageBackend = "postgres"
)

type Config struct {
	Port              int
	Storage           StorageBackend
	DatabaseURL       string
	SQLitePath        string
	SessionPath       domain.SessionPath
	DefaultActor      domain.Actor
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
	LogLevel          string
}

// Load reads the configuration from the environment. Callers wanting .env
// support load the file first.
func Load() (Config, error) {
	cfg := Config{
		Storage:      StorageBackend(strings.ToLower(getenv("STORAGE_BACKEND", string(BackendMemory)))),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:   getenv("SQLITE_PATH", "./data/signup.db"),
		SessionPath:  domain.SessionPath(getenv("SESSION_PATH", "session")),
		DefaultActor: domain.Actor(getenv("DEFAULT_ACTOR", string(domain.DefaultActor))),
		LogLevel:     os.Getenv("LOG_LEVEL"),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getenv("PORT", "8080")); err != nil || cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT must be a TCP port number, got %q", os.Getenv("PORT"))
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ReadHeaderTimeout, err = durationEnv("READ_HEADER_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.Storage {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q (want memory, sqlite or postgres)", cfg.Storage)
	}
	return cfg, nil
}

func (c Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration like 10s, got %q", k, v)
	}
	return d, nil
}
