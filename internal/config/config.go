package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	API struct {
		BaseURL string `yaml:"base_url" validate:"required,url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Credentials struct {
		Backend string `yaml:"backend" validate:"oneof=file redis memory"`
		Path    string `yaml:"path" validate:"required_if=Backend file"`
		// Secret seals the stored token. Empty means a key file next to Path.
		Secret  string `yaml:"secret"`
		Profile string `yaml:"profile"`
	} `yaml:"credentials"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Archive struct {
		Backend string `yaml:"backend" validate:"oneof=file postgres memory"`
		Path    string `yaml:"path" validate:"required_if=Backend file"`
	} `yaml:"archive"`
	Log struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
		Env   string `yaml:"env" validate:"oneof=development production"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.API.BaseURL = "https://quiz.nuclear-motd.com/api/"
	cfg.Credentials.Backend = BackendFile
	cfg.Credentials.Path = defaultPath("credentials.json")
	cfg.Credentials.Profile = "default"
	cfg.Archive.Backend = BackendFile
	cfg.Archive.Path = defaultPath("history.json")
	cfg.Log.Level = "warn"
	cfg.Log.Env = "production"
	return cfg
}

func defaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "quiz-client", name)
}

// Load reads YAML config from path on top of Default, then applies .env and
// QUIZ_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	for name, raw := range map[string]string{"api.timeout": cfg.API.Timeout, "redis.ttl": cfg.Redis.TTL} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return cfg, fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	if cfg.Credentials.Backend == BackendRedis && cfg.Redis.Addr == "" {
		return cfg, errors.New("invalid config: redis credentials backend needs redis.addr")
	}
	if cfg.Archive.Backend == BackendPostgres && cfg.Postgres.URL == "" {
		return cfg, errors.New("invalid config: postgres archive backend needs postgres.url")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"QUIZ_API_URL":             &cfg.API.BaseURL,
		"QUIZ_CREDENTIALS_SECRET":  &cfg.Credentials.Secret,
		"QUIZ_CREDENTIALS_BACKEND": &cfg.Credentials.Backend,
		"QUIZ_REDIS_ADDR":          &cfg.Redis.Addr,
		"QUIZ_POSTGRES_URL":        &cfg.Postgres.URL,
		"QUIZ_ARCHIVE_BACKEND":     &cfg.Archive.Backend,
		"QUIZ_LOG_LEVEL":           &cfg.Log.Level,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
