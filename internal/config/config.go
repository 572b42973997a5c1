package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
type Config struct {
	DiscordToken  string  `env:"DISCORD_TOKEN"`
	ConfigPath    string  `env:"CONFIG_PATH" envDefault:"config.yaml"`
	StorageDriver string  `env:"STORAGE_DRIVER" envDefault:"datastore"`
	StoragePath   string  `env:"STORAGE_PATH" envDefault:"datastore.json"`
	MySQLDSN      string  `env:"MYSQL_DSN"`
	SQLitePath    string  `env:"SQLITE_PATH" envDefault:"connect.db"`
	RedisURL      string  `env:"REDIS_URL"`
	LogLevel      string  `env:"LOG_LEVEL" envDefault:"info"`
	AdminAddr     string  `env:"ADMIN_ADDR"`
	AdminToken    string  `env:"ADMIN_TOKEN"`
	DeveloperID   string  `env:"DEVELOPER_ID"`
	ReplyRate     float64 `env:"REPLY_RATE" envDefault:"5"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.ReplyRate <= 0 {
		return nil, fmt.Errorf("REPLY_RATE must be positive, got %v", cfg.ReplyRate)
	}
	return &cfg, nil
}

// New loads the configuration the bot process needs.
func New() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg.DiscordToken == "" {
		return nil, errors.New("DISCORD_TOKEN is not set")
	}
	return cfg, nil
}
