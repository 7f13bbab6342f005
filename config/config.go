package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"table-order/models"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Server     Server         `yaml:"server"`
	Backend    Backend        `yaml:"backend"`
	History    History        `yaml:"history"`
	Tables     []models.Table `yaml:"tables"`
	TableToken TableToken     `yaml:"table_token"`
	Log        Log            `yaml:"log"`
}

type Server struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
	// PublicURL is the customer-facing address encoded in table QR codes
	PublicURL string `yaml:"public_url"`
}

type Backend struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollLimit    int           `yaml:"poll_limit"`

	// CatalogInterval paces menu and settings reloads; zero follows PollInterval
	CatalogInterval time.Duration `yaml:"catalog_interval"`
}

type History struct {
	DSN string `yaml:"dsn"`
}

type TableToken struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Server: Server{
			Port:      "8080",
			GinMode:   "release",
			PublicURL: "http://localhost:8080",
		},
		Backend: Backend{
			BaseURL:      "http://localhost:3001/api",
			Timeout:      10 * time.Second,
			PollInterval:    5 * time.Second,
			PollLimit:       100,
			CatalogInterval: time.Minute,
		},
		History: History{DSN: "file::memory:?cache=shared"},
		Tables: []models.Table{
			{ID: 1, Number: "A1", Capacity: 4},
			{ID: 2, Number: "A2", Capacity: 2},
			{ID: 3, Number: "B1", Capacity: 6},
			{ID: 4, Number: "B2", Capacity: 4},
		},
		TableToken: TableToken{Secret: "table_order_dev_secret_change_me"},
		Log:        Log{Level: "info"},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads defaults, then the YAML file at path (if any), then environment
// overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.GinMode = getEnv("GIN_MODE", cfg.Server.GinMode)
	cfg.Server.PublicURL = getEnv("PUBLIC_URL", cfg.Server.PublicURL)
	cfg.Backend.BaseURL = getEnv("BACKEND_URL", cfg.Backend.BaseURL)
	cfg.TableToken.Secret = getEnv("TABLE_TOKEN_SECRET", cfg.TableToken.Secret)
	cfg.History.DSN = getEnv("HISTORY_DSN", cfg.History.DSN)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("%w: server.port is required", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.base_url %q is not an absolute URL", ErrInvalidConfig, c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("%w: backend.timeout must be positive", ErrInvalidConfig)
	}
	if c.Backend.PollInterval <= 0 {
		return fmt.Errorf("%w: backend.poll_interval must be positive", ErrInvalidConfig)
	}
	if c.Backend.CatalogInterval < 0 {
		return fmt.Errorf("%w: backend.catalog_interval must not be negative", ErrInvalidConfig)
	}
	if c.Backend.PollLimit < 0 {
		return fmt.Errorf("%w: backend.poll_limit must not be negative", ErrInvalidConfig)
	}
	if len(c.TableToken.Secret) < 16 {
		return fmt.Errorf("%w: table_token.secret must be at least 16 characters", ErrInvalidConfig)
	}
	seen := map[string]bool{}
	for _, t := range c.Tables {
		if t.ID <= 0 || t.Number == "" {
			return fmt.Errorf("%w: table entries need an id and a number", ErrInvalidConfig)
		}
		if seen[t.Number] {
			return fmt.Errorf("%w: duplicate table %s", ErrInvalidConfig, t.Number)
		}
		seen[t.Number] = true
	}
	return nil
}

// OpenDB opens the status-change journal database and migrates it
func OpenDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.StatusChange{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
