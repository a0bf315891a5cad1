// Package config loads settings from the environment (and an optional .env file).
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name, e.g. BGI_DB_PATH.
const Prefix = "bgi"

type Config struct {
	DBPath      string `envconfig:"DB_PATH" default:"~/.bginsights/insights.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	UserID      int64  `envconfig:"USER_ID" default:"1"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`

	// embedded so their variables share the BGI_ prefix
	Anthropic
	Engine
}

type Anthropic struct {
	// APIKey falls back to the bare ANTHROPIC_API_KEY.
	APIKey string `envconfig:"ANTHROPIC_API_KEY"`
	Model  string `envconfig:"ANTHROPIC_MODEL" default:"claude-haiku-4-5-20251001"`
}

type Engine struct {
	MinCoreMatches int `envconfig:"MIN_CORE_MATCHES" default:"2"`
}

// Load reads .env from the working directory when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return New()
}

// New reads the environment only.
func New() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, err
	}
	c.DBPath = expandHome(c.DBPath)
	return &c, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
