package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/utils"
)

// Config is the deployment configuration: where the backend lives and where
// local state is kept. User preferences are stored in the database instead.
type Config struct {
	BackendURL     string        `yaml:"backend_url" env:"PRESCRIPTO_BACKEND_URL" env-default:"http://localhost:4000"`
	DBPath         string        `yaml:"db_path" env:"PRESCRIPTO_DB_PATH" env-default:"~/.config/prescripto/prescripto.db"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"PRESCRIPTO_REQUEST_TIMEOUT" env-default:"15s"`
	Debug          bool          `yaml:"debug" env:"PRESCRIPTO_DEBUG" env-default:"false"`
	LogLevel       string        `yaml:"log_level" env:"PRESCRIPTO_LOG_LEVEL" env-default:"warn"`

	// ConfigDir is the directory of the config file; logs are written below it.
	ConfigDir string `yaml:"-" env:"-"`
}

// Load reads the yaml file at path when it exists and then applies
// environment overrides. An empty path means the default location.
func Load(path string) (*Config, error) {
	if path == "" {
		path = constants.DefaultConfigPath
	}
	path, err := utils.ExpandHome(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, statErr := os.Stat(path); statErr == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if errors.Is(statErr, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, statErr)
	}

	cfg.ConfigDir = filepath.Dir(path)
	if cfg.DBPath, err = utils.ExpandHome(cfg.DBPath); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the backend URL and timeout.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend_url %q: must be an http(s) URL", c.BackendURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request_timeout %v: must be positive", c.RequestTimeout)
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	return nil
}

// Usage returns the environment variables understood by Load.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
