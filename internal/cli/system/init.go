package system

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/prescripto/prescripto/internal/cli"
)

type InitCmd struct {
	Force       bool `help:"Force reset by deleting the existing local database before initialization."`
	WriteConfig bool `help:"Write the effective configuration to config.yaml if it does not exist."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		dbPath := ctx.Store.Path()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized prescripto storage at: %s\n", ctx.Store.Path())

	if c.WriteConfig {
		path, err := writeConfig(ctx)
		if err != nil {
			return err
		}
		if path != "" {
			ctx.Printf("Wrote configuration to: %s\n", path)
		}
	}
	return nil
}

type fileConfig struct {
	BackendURL     string `yaml:"backend_url"`
	DBPath         string `yaml:"db_path"`
	RequestTimeout string `yaml:"request_timeout"`
	Debug          bool   `yaml:"debug"`
	LogLevel       string `yaml:"log_level"`
}

// writeConfig saves the effective config next to the logs. An existing file
// is left alone and "" is returned.
func writeConfig(ctx *cli.Context) (string, error) {
	path := filepath.Join(ctx.Config.ConfigDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		ctx.Printf("Config file already exists at: %s\n", path)
		return "", nil
	}

	data, err := yaml.Marshal(fileConfig{
		BackendURL:     ctx.Config.BackendURL,
		DBPath:         ctx.Config.DBPath,
		RequestTimeout: ctx.Config.RequestTimeout.String(),
		Debug:          ctx.Config.Debug,
		LogLevel:       ctx.Config.LogLevel,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(ctx.Config.ConfigDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
