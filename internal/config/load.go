package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/logfields"
)

// envFiles are loaded in order; earlier files and the process environment win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the env files that exist without overriding variables
// that are already set.
func loadEnvFiles() {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(f), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(f))
	}
}

// Load reads the configuration at path. An empty path uses DefaultFile when
// it exists and built-in defaults otherwise; an explicit path must exist.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return cfg, cfg.Validate()
		}
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, derrors.ConfigError("configuration file not found: " + path)
	}
	if err != nil {
		return nil, derrors.WrapConfig(err, "failed to read config file")
	}
	if err := decode(data, cfg); err != nil {
		return nil, derrors.WrapConfig(err, "failed to parse config file").WithContext("path", path)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode expands ${VAR} references and decodes strictly into cfg.
func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}
