// Package config loads youmu's YAML configuration.
//
// The file is optional. Values may reference environment variables as
// ${VAR}; variables from .env and .env.local in the working directory are
// loaded first without overriding the process environment.
package config

import (
	"time"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "youmu.yaml"

// Config is the complete youmu configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Registry RegistryConfig `yaml:"registry"`
	Cache    CacheConfig    `yaml:"cache"`
	Build    BuildConfig    `yaml:"build"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Events   EventsConfig   `yaml:"events"`
	Batch    BatchConfig    `yaml:"batch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DocsPath string `yaml:"docs_path"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RegistryConfig selects the package index.
type RegistryConfig struct {
	IndexURL string        `yaml:"index_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CacheConfig locates downloaded sources and checkouts.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// BuildConfig configures the build engine and workspaces.
type BuildConfig struct {
	Cargo string `yaml:"cargo"`
	// TargetDir, when set, is a persistent target directory reused by every build.
	TargetDir string `yaml:"target_dir"`
	// Timeout bounds one build; zero means no limit.
	Timeout      time.Duration `yaml:"timeout"`
	WorkspaceDir string        `yaml:"workspace_dir"`
	// GitDepth > 0 makes git clones shallow.
	GitDepth int `yaml:"git_depth"`
}

// CatalogConfig locates the catalog database.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// EventsConfig enables build event publishing when NATSURL is set.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// BatchConfig drives scheduled batch runs inside the server.
type BatchConfig struct {
	File            string        `yaml:"file"`
	Output          string        `yaml:"output"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Watch           bool          `yaml:"watch"`
}

// LoggingConfig sets the log level (debug, info, warn, error).
type LoggingConfig struct {
	Level string `yaml:"level"`
}
