package config

import (
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/youmu/internal/events"
	"git.home.luguber.info/inful/youmu/internal/source"
)

const (
	DefaultHost     = "0.0.0.0"
	DefaultPort     = 8000
	DefaultDocsPath = "./docs"

	// BatchDirName is the batch output directory below the docs root. The
	// leading underscore keeps it clear of package names.
	BatchDirName = "_batch"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultBatchOutput is the batch output root used when none is configured.
func DefaultBatchOutput(docsPath string) string {
	return filepath.Join(docsPath, BatchDirName)
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.DocsPath == "" {
		c.Server.DocsPath = DefaultDocsPath
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Registry.IndexURL == "" {
		c.Registry.IndexURL = source.DefaultIndexURL
	}
	if c.Registry.Timeout == 0 {
		c.Registry.Timeout = 30 * time.Second
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = source.DefaultCacheDir()
	}
	if c.Build.Cargo == "" {
		c.Build.Cargo = "cargo"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = filepath.Join(c.Cache.Dir, "catalog.db")
	}
	if c.Events.Subject == "" {
		c.Events.Subject = events.DefaultSubject
	}
	if c.Batch.Output == "" {
		c.Batch.Output = DefaultBatchOutput(c.Server.DocsPath)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
