package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
)

// Validate reports the first invalid setting as a config error.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return derrors.ConfigError(fmt.Sprintf("server.port out of range: %d", c.Server.Port)).
			WithContext("field", "server.port")
	}
	u, err := url.Parse(c.Registry.IndexURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return derrors.ConfigError("registry.index_url must be an http(s) URL").
			WithContext("field", "registry.index_url").
			WithContext("value", c.Registry.IndexURL)
	}
	durations := []struct {
		field string
		value time.Duration
	}{
		{"registry.timeout", c.Registry.Timeout},
		{"build.timeout", c.Build.Timeout},
		{"batch.refresh_interval", c.Batch.RefreshInterval},
	}
	for _, d := range durations {
		if d.value < 0 {
			return derrors.ConfigError(d.field+" must not be negative").WithContext("field", d.field)
		}
	}
	if c.Build.GitDepth < 0 {
		return derrors.ConfigError("build.git_depth must not be negative").WithContext("field", "build.git_depth")
	}
	if (c.Batch.RefreshInterval > 0 || c.Batch.Watch) && c.Batch.File == "" {
		return derrors.ConfigRequired("batch.file")
	}
	if err := CheckBatchOutput(c.Server.DocsPath, c.Batch.Output); err != nil {
		return err
	}
	if c.Events.NATSURL != "" && !strings.Contains(c.Events.NATSURL, "://") {
		return derrors.ConfigError("events.nats_url must include a scheme").WithContext("field", "events.nats_url")
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return derrors.WrapConfig(err, "invalid logging.level").WithContext("field", "logging.level")
	}
	return nil
}

// CheckBatchOutput rejects a batch output root that is the docs root or one of
// its ancestors. Batch entries publish to <output>/<package>, which would
// replace the versioned trees below <docs>/<package>.
func CheckBatchOutput(docsPath, output string) error {
	docs, err := filepath.Abs(docsPath)
	if err != nil {
		return derrors.WrapConfig(err, "invalid server.docs_path").WithContext("field", "server.docs_path")
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return derrors.WrapConfig(err, "invalid batch.output").WithContext("field", "batch.output")
	}
	rel, err := filepath.Rel(out, docs)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return derrors.ConfigError("batch.output must not be server.docs_path or contain it").
			WithContext("field", "batch.output").
			WithContext("value", output)
	}
	return nil
}
