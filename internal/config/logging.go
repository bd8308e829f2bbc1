package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "YOUMU_LOG_LEVEL"

// ParseLogLevel maps debug|info|warn|warning|error (any case) to a slog level.
// An empty string is info.
func ParseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}
