// Package commands implements the youmu command line: serve, doc and konpaku.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/youmu/internal/config"
)

// Global is bound into every command's Run.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: youmu.yaml when present)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve   ServeCmd   `cmd:"" help:"Serve generated documentation and accept build requests over HTTP"`
	Doc     DocCmd     `cmd:"" help:"Build documentation for one package"`
	Konpaku KonpakuCmd `cmd:"" help:"Build documentation for every package listed in a batch file"`
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = setupLogging(c.Verbose, "")
	return nil
}

// loadConfig reads the configuration and re-applies the log level it names
// unless --verbose or the environment already chose one.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = setupLogging(c.Verbose, cfg.Logging.Level)
	return cfg, nil
}

// setupLogging installs a text handler on stderr. Precedence: --verbose,
// then YOUMU_LOG_LEVEL, then the configured level.
func setupLogging(verbose bool, configured string) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case os.Getenv(config.LogLevelEnv) != "":
		if l, err := config.ParseLogLevel(os.Getenv(config.LogLevelEnv)); err == nil {
			level = l
		}
	case configured != "":
		if l, err := config.ParseLogLevel(configured); err == nil {
			level = l
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// stdout is w, or os.Stdout when w is nil.
func stdout(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stdout
}
