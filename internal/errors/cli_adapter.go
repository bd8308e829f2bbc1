package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	ye, ok := As(err)
	if !ok {
		return 1
	}

	switch ye.Category {
	case CategoryConfig:
		return 7
	case CategoryResolution:
		return 3
	case CategoryFetch:
		return 8
	case CategoryWorkspace, CategoryBuild:
		return 11
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	ye, ok := As(err)
	if !ok || a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}

	switch ye.Category {
	case CategoryConfig, CategoryResolution:
		return ye.Message
	default:
		if ye.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", ye.Category, ye.Message, ye.Cause)
		}
		return fmt.Sprintf("%s: %s", ye.Category, ye.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	if a.verbose {
		a.logError(err)
	}

	fmt.Fprintf(a.out, "%s\n", a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

// logError logs an error with its classification attributes.
func (a *CLIErrorAdapter) logError(err error) {
	ye, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{slog.String("category", string(ye.Category))}
	if ye.Reason != ReasonNone {
		attrs = append(attrs, slog.String("reason", string(ye.Reason)))
	}
	for k, v := range ye.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	level := slog.LevelError
	if ye.Severity == SeverityWarning {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, ye.Message, attrs...)
}
