package cargo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/logfields"
	"git.home.luguber.info/inful/youmu/internal/request"
	"git.home.luguber.info/inful/youmu/internal/source"
	"git.home.luguber.info/inful/youmu/internal/workspace"
)

// Builder produces documentation for pkg into ws.DocDir().
type Builder interface {
	Build(ctx context.Context, pkg source.LocalPackage, opts request.BuildOptions, ws *workspace.Workspace) error
}

// maxOutput bounds how much engine output is kept on a failed build.
const maxOutput = 16 * 1024

// Runner invokes `cargo doc`.
type Runner struct {
	// Binary is the cargo executable; "cargo" from PATH when empty.
	Binary string
	// Timeout bounds a single build; zero means no limit.
	Timeout time.Duration
}

// Args returns the cargo arguments for one build.
func Args(manifestPath string, opts request.BuildOptions) []string {
	args := []string{"doc", "--manifest-path", manifestPath}
	if !opts.IncludeDeps {
		args = append(args, "--no-deps")
	}
	if !opts.DefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if len(opts.Features) > 0 {
		args = append(args, "--features", strings.Join(opts.Features, " "))
	}
	return args
}

// Env returns the child environment: the current environment plus the target directory.
func Env(targetDir string) []string {
	base := os.Environ()
	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if !strings.HasPrefix(kv, "CARGO_TARGET_DIR=") {
			env = append(env, kv)
		}
	}
	return append(env, "CARGO_TARGET_DIR="+targetDir)
}

func (r *Runner) binary() string {
	if r.Binary != "" {
		return r.Binary
	}
	return "cargo"
}

func (r *Runner) Build(ctx context.Context, pkg source.LocalPackage, opts request.BuildOptions, ws *workspace.Workspace) error {
	bin, err := exec.LookPath(r.binary())
	if err != nil {
		return derrors.BuildError(fmt.Errorf("%w: %w", ErrCargoNotFound, err))
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := Args(pkg.ManifestPath, opts)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = pkg.Dir
	cmd.Env = Env(ws.TargetDir)
	cmd.WaitDelay = 2 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Invoking cargo",
		logfields.Package(pkg.Resolved.Name),
		logfields.Path(pkg.Dir),
		slog.String("args", strings.Join(args, " ")),
		slog.String("target_dir", ws.TargetDir))

	start := time.Now()
	err = cmd.Run()
	if out := stdout.String(); out != "" {
		slog.Debug("cargo stdout", "output", out)
	}

	if err != nil {
		output := tail(combine(stdout.String(), stderr.String()), maxOutput)
		sentinel := ErrCargoFailed
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			sentinel = ErrTimedOut
		}
		be := derrors.BuildError(fmt.Errorf("%w: %w", sentinel, err)).
			WithContext("package", pkg.Resolved.Name)
		if output != "" {
			be = be.WithContext("output", output)
			be.Message = "build failed: " + output
		}
		return be
	}

	slog.Debug("cargo finished", logfields.Package(pkg.Resolved.Name), logfields.Duration(time.Since(start)))
	return nil
}

func combine(stdout, stderr string) string {
	switch {
	case stderr == "":
		return strings.TrimSpace(stdout)
	case stdout == "":
		return strings.TrimSpace(stderr)
	default:
		return strings.TrimSpace(stdout + "\n" + stderr)
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
