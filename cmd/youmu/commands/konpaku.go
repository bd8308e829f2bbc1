package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/youmu/internal/batch"
	"git.home.luguber.info/inful/youmu/internal/config"
)

// KonpakuCmd implements the 'konpaku' batch command.
type KonpakuCmd struct {
	Path      string `arg:"" help:"Batch file (YAML list of packages)" type:"path"`
	Output    string `short:"o" help:"Output root; each entry lands in <output>/<package> (default: batch.output, ./docs/_batch)" type:"path"`
	KeepGoing bool   `name:"keep-going" help:"Continue past failed entries and report all failures at the end"`
	DryRun    bool   `name:"dry-run" help:"Write placeholder docs instead of running cargo"`

	out io.Writer
}

func (k *KonpakuCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	output := k.Output
	if output == "" {
		output = cfg.Batch.Output
	}
	if err := config.CheckBatchOutput(cfg.Server.DocsPath, output); err != nil {
		return err
	}

	app, err := newApp(cfg, g.Logger, appOptions{DryRun: k.DryRun})
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := &batch.Runner{Docs: app.Orchestrator, Output: output, KeepGoing: k.KeepGoing, Logger: g.Logger}
	report, err := runner.RunFile(ctx, k.Path)

	for _, res := range report.Published {
		fmt.Fprintln(stdout(k.out), res.PublishDir)
	}
	return err
}
