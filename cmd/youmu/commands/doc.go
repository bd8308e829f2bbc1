package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/youmu/internal/request"
)

// DocCmd implements the 'doc' command.
type DocCmd struct {
	Package           string `arg:"" help:"Package name"`
	Output            string `short:"o" help:"Documentation root; docs land in <output>/<package>/<version> (default: server.docs_path, ./docs)" type:"path"`
	VersionReq        string `name:"version-req" help:"Version requirement, e.g. ^1.2 or >=1.0, <2.0" default:"*"`
	URL               string `help:"Build from this git URL instead of the registry"`
	Features          string `help:"Space separated features to enable"`
	NoDefaultFeatures bool   `name:"no-default-features" help:"Do not enable the package's default features"`
	NoDeps            bool   `name:"no-deps" help:"Do not document dependencies"`
	DryRun            bool   `name:"dry-run" help:"Resolve and fetch, but write placeholder docs instead of running cargo"`

	out io.Writer
}

func (d *DocCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	output := d.Output
	if output == "" {
		output = cfg.Server.DocsPath
	}

	req, err := request.New(request.Input{
		Name:            d.Package,
		URL:             d.URL,
		Version:         d.VersionReq,
		Features:        []string{d.Features},
		DefaultFeatures: !d.NoDefaultFeatures,
		IncludeDeps:     !d.NoDeps,
		AllowLocalURL:   true,
	})
	if err != nil {
		return err
	}

	app, err := newApp(cfg, g.Logger, appOptions{DryRun: d.DryRun})
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := app.Orchestrator.Document(ctx, req, output)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout(d.out), res.PublishDir)
	return nil
}
