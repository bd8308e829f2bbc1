package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/youmu/cmd/youmu/commands"
	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("youmu"),
		kong.Description("Resolve, build and serve documentation for Rust crates."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(&commands.Global{}),
	)
	err := parser.Run(cli)
	derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
