package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/teamquery/teamquery/cli"
)

var version = "dev"

// CLI defines the top-level command-line interface.
var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"team-query.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose output"`
	Quiet   bool   `short:"q" help:"Suppress output"`

	Generate cli.GenerateCmd `cmd:"" help:"Generate client modules from annotated SQL query files"`
	Validate cli.ValidateCmd `cmd:"" help:"Validate annotated SQL query files without writing output"`
	Version  VersionCmd      `cmd:"" help:"Show version information"`
}

type VersionCmd struct{}

func (cmd *VersionCmd) Run(*cli.Context) error {
	fmt.Printf("team-query %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("team-query"),
		kong.Description("Compile annotated SQL query files into typed client modules."),
		kong.UsageOnError(),
	)

	appCtx := &cli.Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
