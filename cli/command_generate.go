package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"github.com/teamquery/teamquery"
	"github.com/teamquery/teamquery/langs/jsgen"
	"github.com/teamquery/teamquery/langs/pygen"
	"github.com/teamquery/teamquery/queryfile"
)

// Context carries global options into command Run methods.
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
}

// GenerateCmd compiles annotated SQL query files into client modules for
// every enabled generator in the configuration.
type GenerateCmd struct {
	Input  string `short:"i" help:"Queries directory (overrides configuration)" type:"path"`
	Strict bool   `help:"Fail without writing anything when any query is invalid"`
}

func (cmd *GenerateCmd) Run(ctx *Context) error {
	config, err := teamquery.LoadConfig(ctx.Config)
	if err != nil {
		return err
	}

	input := cmd.Input
	if input == "" {
		input = config.QueriesDir
	}

	files, err := queryfile.LoadDir(input)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .sql files found under %s", input)
	}

	invalid := reportValidation(files, ctx)
	if cmd.Strict && invalid > 0 {
		return fmt.Errorf("%d queries failed validation", invalid)
	}

	names := enabledGenerators(config)
	if len(names) == 0 {
		return fmt.Errorf("%w: no generators enabled", teamquery.ErrConfigValidation)
	}

	for _, name := range names {
		gen := config.Generation.Generators[name]
		backend, err := newBackend(name, config)
		if err != nil {
			return err
		}
		result, err := backend.Generate(files, config, gen.Output)
		if err != nil {
			return fmt.Errorf("%s generator: %w", name, err)
		}
		reportResult(name, gen.Output, result, ctx)
	}
	return nil
}

func enabledGenerators(config *teamquery.Config) []string {
	names := make([]string, 0, len(config.Generation.Generators))
	for name, gen := range config.Generation.Generators {
		if gen.IsEnabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func newBackend(name string, config *teamquery.Config) (teamquery.Backend, error) {
	dialect := config.DialectOrDefault()
	switch name {
	case "python":
		return pygen.New(pygen.WithDialect(dialect)), nil
	case "javascript":
		return jsgen.New(jsgen.WithDialect(dialect)), nil
	}
	return nil, fmt.Errorf("%w: %s", teamquery.ErrUnknownGenerator, name)
}

func reportResult(name, output string, result *teamquery.GenerationResult, ctx *Context) {
	if !ctx.Quiet {
		color.Green("%s: %d files written to %s", name, len(result.Written), output)
		if ctx.Verbose {
			for _, path := range result.Written {
				fmt.Println("  " + path)
			}
		}
	}
	for _, skipped := range result.Skipped {
		color.Yellow("%s: skipped %s (%s)", name, skipped.Query, skipped.File)
		for _, err := range skipped.Errors {
			fmt.Println("  " + err.Error())
		}
	}
}
