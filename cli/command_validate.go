package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/teamquery/teamquery"
	"github.com/teamquery/teamquery/queryfile"
	"github.com/teamquery/teamquery/sqlparser"
)

// ValidateCmd checks every query in the queries directory without writing
// any output. Every problem is reported before the command decides its
// exit status.
type ValidateCmd struct {
	Input string `short:"i" help:"Queries directory (overrides configuration)" type:"path"`
}

func (cmd *ValidateCmd) Run(ctx *Context) error {
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
	if invalid > 0 {
		return fmt.Errorf("%d queries failed validation", invalid)
	}
	if !ctx.Quiet {
		total := 0
		for _, file := range files {
			total += len(file.Queries)
		}
		color.Green("%d queries in %d files are valid", total, len(files))
	}
	return nil
}

// reportValidation prints every validation error for every query and
// returns the number of invalid queries. All errors are shown; nothing
// stops at the first failure.
func reportValidation(files []teamquery.QueriesFile, ctx *Context) int {
	invalid := 0
	for _, file := range files {
		for i := range file.Queries {
			query := &file.Queries[i]
			errs := sqlparser.ValidateParams(query)
			if len(errs) == 0 {
				if ctx.Verbose && !ctx.Quiet {
					color.Green("OK %s (%s)", query.Name, file.Path)
				}
				continue
			}
			invalid++
			color.Red("NG %s (%s)", query.Name, file.Path)
			for _, err := range errs {
				fmt.Println("  " + err.Error())
			}
		}
	}
	return invalid
}
