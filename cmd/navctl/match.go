package main

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navroute/internal/errors"
)

// errMatchFailed is returned when at least one path did not resolve. The
// individual failures have already been printed.
var errMatchFailed = stderrors.New("one or more paths did not resolve")

func matchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "match PATH...",
		Short: "Resolve concrete paths against the route table",
		Long: `Resolve each concrete path and print the matched pattern and params.
A path that matches nothing resolves to the fallback when one is configured.

Examples:
  navctl match /user/7
  navctl match '/search?q=go&page=2' /missing`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			table, err := cfg.Table(nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := false
			for _, path := range args {
				m, ok, err := table.Lookup(path)
				if err == nil && !ok {
					err = table.Check(path)
				}
				if err != nil {
					failed = true
					fmt.Fprintf(out, "%s\t%s\n", path, errors.FromError(err, "N002").FormatCompact())
					continue
				}

				if !ok {
					fmt.Fprintf(out, "%s\t%s (fallback)\t{}\n", path, table.Fallback().Pattern)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", path, m.Route.Pattern, formatParams(m.Params))
			}

			if failed {
				return errMatchFailed
			}
			return nil
		},
	}
}
