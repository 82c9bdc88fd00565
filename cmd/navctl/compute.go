package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navroute/pkg/router"
)

func computeCmd(flags *globalFlags) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "compute TARGET [NAME=VALUE...]",
		Short: "Build a concrete path from a pattern and params",
		Long: `Substitute params into TARGET and print the concrete path.

TARGET is a full pattern ("/user/:id?tab"), the path portion of a
registered pattern ("/user/:id"), or a concrete path that only takes
query params ("/search").

Examples:
  navctl compute /user/:id id=7 tab=info
  navctl compute /search q='go routers' page=2
  navctl compute --check /user/:id id=7`,
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

			path := table.Compute(args[0], router.Params(parseParams(args[1:])))
			if check {
				if err := table.Check(path); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&check, "check", "c", false, "Fail if the computed path does not resolve")

	return cmd
}
