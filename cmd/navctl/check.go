package main

import (
	"github.com/spf13/cobra"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate a route file",
		Long: `Validate the route file: the mode, every pattern and the fallback.
Unreachable duplicate patterns are reported as warnings.

Examples:
  navctl check
  navctl check --routes=app/routes.yaml
  navctl check --routes=s3://config/routes.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range cfg.Warnings() {
				warn(out, "%s", w)
			}

			success(out, "%d routes, %s mode", len(cfg.Routes), cfg.ModeValue())
			if cfg.Fallback != "" {
				info(out, "fallback: %s", cfg.Fallback)
			}
			return nil
		},
	}
}
