package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navroute/internal/debugserver"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the route debug server",
		Long: `Start an HTTP server for the route table.

Endpoints:
  GET  /                 route list and live state of an attached browser
  GET  /resolve?path=    resolve a concrete path
  GET  /compute?pattern= build a path; other query params are substituted
  GET  /routes           registered routes
  GET  /state            state of the server's own navigator
  POST /navigate         navigate the server's navigator
  POST /back             history back in the server's navigator
  GET  /metrics          Prometheus metrics
  GET  /ws               browser navigator sessions

Examples:
  navctl serve
  navctl serve --addr=0.0.0.0:9000 --routes=s3://config/routes.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			srv, err := debugserver.New(cfg, debugserver.WithLogger(slog.Default()))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			success(out, "Serving %d routes (%s mode)", len(cfg.Routes), cfg.ModeValue())
			info(out, "http://%s", cfg.Server.Addr)
			fmt.Fprintln(out)

			err = srv.ListenAndServe(ctx)
			if stderrors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from the route file)")

	return cmd
}
