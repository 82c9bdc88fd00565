package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/internal/routesrc"
	"github.com/vango-dev/navroute/pkg/host"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	routes  string
	mode    string
	verbose bool
	noColor bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "navctl",
		Short: "Inspect and exercise navroute route tables",
		Long: `navctl loads a route file and lets you resolve paths against it,
compute paths from patterns, replay navigation scripts and serve a
debug endpoint that browsers can attach to.

Route files are YAML or JSON, read from disk or from s3://bucket/key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), flags.verbose))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.routes, "routes", "r", config.DefaultFileName, "Route file path or s3://bucket/key")
	rootCmd.PersistentFlags().StringVarP(&flags.mode, "mode", "m", "", `Override the mode ("fragment" or "path")`)
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		checkCmd(flags),
		matchCmd(flags),
		computeCmd(flags),
		simulateCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// printError prints navroute errors as coded diagnostics and anything else
// (flag and usage errors) as a plain message.
func printError(err error) {
	var ne *errors.NavError
	if stderrors.As(err, &ne) || errors.Classify(err, "") != "" {
		errors.PrintError(errors.FromError(err, ""))
		return
	}
	errors.PrintError(err)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads and validates the route file named by --routes and
// applies --mode.
func loadConfig(ctx context.Context, flags *globalFlags) (*config.Config, error) {
	opts := []routesrc.Option{routesrc.WithLogger(slog.Default())}
	if strings.HasPrefix(flags.routes, routesrc.S3Scheme) {
		opts = append(opts, routesrc.WithS3(routesrc.NewS3ClientFromEnv()))
	}

	cfg, err := routesrc.New(opts...).Load(ctx, flags.routes)
	if err != nil {
		return nil, err
	}

	if flags.mode != "" {
		if _, ok := host.ParseMode(flags.mode); !ok {
			return nil, errors.New("N003").
				WithDetail(fmt.Sprintf("Unknown mode %q.", flags.mode)).
				WithSuggestion(`Use --mode=fragment or --mode=path`)
		}
		cfg.Mode = flags.mode
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseParams turns name=value arguments into a map. A bare name maps to
// "".
func parseParams(args []string) map[string]string {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, _ := strings.Cut(arg, "=")
		params[name] = value
	}
	return params
}

// formatParams renders params in sorted order as {a=1 b=2}.
func formatParams(params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	b.WriteByte('}')
	return b.String()
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
