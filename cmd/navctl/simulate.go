package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/pkg/host"
	"github.com/vango-dev/navroute/pkg/loop"
	"github.com/vango-dev/navroute/pkg/navigator"
	"github.com/vango-dev/navroute/pkg/router"
)

func simulateCmd(flags *globalFlags) *cobra.Command {
	var initial string

	cmd := &cobra.Command{
		Use:   "simulate [SCRIPT]",
		Short: "Replay a navigation script against an in-memory browser",
		Long: `Run a navigator against a simulated browser history and print every
lifecycle callback as it happens. The script is read from SCRIPT or, when
omitted or "-", from stdin. One command per line; '#' starts a comment.
The navigator is initialized before the script runs unless the route file
sets autoInit: false, in which case the script must say "init" itself.

Commands:
  init                              activate the current URL
  navigate TARGET [NAME=VALUE...]   navigate, substituting params into TARGET
  assign URL                        type URL into the address bar
  back                              history back
  forward                           history forward
  state                             print the active route

Example script:
  navigate /user/:id id=7
  navigate /user/:id id=8 tab=info
  assign /#/about
  back`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}

			var script io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				script = f
			}

			return runSimulation(cmd.OutOrStdout(), cfg, initial, script)
		},
	}

	cmd.Flags().StringVar(&initial, "url", "", `Initial browser URL (default "/" in path mode, "/#/" in fragment mode)`)

	return cmd
}

// simulation drives a navigator on an explicitly drained loop so every
// command's effects are printed before the next command runs.
type simulation struct {
	out  io.Writer
	mem  *host.Memory
	loop *loop.Loop
	nav  *navigator.Navigator
}

func runSimulation(out io.Writer, cfg *config.Config, initial string, script io.Reader) error {
	mode := cfg.ModeValue()
	if initial == "" {
		initial = "/"
		if mode == host.ModeFragment {
			initial = "/#/"
		}
	}

	sim := &simulation{
		out:  out,
		mem:  host.NewMemory(initial),
		loop: loop.New(),
	}

	table, err := cfg.Table(sim.decorate,
		router.WithMissHandler(func(path string) {
			fmt.Fprintf(out, "  miss %s\n", path)
		}))
	if err != nil {
		return err
	}

	sim.nav, err = navigator.New(table, sim.mem,
		navigator.WithMode(mode),
		navigator.WithLoop(sim.loop),
		navigator.WithAutoInit(false),
		navigator.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}
	defer sim.nav.Close()

	if cfg.AutoInitValue() {
		fmt.Fprintf(out, "> init %s\n", initial)
		if err := sim.nav.Init(); err != nil {
			return err
		}
		sim.loop.Drain()
	}

	scanner := bufio.NewScanner(script)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := sim.exec(strings.Fields(text)); err != nil {
			return errors.Newf(errors.CategoryCLI, "line %d: %s", line, err.Error())
		}
	}
	return scanner.Err()
}

func (s *simulation) decorate(r *router.Route) {
	pattern := r.Pattern
	r.OnEnter = func(params router.Params) {
		fmt.Fprintf(s.out, "  enter %s %s\n", pattern, formatParams(params))
	}
	r.OnExit = func(params router.Params) {
		fmt.Fprintf(s.out, "  exit %s %s\n", pattern, formatParams(params))
	}
	r.OnParamChange = func(params, prev router.Params) {
		fmt.Fprintf(s.out, "  params %s %s -> %s\n", pattern, formatParams(prev), formatParams(params))
	}
}

func (s *simulation) exec(fields []string) error {
	fmt.Fprintf(s.out, "> %s\n", strings.Join(fields, " "))

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "init":
		if err := s.nav.Init(); err != nil {
			fmt.Fprintf(s.out, "  rejected init: %v\n", err)
			return nil
		}
		s.loop.Drain()

	case "navigate":
		if len(args) == 0 {
			return fmt.Errorf("navigate needs a target")
		}
		var params router.Params
		if len(args) > 1 {
			params = router.Params(parseParams(args[1:]))
		}
		nav := s.nav.Navigate(args[0], params)
		s.loop.Drain()
		s.report(nav)

	case "assign":
		if len(args) != 1 {
			return fmt.Errorf("assign needs exactly one URL")
		}
		s.mem.Assign(args[0])
		s.loop.Drain()

	case "back", "forward":
		moved := s.mem.Back
		if cmd == "forward" {
			moved = s.mem.Forward
		}
		if !moved() {
			fmt.Fprintf(s.out, "  no history\n")
			return nil
		}
		s.loop.Drain()

	case "state":
		st := s.nav.State()
		fmt.Fprintf(s.out, "  at %s %s %s\n", st.Path, st.Pattern(), formatParams(st.Params))

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (s *simulation) report(nav *navigator.Navigation) {
	if !nav.Settled() {
		fmt.Fprintf(s.out, "  pending %s\n", nav.Target())
		return
	}
	if err := nav.Err(); err != nil {
		fmt.Fprintf(s.out, "  rejected %s: %v\n", nav.Target(), err)
		return
	}
	fmt.Fprintf(s.out, "  resolved %s\n", nav.State().Path)
}
