package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/internal/errors"
)

const testRoutes = `
mode: fragment
fallback: /404
routes:
  - /
  - pattern: /about
    name: about
  - /user/:id?tab
  - /404
`

func writeRoutes(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	routes := writeRoutes(t, testRoutes+"  - /about\n")

	out, err := run(t, "", "check", "--routes", routes)
	require.NoError(t, err)
	assert.Contains(t, out, "5 routes, fragment mode")
	assert.Contains(t, out, "fallback: /404")
	assert.Contains(t, out, `pattern "/about" repeats routes[1]`)
}

func TestCheckInvalid(t *testing.T) {
	routes := writeRoutes(t, "routes:\n  - /\n")

	_, err := run(t, "", "check", "--routes", routes, "--mode", "sideways")
	require.Error(t, err)
	assert.Equal(t, "N003", errors.FromError(err, "").Code)
}

func TestCheckMissingFile(t *testing.T) {
	_, err := run(t, "", "check", "--routes", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, "N004", errors.FromError(err, "").Code)
}

func TestMatch(t *testing.T) {
	routes := writeRoutes(t, testRoutes)

	out, err := run(t, "", "match", "--routes", routes, "/user/7?tab=info", "/nowhere")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "/user/7?tab=info\t/user/:id?tab\t{id=7 tab=info}", lines[0])
	assert.Equal(t, "/nowhere\t/404 (fallback)\t{}", lines[1])
}

func TestMatchFailures(t *testing.T) {
	routes := writeRoutes(t, "routes:\n  - /\n  - /user/:id\n")

	out, err := run(t, "", "match", "--routes", routes, "/user/1", "/missing", "/a//b")
	require.ErrorIs(t, err, errMatchFailed)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "/user/1\t/user/:id\t{id=1}", lines[0])
	assert.Contains(t, lines[1], "N002")
	assert.Contains(t, lines[2], "N001")
}

func TestCompute(t *testing.T) {
	routes := writeRoutes(t, testRoutes)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"path portion", []string{"/user/:id", "id=7", "tab=info"}, "/user/7?tab=info"},
		{"full pattern", []string{"/user/:id?tab", "id=a b"}, "/user/a%20b"},
		{"no params", []string{"/about"}, "/about"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", append([]string{"compute", "--routes", routes}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestComputeCheck(t *testing.T) {
	routes := writeRoutes(t, "routes:\n  - /\n  - /user/:id\n")

	_, err := run(t, "", "compute", "--routes", routes, "--check", "/missing")
	require.Error(t, err)
	assert.Equal(t, "N002", errors.FromError(err, "").Code)
}

func TestSimulateFragmentMode(t *testing.T) {
	routes := writeRoutes(t, testRoutes)
	script := `
# open a profile, then change its params
navigate /user/:id id=7
navigate /user/:id id=8 tab=info
navigate /user/:id id=8 tab=info
assign /#/nowhere
back
state
navigate /a//b
`

	out, err := run(t, script, "simulate", "--routes", routes)
	require.NoError(t, err)

	want := []string{
		"> init /#/",
		"  enter / {}",
		"> navigate /user/:id id=7",
		"  exit / {}",
		"  enter /user/:id?tab {id=7}",
		"  resolved /user/7",
		"> navigate /user/:id id=8 tab=info",
		"  params /user/:id?tab {id=7} -> {id=8 tab=info}",
		"  resolved /user/8?tab=info",
		"> navigate /user/:id id=8 tab=info",
		"  resolved /user/8?tab=info",
		"> assign /#/nowhere",
		"  miss /nowhere",
		"  exit /user/:id?tab {id=8 tab=info}",
		"  enter /404 {}",
		"> back",
		"  exit /404 {}",
		"  enter /user/:id?tab {id=8 tab=info}",
		"> state",
		"  at /user/8?tab=info /user/:id?tab {id=8 tab=info}",
		"> navigate /a//b",
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(want)+1, out)
	assert.Equal(t, want, lines[:len(want)])
	assert.True(t, strings.HasPrefix(lines[len(want)], "  rejected /a//b"), lines[len(want)])
}

func TestSimulatePathMode(t *testing.T) {
	routes := writeRoutes(t, testRoutes)
	script := "navigate /about\nback\nforward\nforward\n"

	out, err := run(t, script, "simulate", "--routes", routes, "--mode", "path")
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"> init /",
		"  enter / {}",
		"> navigate /about",
		"  exit / {}",
		"  enter /about {}",
		"  resolved /about",
		"> back",
		"  exit /about {}",
		"  enter / {}",
		"> forward",
		"  exit / {}",
		"  enter /about {}",
		"> forward",
		"  no history",
	}, "\n")+"\n", out)
}

func TestSimulateManualInit(t *testing.T) {
	routes := writeRoutes(t, "autoInit: false\n"+testRoutes)
	script := "navigate /about\ninit\nnavigate /about\ninit\n"

	out, err := run(t, script, "simulate", "--routes", routes)
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"> navigate /about",
		"  rejected /about: navigator: not initialized",
		"> init",
		"  enter / {}",
		"> navigate /about",
		"  exit / {}",
		"  enter /about {}",
		"  resolved /about",
		"> init",
		"  rejected init: navigator: already initialized",
	}, "\n")+"\n", out)
}

func TestSimulateUnknownCommand(t *testing.T) {
	routes := writeRoutes(t, testRoutes)

	_, err := run(t, "state\njump /about\n", "simulate", "--routes", routes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestRunSimulationInitialURL(t *testing.T) {
	cfg, err := config.Parse([]byte(testRoutes), config.FormatYAML)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runSimulation(&out, cfg, "/#/user/3", strings.NewReader("state\n")))
	assert.Contains(t, out.String(), "  enter /user/:id?tab {id=3}")
	assert.Contains(t, out.String(), "  at /user/3 /user/:id?tab {id=3}")
}

func TestParseParams(t *testing.T) {
	assert.Equal(t, map[string]string{"id": "7", "flag": "", "q": "a=b"},
		parseParams([]string{"id=7", "flag", "q=a=b"}))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
