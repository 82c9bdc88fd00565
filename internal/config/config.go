package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/pkg/host"
	"github.com/vango-dev/navroute/pkg/pattern"
	"github.com/vango-dev/navroute/pkg/router"
)

const (
	// DefaultFileName is the route file looked up when none is given.
	DefaultFileName = "routes.yaml"

	// DefaultAddr is the default debug server address.
	DefaultAddr = "localhost:8080"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "navroute"
)

// Format is a route file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks the format from a file extension. Anything other
// than .json is read as YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Config is a route table document.
type Config struct {
	// Mode is "fragment" (default) or "path".
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Fallback is the pattern of the route activated when nothing matches.
	// It must be one of Routes.
	Fallback string `json:"fallback,omitempty" yaml:"fallback,omitempty"`

	// AutoInit controls whether the navigator activates the current
	// location on creation (default: true). navctl simulate waits for an
	// explicit "init" command when it is false.
	AutoInit *bool `json:"autoInit,omitempty" yaml:"autoInit,omitempty"`

	// Routes are matched in order; the first match wins.
	Routes []RouteConfig `json:"routes" yaml:"routes"`

	// Server contains debug server settings.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// source is the file the config was loaded from.
	source string
}

// RouteConfig declares one route.
type RouteConfig struct {
	// Pattern is the path pattern with an optional query declaration.
	Pattern string `json:"pattern" yaml:"pattern"`

	// Name is an optional label used in logs and metrics.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// line and column locate Pattern in a YAML source.
	line, column int
}

// ServerConfig contains debug server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// MetricsNamespace is the Prometheus namespace.
	MetricsNamespace string `json:"metricsNamespace,omitempty" yaml:"metricsNamespace,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler for RouteConfig. A bare scalar
// is shorthand for the pattern.
func (r *RouteConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.line, r.column = node.Line, node.Column
		return node.Decode(&r.Pattern)
	}

	// temporary struct to avoid infinite recursion
	var raw struct {
		Pattern string `yaml:"pattern"`
		Name    string `yaml:"name"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	r.Pattern = raw.Pattern
	r.Name = raw.Name
	r.line, r.column = node.Line, node.Column

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "pattern" {
			r.line, r.column = node.Content[i+1].Line, node.Content[i+1].Column
		}
	}
	return nil
}

// Position returns where the pattern was declared in a YAML source, or
// zeros.
func (r RouteConfig) Position() (line, column int) {
	return r.line, r.column
}

// Load reads a route file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("N004").
			Wrap(err).
			WithSuggestion(fmt.Sprintf("Check that %s exists and is readable", path))
	}

	cfg, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, err
	}
	cfg.source = path
	return cfg, nil
}

// Parse decodes a route document and applies defaults. It does not
// validate.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, errors.New("N003").Wrap(err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.New("N003").Wrap(err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns an empty config with defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Source returns the file the config was loaded from, or "".
func (c *Config) Source() string {
	return c.source
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = host.ModeFragment.String()
	}
	if c.AutoInit == nil {
		auto := true
		c.AutoInit = &auto
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MetricsNamespace == "" {
		c.Server.MetricsNamespace = DefaultMetricsNamespace
	}
}

// Validate checks the mode, every pattern and the fallback. The first
// problem is returned as a coded diagnostic pointing at the offending
// route when the position is known.
func (c *Config) Validate() error {
	if _, ok := host.ParseMode(c.Mode); !ok {
		return errors.New("N003").
			WithDetail(fmt.Sprintf("Unknown mode %q.", c.Mode)).
			WithSuggestion(`Use "fragment" or "path"`)
	}

	if len(c.Routes) == 0 {
		return errors.New("N003").
			WithDetail("The route file declares no routes.")
	}

	for i, r := range c.Routes {
		if _, err := pattern.Compile(r.Pattern); err != nil {
			ne := errors.New("N003").
				Wrap(err).
				WithDetail(fmt.Sprintf("routes[%d]: pattern %q has an empty segment.", i, r.Pattern)).
				WithSuggestion("Remove the repeated slash from the pattern")
			if c.source != "" && r.line > 0 {
				ne.WithLocation(c.source, r.line, r.column)
			}
			return ne
		}
	}

	if c.Fallback != "" && c.indexOf(c.Fallback) < 0 {
		return errors.New("N003").
			WithDetail(fmt.Sprintf("Fallback %q is not one of the declared patterns.", c.Fallback)).
			WithSuggestion("Add a route with the fallback pattern or remove the fallback")
	}
	return nil
}

// Warnings reports legal but suspicious declarations: repeated patterns,
// which can never be reached after the first.
func (c *Config) Warnings() []string {
	var warnings []string
	seen := make(map[string]int, len(c.Routes))
	for i, r := range c.Routes {
		if first, ok := seen[r.Pattern]; ok {
			warnings = append(warnings,
				fmt.Sprintf("routes[%d]: pattern %q repeats routes[%d] and is unreachable", i, r.Pattern, first))
			continue
		}
		seen[r.Pattern] = i
	}
	return warnings
}

// ModeValue returns the parsed mode.
func (c *Config) ModeValue() host.Mode {
	mode, _ := host.ParseMode(c.Mode)
	return mode
}

// AutoInitValue returns AutoInit, defaulting to true.
func (c *Config) AutoInitValue() bool {
	return c.AutoInit == nil || *c.AutoInit
}

// Table builds the route table. decorate, when non-nil, may attach hooks
// to each route before it is registered.
func (c *Config) Table(decorate func(*router.Route), opts ...router.TableOption) (*router.Table, error) {
	routes := make([]*router.Route, len(c.Routes))
	for i, rc := range c.Routes {
		r := &router.Route{Pattern: rc.Pattern, Name: rc.Name}
		if decorate != nil {
			decorate(r)
		}
		routes[i] = r
	}

	if c.Fallback != "" {
		opts = append([]router.TableOption{router.WithFallbackPattern(c.Fallback)}, opts...)
	}
	return router.NewTable(routes, opts...)
}

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	if c.source == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.source)
}

// SaveTo writes the config to path in the format its extension selects.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if FormatForPath(path) == FormatJSON {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New("N003").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("N004").Wrap(err)
	}
	c.source = path
	return nil
}

func (c *Config) indexOf(p string) int {
	for i, r := range c.Routes {
		if r.Pattern == p {
			return i
		}
	}
	return -1
}
