package router

import (
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/vango-dev/navroute/pkg/pattern"
	"github.com/vango-dev/navroute/pkg/routepath"
)

// Table is an ordered, immutable set of compiled routes.
//
// Resolution is first-match-wins in registration order. Overlapping patterns
// are never reordered by specificity, so "/user/:id" declared before
// "/user/me" shadows it.
type Table struct {
	entries []entry

	fallback        *Route
	fallbackPattern string

	onMiss func(path string)
	codec  routepath.Codec
	logger *slog.Logger
}

type entry struct {
	route    *Route
	compiled *pattern.Compiled
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithFallback sets the route activated, with empty params, when no route
// matches. It must be one of the registered routes; otherwise unmatched
// paths fail with a *RouteNotFoundError naming it.
func WithFallback(route *Route) TableOption {
	return func(t *Table) {
		t.fallback = route
		if route != nil {
			t.fallbackPattern = route.Pattern
		}
	}
}

// WithFallbackPattern selects the fallback by pattern. The first registered
// route with exactly this pattern is used.
func WithFallbackPattern(p string) TableOption {
	return func(t *Table) {
		t.fallback = nil
		t.fallbackPattern = p
	}
}

// WithMissHandler sets the callback invoked with the clean path whenever a
// path matches no route.
func WithMissHandler(fn func(path string)) TableOption {
	return func(t *Table) {
		t.onMiss = fn
	}
}

// WithCodec sets the percent codec used for decoding and substitution.
func WithCodec(codec routepath.Codec) TableOption {
	return func(t *Table) {
		t.codec = codec
	}
}

// WithLogger sets the logger used to report a panicking miss handler.
func WithLogger(logger *slog.Logger) TableOption {
	return func(t *Table) {
		t.logger = logger
	}
}

// NewTable compiles routes in order. It fails with a
// *routepath.InvalidPathError if any pattern has an empty segment.
func NewTable(routes []*Route, opts ...TableOption) (*Table, error) {
	t := &Table{
		codec:  routepath.DefaultCodec,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.entries = make([]entry, 0, len(routes))
	for _, r := range routes {
		if r == nil {
			continue
		}
		c, err := pattern.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		t.entries = append(t.entries, entry{route: r, compiled: c})
	}

	t.fallback = t.resolveFallback()
	return t, nil
}

// MustNewTable is like NewTable but panics on error.
func MustNewTable(routes []*Route, opts ...TableOption) *Table {
	t, err := NewTable(routes, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// resolveFallback returns the registered fallback route, or nil if none is
// configured or the configured one is not in the table.
func (t *Table) resolveFallback() *Route {
	if t.fallback != nil {
		for _, e := range t.entries {
			if e.route == t.fallback {
				return t.fallback
			}
		}
		return nil
	}
	if t.fallbackPattern == "" {
		return nil
	}
	for _, e := range t.entries {
		if e.route.Pattern == t.fallbackPattern {
			return e.route
		}
	}
	return nil
}

// Routes returns the registered routes in order.
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.route
	}
	return out
}

// Fallback returns the registered fallback route, or nil.
func (t *Table) Fallback() *Route {
	return t.fallback
}

// Codec returns the table's percent codec.
func (t *Table) Codec() routepath.Codec {
	return t.codec
}

// Compiled returns the compiled pattern of a registered route.
func (t *Table) Compiled(r *Route) (*pattern.Compiled, bool) {
	for _, e := range t.entries {
		if e.route == r {
			return e.compiled, true
		}
	}
	return nil, false
}

// Resolve matches a concrete path (optionally with "?query").
//
// An invalid clean path is returned as a *routepath.InvalidPathError without
// consulting the miss handler or the fallback. An unmatched path calls the
// miss handler and then yields the fallback with empty params, or a
// *RouteNotFoundError when there is no usable fallback.
func (t *Table) Resolve(concrete string) (*Match, error) {
	m, ok, err := t.Lookup(concrete)
	if err != nil {
		return nil, err
	}
	if ok {
		return m, nil
	}

	t.notifyMiss(m.Path)
	return t.fallbackMatch(m.Path, m.Query)
}

// Lookup is Resolve without the miss handler and without the fallback.
// On a miss it returns ok == false and a Match carrying only Path and Query.
func (t *Table) Lookup(concrete string) (m *Match, ok bool, err error) {
	clean, query, hasQuery := routepath.SplitPathAndQuery(concrete)
	if err := routepath.Validate(clean); err != nil {
		return nil, false, err
	}

	segments := routepath.Segments(clean)
	for _, e := range t.entries {
		if !e.compiled.Match(segments) {
			continue
		}
		params, err := e.compiled.Extract(segments, t.codec)
		if err != nil {
			return nil, false, err
		}
		if hasQuery {
			if err := t.extractQuery(e.compiled, query, params); err != nil {
				return nil, false, err
			}
		}
		return &Match{
			Route:  e.route,
			Path:   clean,
			Query:  query,
			Params: Params(params),
		}, true, nil
	}

	return &Match{Path: clean, Query: query}, false, nil
}

// Check reports the error Resolve would return for concrete, without any
// side effects. It returns nil if concrete resolves to a route or the
// fallback.
func (t *Table) Check(concrete string) error {
	m, ok, err := t.Lookup(concrete)
	if err != nil || ok {
		return err
	}
	_, err = t.fallbackMatch(m.Path, m.Query)
	return err
}

// extractQuery copies the declared query parameters into params. A name
// that is already a path parameter is skipped, so the path value wins. When
// a declared name repeats, the first occurrence is kept.
func (t *Table) extractQuery(c *pattern.Compiled, query string, params map[string]string) error {
	pairs, err := routepath.ParseQuery(query, t.codec)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		if !c.Declares(pair.Name) || c.IsParam(pair.Name) {
			continue
		}
		if _, seen := params[pair.Name]; seen {
			continue
		}
		params[pair.Name] = pair.Value
	}
	return nil
}

func (t *Table) fallbackMatch(clean, query string) (*Match, error) {
	if t.fallback == nil {
		return nil, &RouteNotFoundError{Path: clean, Fallback: t.fallbackPattern}
	}
	return &Match{
		Route:    t.fallback,
		Path:     clean,
		Query:    query,
		Params:   Params{},
		Fallback: true,
	}, nil
}

// Miss reports path to the miss handler, recovering a panic in it. The
// navigator calls it for targets that Check rejects as not found, so those
// misses are reported even though Resolve never runs.
func (t *Table) Miss(path string) {
	t.notifyMiss(path)
}

func (t *Table) notifyMiss(path string) {
	if t.onMiss == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("miss handler panic",
				"panic", r,
				"path", path,
				"stack", string(debug.Stack()))
		}
	}()
	t.onMiss(path)
}

// Compute builds a concrete path for a navigation target.
//
// target may be a full pattern with its query declaration, the path portion
// of a registered pattern that declares query parameters, or a concrete path
// for which only query parameters are supplied. In the last case the query
// names are taken from the route the concrete path resolves to.
func (t *Table) Compute(target string, params Params) string {
	if strings.Contains(target, "?") {
		return pattern.Parse(target).Compute(params, t.codec)
	}

	for _, e := range t.entries {
		if e.compiled.Path() == target && len(e.compiled.QueryNames()) > 0 {
			return e.compiled.Compute(params, t.codec)
		}
	}

	c := pattern.Parse(target)
	path := c.Compute(params, t.codec)
	if len(c.ParamNames()) > 0 {
		return path
	}
	if m, ok, err := t.Lookup(path); err == nil && ok {
		if mc, found := t.Compiled(m.Route); found {
			return path + mc.Query(params, t.codec)
		}
	}
	return path
}
