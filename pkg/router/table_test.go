package router

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/navroute/pkg/routepath"
)

func TestNewTableRejectsInvalidPattern(t *testing.T) {
	_, err := NewTable([]*Route{{Pattern: "/ok"}, {Pattern: "/a//b"}})
	if !errors.Is(err, routepath.ErrInvalidPath) {
		t.Fatalf("NewTable error = %v, want ErrInvalidPath", err)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	byID := &Route{Pattern: "/user/:id"}
	me := &Route{Pattern: "/user/me"}
	other := &Route{Pattern: "/:section/:id"}
	table := MustNewTable([]*Route{byID, me, other})

	tests := []struct {
		path string
		want *Route
	}{
		{"/user/me", byID},
		{"/user/42", byID},
		{"/posts/42", other},
	}

	for _, tt := range tests {
		m, err := table.Resolve(tt.path)
		if err != nil {
			t.Errorf("Resolve(%q) error: %v", tt.path, err)
			continue
		}
		if m.Route != tt.want {
			t.Errorf("Resolve(%q) route = %q, want %q", tt.path, m.Route.Pattern, tt.want.Pattern)
		}
	}
}

func TestResolveParams(t *testing.T) {
	user := &Route{Pattern: "/user/:id?id&theme"}
	search := &Route{Pattern: "/search?q&page&debug"}
	table := MustNewTable([]*Route{user, search})

	tests := []struct {
		name string
		path string
		want Params
	}{
		{"path wins over query", "/user/alice?id=ignored&theme=dark", Params{"id": "alice", "theme": "dark"}},
		{"undeclared dropped", "/search?q=go&extra=1", Params{"q": "go"}},
		{"absent names have no key", "/search", Params{}},
		{"flag decodes to empty", "/search?debug", Params{"debug": ""}},
		{"values decoded", "/search?q=a%20b%26c", Params{"q": "a b&c"}},
		{"first occurrence kept", "/search?page=1&page=2", Params{"page": "1"}},
		{"path decoded", "/user/a%40b", Params{"id": "a@b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := table.Resolve(tt.path)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.path, err)
			}
			if !reflect.DeepEqual(m.Params, tt.want) {
				t.Errorf("Resolve(%q).Params = %#v, want %#v", tt.path, m.Params, tt.want)
			}
			if strings.Contains(m.Path, "?") {
				t.Errorf("Resolve(%q).Path = %q still contains query", tt.path, m.Path)
			}
		})
	}
}

func TestResolveTrailingSlash(t *testing.T) {
	about := &Route{Pattern: "/about"}
	table := MustNewTable([]*Route{about})

	a, err := table.Resolve("/about")
	if err != nil {
		t.Fatal(err)
	}
	b, err := table.Resolve("/about/")
	if err != nil {
		t.Fatal(err)
	}
	if a.Route != b.Route || !a.Params.Equal(b.Params) {
		t.Errorf("/about and /about/ resolved differently: %+v vs %+v", a, b)
	}
}

func TestResolveInvalidPathSkipsMissAndFallback(t *testing.T) {
	notFound := &Route{Pattern: "/404"}
	misses := 0
	table := MustNewTable(
		[]*Route{{Pattern: "/"}, notFound},
		WithFallback(notFound),
		WithMissHandler(func(string) { misses++ }),
	)

	for _, p := range []string{"///", "/a//b", "/a//b?x=1"} {
		_, err := table.Resolve(p)
		if !errors.Is(err, routepath.ErrInvalidPath) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidPath", p, err)
		}
	}
	if misses != 0 {
		t.Errorf("miss handler called %d times, want 0", misses)
	}
}

func TestResolveFallback(t *testing.T) {
	notFound := &Route{Pattern: "/404"}
	var missed []string
	table := MustNewTable(
		[]*Route{{Pattern: "/"}, notFound},
		WithFallback(notFound),
		WithMissHandler(func(p string) { missed = append(missed, p) }),
	)

	m, err := table.Resolve("/nope?x=1")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if m.Route != notFound || !m.Fallback {
		t.Errorf("Resolve route = %+v, want fallback", m.Route)
	}
	if len(m.Params) != 0 {
		t.Errorf("fallback params = %v, want empty", m.Params)
	}
	if !reflect.DeepEqual(missed, []string{"/nope"}) {
		t.Errorf("missed = %v, want [/nope]", missed)
	}
}

func TestResolveNotFound(t *testing.T) {
	misses := 0
	table := MustNewTable([]*Route{{Pattern: "/"}}, WithMissHandler(func(string) { misses++ }))

	_, err := table.Resolve("/nope")
	var nf *RouteNotFoundError
	if !errors.As(err, &nf) || nf.Path != "/nope" {
		t.Fatalf("Resolve error = %v, want *RouteNotFoundError for /nope", err)
	}
	if !errors.Is(err, ErrRouteNotFound) {
		t.Error("error should match ErrRouteNotFound")
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}

func TestResolveUnregisteredFallback(t *testing.T) {
	table := MustNewTable([]*Route{{Pattern: "/"}}, WithFallback(&Route{Pattern: "/missing-404"}))
	if table.Fallback() != nil {
		t.Error("unregistered fallback should not be usable")
	}

	_, err := table.Resolve("/nope")
	if err == nil || !strings.Contains(err.Error(), "/missing-404") {
		t.Errorf("error = %v, want mention of fallback pattern", err)
	}
}

func TestWithFallbackPattern(t *testing.T) {
	notFound := &Route{Pattern: "/404"}
	table := MustNewTable([]*Route{{Pattern: "/"}, notFound}, WithFallbackPattern("/404"))
	if table.Fallback() != notFound {
		t.Errorf("Fallback() = %v, want /404 route", table.Fallback())
	}
}

func TestMissHandlerPanicIsIsolated(t *testing.T) {
	notFound := &Route{Pattern: "/404"}
	table := MustNewTable(
		[]*Route{notFound},
		WithFallback(notFound),
		WithMissHandler(func(string) { panic("boom") }),
	)

	m, err := table.Resolve("/nope")
	if err != nil || m.Route != notFound {
		t.Errorf("Resolve = (%v, %v), want fallback despite panicking miss handler", m, err)
	}
}

func TestMiss(t *testing.T) {
	var missed []string
	table := MustNewTable([]*Route{{Pattern: "/"}}, WithMissHandler(func(p string) {
		missed = append(missed, p)
		panic("boom")
	}))

	table.Miss("/nope")
	if len(missed) != 1 || missed[0] != "/nope" {
		t.Errorf("missed = %v, want [/nope]", missed)
	}

	MustNewTable([]*Route{{Pattern: "/"}}).Miss("/nope")
}

func TestLookupAndCheckHaveNoSideEffects(t *testing.T) {
	misses := 0
	notFound := &Route{Pattern: "/404"}
	table := MustNewTable([]*Route{notFound}, WithFallback(notFound), WithMissHandler(func(string) { misses++ }))

	if _, ok, err := table.Lookup("/nope"); ok || err != nil {
		t.Errorf("Lookup(/nope) = ok %v, err %v", ok, err)
	}
	if err := table.Check("/nope"); err != nil {
		t.Errorf("Check(/nope) = %v, want nil with fallback", err)
	}
	if err := table.Check("/a//b"); !errors.Is(err, routepath.ErrInvalidPath) {
		t.Errorf("Check(/a//b) = %v, want ErrInvalidPath", err)
	}
	if misses != 0 {
		t.Errorf("misses = %d, want 0", misses)
	}
}

func TestCompute(t *testing.T) {
	user := &Route{Pattern: "/user/:id?tab"}
	search := &Route{Pattern: "/search?q"}
	table := MustNewTable([]*Route{user, search, {Pattern: "/about"}})

	tests := []struct {
		name   string
		target string
		params Params
		want   string
	}{
		{"full pattern", "/user/:id?tab", Params{"id": "1", "tab": "x"}, "/user/1?tab=x"},
		{"path-only pattern", "/user/:id", Params{"id": "1", "tab": "x"}, "/user/1?tab=x"},
		{"concrete with query only", "/search", Params{"q": "go"}, "/search?q=go"},
		{"concrete parameterized path", "/user/5", Params{"tab": "posts"}, "/user/5?tab=posts"},
		{"no declared query", "/about", Params{"q": "x"}, "/about"},
		{"unregistered pattern", "/post/:slug", Params{"slug": "hi there"}, "/post/hi%20there"},
		{"missing param", "/user/:id", Params{}, "/user/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Compute(tt.target, tt.params); got != tt.want {
				t.Errorf("Compute(%q, %v) = %q, want %q", tt.target, tt.params, got, tt.want)
			}
		})
	}
}

func TestComputeResolveRoundTrip(t *testing.T) {
	route := &Route{Pattern: "/p/:a/:b"}
	table := MustNewTable([]*Route{route})

	values := []string{"with space", "a+b", "x&y", "#", "@", ".", ".*[]()|", "%"}
	for _, v := range values {
		params := Params{"a": v, "b": "pre" + v}
		m, err := table.Resolve(table.Compute(route.Pattern, params))
		if err != nil {
			t.Errorf("round trip %q: %v", v, err)
			continue
		}
		if !m.Params.Equal(params) {
			t.Errorf("round trip %q: got %v, want %v", v, m.Params, params)
		}
	}
}
