package pattern

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/navroute/pkg/routepath"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		pattern    string
		wantPath   string
		wantParams []string
		wantQuery  []string
	}{
		{"/", "/", nil, nil},
		{"/about", "/about", nil, nil},
		{"/user/:id", "/user/:id", []string{"id"}, nil},
		{"/user/:id/post/:postId", "/user/:id/post/:postId", []string{"id", "postId"}, nil},
		{"/search?q&page", "/search", nil, []string{"q", "page"}},
		{"/user/:id?id&theme", "/user/:id", []string{"id"}, []string{"id", "theme"}},
		{"/list?sort=asc&&sort", "/list", nil, []string{"sort"}},
	}

	for _, tt := range tests {
		c, err := Compile(tt.pattern)
		if err != nil {
			t.Errorf("Compile(%q) error: %v", tt.pattern, err)
			continue
		}
		if c.String() != tt.pattern {
			t.Errorf("String() = %q, want %q", c.String(), tt.pattern)
		}
		if c.Path() != tt.wantPath {
			t.Errorf("Compile(%q).Path() = %q, want %q", tt.pattern, c.Path(), tt.wantPath)
		}
		if got := c.ParamNames(); !reflect.DeepEqual(got, tt.wantParams) {
			t.Errorf("Compile(%q).ParamNames() = %v, want %v", tt.pattern, got, tt.wantParams)
		}
		if got := c.QueryNames(); !reflect.DeepEqual(got, tt.wantQuery) {
			t.Errorf("Compile(%q).QueryNames() = %v, want %v", tt.pattern, got, tt.wantQuery)
		}
		for _, name := range tt.wantQuery {
			if !c.Declares(name) {
				t.Errorf("Compile(%q).Declares(%q) = false", tt.pattern, name)
			}
		}
	}
}

func TestCompileRejectsEmptySegment(t *testing.T) {
	for _, p := range []string{"/a//b", "//", "///", "/a//b?x"} {
		_, err := Compile(p)
		if !errors.Is(err, routepath.ErrInvalidPath) {
			t.Errorf("Compile(%q) error = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile should panic on invalid pattern")
		}
	}()
	MustCompile("/a//b")
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/", "/", true},
		{"/", "", true},
		{"/about", "/about", true},
		{"/about", "/about/", true},
		{"/about/", "/about", true},
		{"/about", "/About", false},
		{"/about", "/about/more", false},
		{"/user/:id", "/user/123", true},
		{"/user/:id", "/user", false},
		{"/user/:id", "/user/123/extra", false},
		{"/files/a.*b", "/files/a.*b", true},
		{"/files/a.*b", "/files/axxb", false},
		{"/(x|y)", "/x", false},
		{"/(x|y)", "/(x|y)", true},
		{"/:a/:b", "/1/2", true},
	}

	for _, tt := range tests {
		c := MustCompile(tt.pattern)
		if got := c.Match(routepath.Segments(tt.path)); got != tt.want {
			t.Errorf("Compile(%q).Match(%q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	c := MustCompile("/user/:id/post/:slug")
	segs := routepath.Segments("/user/a%20b/post/x%2By")
	if !c.Match(segs) {
		t.Fatal("expected match")
	}
	got, err := c.Extract(segs, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	want := map[string]string{"id": "a b", "slug": "x+y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}

	if _, err := c.Extract(routepath.Segments("/user/%ZZ/post/x"), nil); !errors.Is(err, routepath.ErrMalformedEscape) {
		t.Errorf("Extract malformed error = %v, want ErrMalformedEscape", err)
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		params  map[string]string
		want    string
	}{
		{"static", "/about", nil, "/about"},
		{"param", "/user/:id", map[string]string{"id": "123"}, "/user/123"},
		{"encoded", "/user/:id", map[string]string{"id": "a b&c"}, "/user/a%20b%26c"},
		{"missing param", "/user/:id", nil, "/user/"},
		{"trailing slash kept", "/user/:id/", map[string]string{"id": "1"}, "/user/1/"},
		{"query subset", "/search?q&page", map[string]string{"q": "go lang"}, "/search?q=go%20lang"},
		{"query order", "/search?q&page", map[string]string{"page": "2", "q": "x"}, "/search?q=x&page=2"},
		{"query empty value", "/search?q", map[string]string{"q": ""}, "/search?q="},
		{"undeclared ignored", "/search?q", map[string]string{"other": "1"}, "/search"},
		{"both", "/user/:id?tab", map[string]string{"id": "7", "tab": "posts"}, "/user/7?tab=posts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputePath(tt.pattern, tt.params, nil); got != tt.want {
				t.Errorf("ComputePath(%q, %v) = %q, want %q", tt.pattern, tt.params, got, tt.want)
			}
		})
	}
}

func TestComputeRoundTrip(t *testing.T) {
	c := MustCompile("/item/:name/:detail")
	values := []string{"with space", "a+b", "a&b", "#frag", "me@host", "v1.2", ".*[]()|", "q?x"}

	for _, v := range values {
		params := map[string]string{"name": v, "detail": "d " + v}
		path := c.Compute(params, nil)
		if !routepath.IsValid(path) {
			t.Errorf("Compute(%q) = %q is not a valid path", v, path)
			continue
		}
		segs := routepath.Segments(path)
		if !c.Match(segs) {
			t.Errorf("pattern does not match computed path %q", path)
			continue
		}
		got, err := c.Extract(segs, nil)
		if err != nil {
			t.Errorf("Extract(%q) error: %v", path, err)
			continue
		}
		if !reflect.DeepEqual(got, params) {
			t.Errorf("round trip of %q = %v, want %v", v, got, params)
		}
	}
}
