// Package pattern compiles declared route patterns such as
// "/user/:id?tab&sort" into matchers.
//
// A pattern is a "/"-delimited list of segments. Segments starting with ":"
// are parameters and match any single non-empty segment; every other segment
// is a literal that must match byte-for-byte. Literals are never treated as
// regular expressions, so "/files/a.*b" only matches that exact path.
//
// An optional "?name1&name2" suffix declares the query parameters the route
// recognizes. A declaration may carry a "=default" part; it is kept for
// documentation and has no effect on matching or extraction.
package pattern

import (
	"strings"

	"github.com/vango-dev/navroute/pkg/routepath"
)

// ParamMarker introduces a parameter segment.
const ParamMarker = ":"

// segment is one compiled path segment.
type segment struct {
	literal string
	param   string
	isParam bool
}

// Compiled is an immutable matcher built from one pattern.
type Compiled struct {
	raw        string
	path       string
	segments   []segment
	paramNames []string
	queryNames []string
	queryIndex map[string]struct{}
}

// Compile parses and validates pattern. An interior empty segment ("//")
// returns a *routepath.InvalidPathError.
func Compile(pattern string) (*Compiled, error) {
	path, _, _ := routepath.SplitPathAndQuery(pattern)
	if err := routepath.Validate(path); err != nil {
		return nil, err
	}
	return Parse(pattern), nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Compiled {
	c, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a Compiled without validating the path portion. It is used
// for substitution, where the resulting concrete path is validated instead.
func Parse(pattern string) *Compiled {
	path, query, _ := routepath.SplitPathAndQuery(pattern)

	c := &Compiled{
		raw:        pattern,
		path:       path,
		queryIndex: make(map[string]struct{}),
	}

	for _, seg := range routepath.Segments(path) {
		if name, ok := strings.CutPrefix(seg, ParamMarker); ok {
			c.segments = append(c.segments, segment{param: name, isParam: true})
			c.paramNames = append(c.paramNames, name)
			continue
		}
		c.segments = append(c.segments, segment{literal: seg})
	}

	for _, decl := range strings.Split(query, "&") {
		name, _, _ := strings.Cut(decl, "=")
		if name == "" {
			continue
		}
		if _, dup := c.queryIndex[name]; dup {
			continue
		}
		c.queryIndex[name] = struct{}{}
		c.queryNames = append(c.queryNames, name)
	}

	return c
}

// String returns the pattern as declared.
func (c *Compiled) String() string { return c.raw }

// Path returns the path portion of the pattern (before "?").
func (c *Compiled) Path() string { return c.path }

// ParamNames returns the path parameter names in positional order.
func (c *Compiled) ParamNames() []string {
	return append([]string(nil), c.paramNames...)
}

// QueryNames returns the declared query parameter names in declaration order.
func (c *Compiled) QueryNames() []string {
	return append([]string(nil), c.queryNames...)
}

// Declares reports whether name is a declared query parameter.
func (c *Compiled) Declares(name string) bool {
	_, ok := c.queryIndex[name]
	return ok
}

// IsParam reports whether name is a path parameter of the pattern.
func (c *Compiled) IsParam(name string) bool {
	for _, n := range c.paramNames {
		if n == name {
			return true
		}
	}
	return false
}

// Match reports whether the concrete segments match the pattern.
func (c *Compiled) Match(segments []string) bool {
	if len(segments) != len(c.segments) {
		return false
	}
	for i, seg := range c.segments {
		if seg.isParam {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if segments[i] != seg.literal {
			return false
		}
	}
	return true
}

// Extract decodes the path parameters out of matching segments. The caller
// must have checked Match first.
func (c *Compiled) Extract(segments []string, codec routepath.Codec) (map[string]string, error) {
	if codec == nil {
		codec = routepath.DefaultCodec
	}
	params := make(map[string]string, len(c.paramNames))
	for i, seg := range c.segments {
		if !seg.isParam {
			continue
		}
		value, err := codec.Decode(segments[i])
		if err != nil {
			return nil, err
		}
		params[seg.param] = value
	}
	return params, nil
}
