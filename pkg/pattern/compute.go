package pattern

import (
	"strings"

	"github.com/vango-dev/navroute/pkg/routepath"
)

// Compute substitutes params into the pattern and appends a query string
// built from the declared query names present in params.
//
// A parameter without a value is substituted as the empty string; the
// resulting path then fails validation at navigation time rather than here.
// Declared query names missing from params are omitted, never written as
// "name=".
func (c *Compiled) Compute(params map[string]string, codec routepath.Codec) string {
	if codec == nil {
		codec = routepath.DefaultCodec
	}

	// Substitute on the raw split so leading and trailing slashes are kept
	// exactly as declared.
	parts := strings.Split(c.path, "/")
	for i, part := range parts {
		if name, ok := strings.CutPrefix(part, ParamMarker); ok {
			parts[i] = codec.Encode(params[name])
		}
	}
	path := strings.Join(parts, "/")

	return path + c.Query(params, codec)
}

// Query renders "?name=value&..." for the declared query names present in
// params, in declaration order. It returns "" when none are present.
func (c *Compiled) Query(params map[string]string, codec routepath.Codec) string {
	if codec == nil {
		codec = routepath.DefaultCodec
	}

	var b strings.Builder
	for _, name := range c.queryNames {
		value, ok := params[name]
		if !ok {
			continue
		}
		if b.Len() == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(codec.Encode(name))
		b.WriteByte('=')
		b.WriteString(codec.Encode(value))
	}
	return b.String()
}

// ComputePath is a convenience for Parse(pattern).Compute(params, codec).
func ComputePath(pattern string, params map[string]string, codec routepath.Codec) string {
	return Parse(pattern).Compute(params, codec)
}
