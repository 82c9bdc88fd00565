package routepath

import (
	"net/url"
	"strings"
)

// Codec percent-encodes and decodes single path segments and query
// components.
type Codec interface {
	Encode(s string) string
	Decode(s string) (string, error)
}

// ComponentCodec is built on net/url. It escapes every byte outside the
// RFC 3986 unreserved set (A-Z a-z 0-9 - _ . ~), so "!*'()" are escaped
// too. A space encodes as "%20" and "+" is never read as a space when
// decoding. Values such as "a b", "x+y", "&", "#", "@" and ".*[]()|"
// survive a round trip.
type ComponentCodec struct{}

// DefaultCodec is the codec used when none is configured.
var DefaultCodec Codec = ComponentCodec{}

// Encode escapes s for use as a path segment or a query name/value.
func (ComponentCodec) Encode(s string) string {
	// QueryEscape already turns a literal "+" into "%2B", so the only "+"
	// left in its output stands for a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Decode reverses Encode. Malformed escapes return ErrMalformedEscape.
func (ComponentCodec) Decode(s string) (string, error) {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return "", ErrMalformedEscape
	}
	return decoded, nil
}
