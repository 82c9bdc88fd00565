// Package routepath holds the low-level path handling shared by the pattern
// compiler, the matcher and the navigator: structural validation, splitting a
// concrete path into its path and query parts, segment splitting, query
// parsing and percent encoding.
package routepath

import (
	"errors"
	"fmt"
	"strings"
)

// Path handling errors.
var (
	ErrInvalidPath     = errors.New("invalid path")
	ErrMalformedEscape = errors.New("malformed percent escape")
)

// InvalidPathError reports a path that contains an empty segment.
// It matches ErrInvalidPath with errors.Is.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: empty segment (consecutive '/')", e.Path)
}

// Unwrap returns ErrInvalidPath.
func (e *InvalidPathError) Unwrap() error {
	return ErrInvalidPath
}

// IsValid reports whether path is free of consecutive separators.
func IsValid(path string) bool {
	return !strings.Contains(path, "//")
}

// Validate returns an *InvalidPathError if path contains an empty segment.
func Validate(path string) error {
	if !IsValid(path) {
		return &InvalidPathError{Path: path}
	}
	return nil
}

// SplitPathAndQuery splits input at the first "?".
// The query is returned without the leading "?"; hasQuery distinguishes
// "/a?" (empty query) from "/a".
func SplitPathAndQuery(input string) (path, query string, hasQuery bool) {
	return strings.Cut(input, "?")
}

// Segments splits a validated path into its segments.
// A single leading and a single trailing slash are ignored, so "/about",
// "about" and "/about/" all yield ["about"]. The root path yields no segments.
func Segments(path string) []string {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
