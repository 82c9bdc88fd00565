package router

import (
	"errors"
	"fmt"
)

// ErrRouteNotFound is matched by every *RouteNotFoundError.
var ErrRouteNotFound = errors.New("route not found")

// RouteNotFoundError reports a valid path that matches no route when no
// usable fallback is configured.
type RouteNotFoundError struct {
	// Path is the clean path that failed to match.
	Path string

	// Fallback is the pattern of a configured fallback route that is not
	// part of the table, or "" when no fallback was configured.
	Fallback string
}

func (e *RouteNotFoundError) Error() string {
	if e.Fallback != "" {
		return fmt.Sprintf("no route matches %q and fallback %q is not a registered route", e.Path, e.Fallback)
	}
	return fmt.Sprintf("no route matches %q", e.Path)
}

// Unwrap returns ErrRouteNotFound.
func (e *RouteNotFoundError) Unwrap() error {
	return ErrRouteNotFound
}
