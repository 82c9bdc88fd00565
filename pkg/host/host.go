// Package host defines the environment a navigator runs against: where the
// current location is read from, how it is changed, and how changes are
// announced.
//
// Implementations:
//   - Memory: an in-memory browser with a history stack, used by tests and
//     the simulate command.
//   - wshost.Host: a remote browser connected over a WebSocket.
//   - browser.Host: the real window.location when compiled for js/wasm.
package host

import "strings"

// EventKind identifies a location-change notification.
type EventKind int

const (
	// EventPopState fires when the history entry changes through the
	// browser (back/forward). Pushing a path does not fire it.
	EventPopState EventKind = iota

	// EventHashChange fires after every change of the fragment.
	EventHashChange
)

// String returns the DOM event name.
func (k EventKind) String() string {
	switch k {
	case EventPopState:
		return "popstate"
	case EventHashChange:
		return "hashchange"
	default:
		return "unknown"
	}
}

// Location is a snapshot of the current URL.
type Location struct {
	// Path is the URL path, starting with "/".
	Path string `json:"path"`

	// Query is the query string without "?".
	Query string `json:"query,omitempty"`

	// Fragment is the fragment without "#".
	Fragment string `json:"fragment,omitempty"`
}

// Host is the location accessor, mutator and change notifier a navigator
// needs.
type Host interface {
	// Location returns the current location.
	Location() Location

	// Push adds a history entry for path (which may carry "?query").
	// It does not raise a notification.
	Push(path string)

	// SetFragment replaces the fragment. When the value differs from the
	// current fragment the host raises exactly one EventHashChange.
	SetFragment(fragment string)

	// Listen registers fn for kind and returns a function that removes it.
	// fn receives the location as it was right after the change.
	Listen(kind EventKind, fn func(Location)) (cancel func())
}

// Mode selects how the concrete path is derived from the location.
type Mode int

const (
	// ModeFragment uses the fragment ("#/user/1"). Mutations notify.
	ModeFragment Mode = iota

	// ModePath uses the path and query ("/user/1?tab=x"). Mutations are
	// silent pushes.
	ModePath
)

// String returns "fragment" or "path".
func (m Mode) String() string {
	if m == ModePath {
		return "path"
	}
	return "fragment"
}

// ParseMode parses "fragment", "hash", "path" or "history".
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fragment", "hash":
		return ModeFragment, true
	case "path", "history":
		return ModePath, true
	default:
		return ModeFragment, false
	}
}

// Event returns the notification kind a mode listens to.
func (m Mode) Event() EventKind {
	if m == ModePath {
		return EventPopState
	}
	return EventHashChange
}

// ConcretePath derives the path a navigator matches from loc. In fragment
// mode an empty fragment is the root path "/".
func ConcretePath(loc Location, mode Mode) string {
	if mode == ModePath {
		p := loc.Path
		if p == "" {
			p = "/"
		}
		if loc.Query != "" {
			p += "?" + loc.Query
		}
		return p
	}
	if loc.Fragment == "" {
		return "/"
	}
	return loc.Fragment
}

// ParseURL splits "/path?query#fragment" into a Location.
func ParseURL(raw string) Location {
	rest, fragment, _ := strings.Cut(raw, "#")
	path, query, _ := strings.Cut(rest, "?")
	if path == "" {
		path = "/"
	}
	return Location{Path: path, Query: query, Fragment: fragment}
}

// String renders the location as "/path?query#fragment".
func (l Location) String() string {
	s := l.Path
	if l.Query != "" {
		s += "?" + l.Query
	}
	if l.Fragment != "" {
		s += "#" + l.Fragment
	}
	return s
}
