package navigator

import (
	"errors"

	"github.com/vango-dev/navroute/pkg/router"
)

// Navigator errors.
var (
	ErrAlreadyInitialized = errors.New("navigator: already initialized")
	ErrNotInitialized     = errors.New("navigator: not initialized")
	ErrClosed             = errors.New("navigator: closed")
)

// State is a snapshot of what is currently active.
type State struct {
	// Path is the concrete path (with query) that was activated.
	Path string

	// Route is the active route, nil before the first activation.
	Route *router.Route

	// Params are the active params.
	Params router.Params
}

// Routed reports whether a route is active.
func (s State) Routed() bool {
	return s.Route != nil
}

// Pattern returns the active route's pattern, or "".
func (s State) Pattern() string {
	if s.Route == nil {
		return ""
	}
	return s.Route.Pattern
}

func (s State) clone() State {
	s.Params = s.Params.Clone()
	return s
}

// Hooks are global lifecycle callbacks. They run before the route's own
// callbacks.
type Hooks struct {
	OnEnter       func(route *router.Route, params router.Params)
	OnExit        func(route *router.Route, params router.Params)
	OnParamChange func(route *router.Route, params, prev router.Params)
}

// TransitionKind classifies a state change.
type TransitionKind int

const (
	TransitionEnter TransitionKind = iota
	TransitionExit
	TransitionParamChange
)

// String returns "enter", "exit" or "param_change".
func (k TransitionKind) String() string {
	switch k {
	case TransitionEnter:
		return "enter"
	case TransitionExit:
		return "exit"
	case TransitionParamChange:
		return "param_change"
	default:
		return "unknown"
	}
}
