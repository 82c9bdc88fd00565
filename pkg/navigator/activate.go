package navigator

import (
	"errors"
	"runtime/debug"

	"github.com/vango-dev/navroute/pkg/router"
)

// applyPath resolves path and activates the result. It returns the state
// right after activation.
func (n *Navigator) applyPath(path string) (State, error) {
	m, err := n.table.Resolve(path)
	if err != nil {
		if errors.Is(err, router.ErrRouteNotFound) {
			n.observe(func(o Observer) { o.Miss(path) })
			n.logger.Warn("no route matched", "path", path)
		}
		return State{}, err
	}
	if m.Fallback {
		n.observe(func(o Observer) { o.Miss(m.Path) })
		n.logger.Warn("no route matched, activating fallback", "path", m.Path, "fallback", m.Route.Pattern)
	}

	n.activate(path, m.Route, m.Params)
	return n.State(), nil
}

// activate applies the transition to route with params.
func (n *Navigator) activate(path string, route *router.Route, params router.Params) {
	n.activateMu.Lock()
	defer n.activateMu.Unlock()

	n.mu.Lock()
	cur := n.state
	n.mu.Unlock()

	if cur.Route == route {
		if cur.Params.Equal(params) {
			return
		}
		n.changeParams(path, route, params, cur.Params)
		n.notify()
		return
	}

	if cur.Route != nil {
		n.exit(cur.Route, cur.Params)
	}
	n.enter(path, route, params)
	n.notify()
}

func (n *Navigator) enter(path string, route *router.Route, params router.Params) {
	if n.hooks.OnEnter != nil {
		n.safeCall("global.onEnter", func() { n.hooks.OnEnter(route, params.Clone()) })
	}
	if route.OnEnter != nil {
		n.safeCall("route.onEnter", func() { route.OnEnter(params.Clone()) })
	}

	n.mu.Lock()
	n.state = State{Path: path, Route: route, Params: params.Clone()}
	n.mu.Unlock()

	n.logger.Debug("route entered", "route", route.Label(), "path", path)
	n.observe(func(o Observer) { o.Transition(TransitionEnter, route) })
}

func (n *Navigator) exit(route *router.Route, params router.Params) {
	if n.hooks.OnExit != nil {
		n.safeCall("global.onExit", func() { n.hooks.OnExit(route, params.Clone()) })
	}
	if route.OnExit != nil {
		n.safeCall("route.onExit", func() { route.OnExit(params.Clone()) })
	}

	n.logger.Debug("route exited", "route", route.Label())
	n.observe(func(o Observer) { o.Transition(TransitionExit, route) })
}

func (n *Navigator) changeParams(path string, route *router.Route, params, prev router.Params) {
	if n.hooks.OnParamChange != nil {
		n.safeCall("global.onParamChange", func() { n.hooks.OnParamChange(route, params.Clone(), prev.Clone()) })
	}
	if route.OnParamChange != nil {
		n.safeCall("route.onParamChange", func() { route.OnParamChange(params.Clone(), prev.Clone()) })
	}

	n.mu.Lock()
	n.state.Params = params.Clone()
	n.state.Path = path
	n.mu.Unlock()

	n.logger.Debug("route params changed", "route", route.Label(), "path", path)
	n.observe(func(o Observer) { o.Transition(TransitionParamChange, route) })
}

// notify calls every subscriber, in registration order, with the current
// state.
func (n *Navigator) notify() {
	n.mu.Lock()
	state := n.state.clone()
	subs := append([]subscriber(nil), n.subs...)
	n.mu.Unlock()

	for _, sub := range subs {
		fn := sub.fn
		n.safeCall("subscriber", func() { fn(state.clone()) })
	}
}

// safeCall runs a user callback with panic recovery.
func (n *Navigator) safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("callback panic",
				"callback", name,
				"panic", r,
				"stack", string(debug.Stack()))
			n.observe(func(o Observer) { o.CallbackPanic(name) })
		}
	}()
	fn()
}
