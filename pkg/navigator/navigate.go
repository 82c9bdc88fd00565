package navigator

import (
	"errors"

	"github.com/vango-dev/navroute/pkg/host"
	"github.com/vango-dev/navroute/pkg/router"
)

// Navigate changes the location to target and activates the matching route.
//
// With nil params target is used as a concrete path. Otherwise params are
// substituted into target, which may be a full pattern ("/user/:id?tab"),
// the path portion of a registered pattern that declares query parameters
// ("/user/:id"), or a concrete path with only query parameters
// ("/search" with {"q": "go"}).
//
// The concrete path is validated and checked against the table before the
// location is touched. An invalid path rejects the navigation without
// calling the miss handler. A path with no route and no fallback calls the
// miss handler once with the clean path and then rejects the navigation.
func (n *Navigator) Navigate(target string, params router.Params) *Navigation {
	path := target
	if params != nil {
		path = n.table.Compute(target, params)
	}
	return n.navigate(path)
}

// NavigateAny navigates to an arbitrary concrete path.
func (n *Navigator) NavigateAny(path string) *Navigation {
	return n.navigate(path)
}

func (n *Navigator) navigate(path string) *Navigation {
	nav := newNavigation(path, n.mode)
	n.observe(func(o Observer) { o.NavigationStarted(nav, n.mode) })

	switch {
	case n.closed.Load():
		n.finish(nav, State{}, ErrClosed)
		return nav
	case !n.initialized.Load():
		n.finish(nav, State{}, ErrNotInitialized)
		return nav
	}

	if err := n.table.Check(path); err != nil {
		var nf *router.RouteNotFoundError
		if errors.As(err, &nf) {
			n.table.Miss(nf.Path)
			n.observe(func(o Observer) { o.Miss(nf.Path) })
			n.logger.Warn("no route matched", "path", nf.Path)
		}
		n.finish(nav, State{}, err)
		return nav
	}

	if n.mode == host.ModePath {
		n.host.Push(path)
		n.schedule(nav, func() (State, error) {
			// The location is read when the task runs, not when it was
			// scheduled: with racing navigations the last push wins.
			return n.applyPath(host.ConcretePath(n.host.Location(), n.mode))
		})
		return nav
	}

	n.navMu.Lock()
	defer n.navMu.Unlock()

	if n.host.Location().Fragment == path {
		// Setting an unchanged fragment raises no hashchange.
		n.schedule(nav, func() (State, error) {
			return n.applyPath(path)
		})
		return nav
	}

	size := n.pending.push(nav)
	n.observePending(size)
	n.host.SetFragment(path)
	return nav
}

// schedule runs apply on the loop and settles nav with its result. Until
// the task starts, nav is tracked so Close can reject it; a task that runs
// after Close settles with ErrClosed without activating anything.
func (n *Navigator) schedule(nav *Navigation, apply func() (State, error)) {
	n.scheduled.push(nav)
	err := n.loop.Dispatch(func() {
		n.scheduled.remove(nav)
		if n.closed.Load() {
			n.finish(nav, State{}, ErrClosed)
			return
		}
		state, err := apply()
		n.finish(nav, state, err)
	})
	if err != nil {
		n.scheduled.remove(nav)
		n.finish(nav, State{}, err)
	}
}

func (n *Navigator) finish(nav *Navigation, state State, err error) {
	if !nav.settle(state, err) {
		return
	}
	if err != nil {
		n.logger.Debug("navigation rejected", "nav_id", nav.ID(), "target", nav.Target(), "error", err)
	} else {
		n.logger.Debug("navigation resolved", "nav_id", nav.ID(), "target", nav.Target(), "route", state.Pattern())
	}
	n.observe(func(o Observer) { o.NavigationFinished(nav, state, err) })
}
