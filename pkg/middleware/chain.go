package middleware

import (
	"github.com/vango-dev/navroute/pkg/host"
	"github.com/vango-dev/navroute/pkg/navigator"
	"github.com/vango-dev/navroute/pkg/router"
)

// Chain fans every event out to observers in order. Nil entries are
// skipped.
func Chain(observers ...navigator.Observer) navigator.Observer {
	c := make(chain, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			c = append(c, o)
		}
	}
	return c
}

type chain []navigator.Observer

func (c chain) NavigationStarted(nav *navigator.Navigation, mode host.Mode) {
	for _, o := range c {
		o.NavigationStarted(nav, mode)
	}
}

func (c chain) NavigationFinished(nav *navigator.Navigation, state navigator.State, err error) {
	for _, o := range c {
		o.NavigationFinished(nav, state, err)
	}
}

func (c chain) Transition(kind navigator.TransitionKind, route *router.Route) {
	for _, o := range c {
		o.Transition(kind, route)
	}
}

func (c chain) Miss(path string) {
	for _, o := range c {
		o.Miss(path)
	}
}

func (c chain) CallbackPanic(callback string) {
	for _, o := range c {
		o.CallbackPanic(callback)
	}
}

func (c chain) PendingChanged(n int) {
	for _, o := range c {
		o.PendingChanged(n)
	}
}
