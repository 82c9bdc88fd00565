package navigator

import (
	"github.com/vango-dev/navroute/pkg/host"
	"github.com/vango-dev/navroute/pkg/router"
)

// Observer receives navigator events for metrics and tracing.
// Methods are called synchronously and must not block.
type Observer interface {
	// NavigationStarted is called when Navigate or NavigateAny is invoked.
	NavigationStarted(nav *Navigation, mode host.Mode)

	// NavigationFinished is called once per navigation when it resolves or
	// is rejected.
	NavigationFinished(nav *Navigation, state State, err error)

	// Transition is called after each enter, exit or param change.
	Transition(kind TransitionKind, route *router.Route)

	// Miss is called when a valid path matched no route.
	Miss(path string)

	// CallbackPanic is called when a hook or subscriber panicked.
	CallbackPanic(callback string)

	// PendingChanged reports the fragment-mode queue length.
	PendingChanged(n int)
}

// NopObserver implements Observer with no-ops. Embed it to implement only
// some methods.
type NopObserver struct{}

func (NopObserver) NavigationStarted(*Navigation, host.Mode)     {}
func (NopObserver) NavigationFinished(*Navigation, State, error) {}
func (NopObserver) Transition(TransitionKind, *router.Route)     {}
func (NopObserver) Miss(string)                                  {}
func (NopObserver) CallbackPanic(string)                         {}
func (NopObserver) PendingChanged(int)                           {}
