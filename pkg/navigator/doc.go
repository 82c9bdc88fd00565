// Package navigator drives route activation for a single-page application.
//
// A Navigator owns the activation state (current path, route and params),
// resolves locations through a router.Table, fires lifecycle callbacks and
// changes the host location on Navigate.
//
// # Usage
//
//	user := &router.Route{
//	    Pattern:       "/user/:id?tab",
//	    OnEnter:       func(p router.Params) { show(p["id"]) },
//	    OnParamChange: func(p, prev router.Params) { swap(prev["id"], p["id"]) },
//	}
//	table, _ := router.NewTable([]*router.Route{home, user})
//
//	nav, err := navigator.New(table, host.NewMemory("/"),
//	    navigator.WithMode(host.ModeFragment),
//	)
//	state, err := nav.Navigate("/user/:id", router.Params{"id": "42"}).Wait(ctx)
//
// # Transitions
//
// Activating a route while none is active fires the global OnEnter hook and
// then the route's OnEnter. Activating the active route with different
// params fires OnParamChange (global, then route). Activating another route
// fires OnExit (global, then outgoing route, with the outgoing params) and
// then the OnEnter pair. Re-activating with identical params does nothing,
// and subscribers are only notified when the state actually changed.
//
// # Modes
//
// In fragment mode the location fragment is the path and setting it raises a
// hashchange notification for each change. Pending navigations are kept in a
// FIFO queue and each notification resolves the oldest one, so navigations
// complete in the order they were issued.
//
// In path mode Navigate pushes a history entry, which raises nothing, and
// schedules its own activation on the loop. That activation reads the host
// location when it runs, so when several navigations race the last pushed
// location wins and every one of them resolves with the state current at the
// moment its task ran. Back/forward arrive as popstate notifications.
//
// # Callbacks
//
// Every activation, lifecycle hook and subscriber runs on the navigator's
// loop. A panicking hook, subscriber or miss handler is recovered and logged;
// the remaining callbacks still run and the activation completes.
package navigator
