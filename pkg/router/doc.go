// Package router resolves concrete URLs against an ordered table of routes.
//
// The table is built once from route declarations and never changes:
//
//	user := &router.Route{Pattern: "/user/:id?tab"}
//	notFound := &router.Route{Pattern: "/404"}
//
//	t, err := router.NewTable(
//	    []*router.Route{user, notFound},
//	    router.WithFallback(notFound),
//	    router.WithMissHandler(func(path string) { log.Printf("miss: %s", path) }),
//	)
//
//	m, err := t.Resolve("/user/alice?tab=posts")
//	// m.Route == user
//	// m.Params["id"] == "alice", m.Params["tab"] == "posts"
//
// # Matching
//
// Routes are tried in registration order and the first match wins. A single
// trailing slash is ignored, so "/about" and "/about/" are equivalent. Paths
// with an empty segment ("/a//b") are rejected with a
// *routepath.InvalidPathError before matching and never reach the miss
// handler or the fallback.
//
// # Parameters
//
// Path parameters are decoded positionally. Query parameters are extracted
// only for names the matched pattern declares after "?"; a query name that is
// also a path parameter is ignored, so the path value always wins.
package router
