package router

// Route is an immutable route declaration: a pattern plus optional
// lifecycle callbacks.
type Route struct {
	// Pattern is the declared pattern (e.g., "/user/:id?tab").
	Pattern string

	// Name is an optional label used in logs and metrics.
	Name string

	// OnEnter is called when the route becomes active.
	OnEnter func(params Params)

	// OnExit is called with the outgoing params when another route
	// becomes active.
	OnExit func(params Params)

	// OnParamChange is called when the route stays active but its params
	// change.
	OnParamChange func(params, prev Params)
}

// Label returns Name if set, otherwise Pattern.
func (r *Route) Label() string {
	if r == nil {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	return r.Pattern
}

// Match contains the result of resolving a concrete path.
type Match struct {
	// Route is the matched route, or the fallback route on a miss.
	Route *Route

	// Path is the clean path (query removed) used for matching.
	Path string

	// Query is the raw query component without "?".
	Query string

	// Params are the extracted path and query parameters.
	Params Params

	// Fallback is true when Route is the fallback for an unmatched path.
	Fallback bool
}
