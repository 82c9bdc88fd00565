// Package errors provides structured, actionable diagnostics for navctl.
//
// Library packages return plain sentinel and typed errors. The CLI turns
// them into coded diagnostics that:
//   - Show the source location in a route file (file, line, column)
//   - Explain what went wrong in plain language
//   - Suggest how to fix it
//
// # Error Categories
//
//   - validation: concrete paths and patterns that can never match
//   - routing: valid paths with no route
//   - config: route files that fail to parse or validate
//   - source: route files that cannot be fetched
//   - runtime: navigator lifecycle errors
//   - protocol: WebSocket host errors
//
// # Usage
//
//	err := errors.New("N003").
//	    WithLocation("routes.yaml", 7, 14).
//	    WithSuggestion("Remove the empty segment from the pattern").
//	    Wrap(&routepath.InvalidPathError{Path: "/a//b"})
//
//	fmt.Print(err.Format())
//	// Output:
//	// N003 Invalid route configuration
//	//   routes.yaml:7:14
//	//   7 |   - pattern: /a//b
//	//     |                 ^ empty segment
//	//   The route file could not be parsed or contains an invalid entry.
//	//   hint: Remove the empty segment from the pattern
//
// Errors about a concrete path print the path itself with the same marker,
// and not-found errors print the path and the fallback state.
package errors
