package errors

import "slices"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	"N001": {
		Category: CategoryValidation,
		Message:  "Invalid path",
		Detail:   "Paths and patterns must not contain an empty segment. Two consecutive slashes can never match a route.",
	},
	"N002": {
		Category: CategoryRouting,
		Message:  "No route matches the path",
		Detail:   "The path is valid but no registered pattern matches it and no fallback route is configured.",
	},
	"N003": {
		Category: CategoryConfig,
		Message:  "Invalid route configuration",
		Detail:   "The route file could not be parsed or contains an invalid entry.",
	},
	"N004": {
		Category: CategorySource,
		Message:  "Route source unavailable",
		Detail:   "The route file could not be read from disk or fetched from object storage.",
	},
	"N005": {
		Category: CategoryValidation,
		Message:  "Malformed percent-escape",
		Detail:   "A path segment or query value contains a '%' that is not followed by two hex digits.",
	},
	"N006": {
		Category: CategoryRuntime,
		Message:  "Navigator not running",
		Detail:   "Navigations are rejected before Init has succeeded and after Close.",
	},
	"N007": {
		Category: CategoryProtocol,
		Message:  "Browser handshake failed",
		Detail:   "The WebSocket client must send its location as the first frame.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered codes in ascending order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}
