// Package middleware provides navigator observers for production
// observability.
//
// This package includes:
//   - Prometheus metrics
//   - OpenTelemetry tracing
//   - Chain, to combine observers
//
// # Prometheus Metrics
//
// The Prometheus observer collects:
//   - navroute_navigations_total: Navigations by mode and status
//   - navroute_navigation_duration_seconds: Navigation latency histogram
//   - navroute_transitions_total: Route transitions by kind
//   - navroute_misses_total: Paths that matched no route
//   - navroute_callback_panics_total: Recovered hook and subscriber panics
//   - navroute_pending_navigations: Fragment-mode queue length
//
//	nav, err := navigator.New(table, h,
//	    navigator.WithObserver(middleware.Prometheus()),
//	)
//
// Then expose metrics:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// The tracing observer records a "navroute.navigate" span from the navigate
// call until the navigation settles, with transitions and misses as span
// events:
//
//	navigator.WithObserver(middleware.Chain(
//	    middleware.Prometheus(),
//	    middleware.OpenTelemetry(middleware.WithTracerName("my-app")),
//	))
package middleware
