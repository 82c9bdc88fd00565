package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/navroute/pkg/host"
	"github.com/vango-dev/navroute/pkg/navigator"
	"github.com/vango-dev/navroute/pkg/router"
	"github.com/vango-dev/navroute/pkg/routepath"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navroute").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "navroute",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for navroute.
type metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	transitionsTotal   *prometheus.CounterVec
	missesTotal        prometheus.Counter
	callbackPanics     *prometheus.CounterVec
	pending            prometheus.Gauge
}

// globalMetrics is created on the first call to Prometheus. Every observer
// returned afterwards shares it, so several navigators in one process report
// into the same series.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by mode and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "status"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Time from navigate call to settlement in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		transitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transitions_total",
			Help:        "Total number of route transitions by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		missesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "misses_total",
			Help:        "Total number of paths that matched no route",
			ConstLabels: config.ConstLabels,
		}),

		callbackPanics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "callback_panics_total",
			Help:        "Total number of recovered hook and subscriber panics",
			ConstLabels: config.ConstLabels,
		}, []string{"callback"}),

		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pending_navigations",
			Help:        "Fragment-mode navigations waiting for their hashchange",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus returns an observer that records navigator metrics.
//
// Metrics collected:
//   - navroute_navigations_total: Counter of navigations by mode and status
//   - navroute_navigation_duration_seconds: Histogram of navigation latency
//   - navroute_transitions_total: Counter of enter, exit and param_change
//   - navroute_misses_total: Counter of unmatched paths
//   - navroute_callback_panics_total: Counter of recovered callback panics
//   - navroute_pending_navigations: Gauge of the fragment-mode queue length
//
// Example:
//
//	nav, err := navigator.New(table, h,
//	    navigator.WithObserver(middleware.Prometheus()),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) *PrometheusObserver {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return &PrometheusObserver{m: m}
}

// PrometheusObserver implements navigator.Observer.
type PrometheusObserver struct {
	m *metrics
}

var _ navigator.Observer = (*PrometheusObserver)(nil)

// NavigationStarted implements navigator.Observer.
func (p *PrometheusObserver) NavigationStarted(*navigator.Navigation, host.Mode) {}

// NavigationFinished implements navigator.Observer.
func (p *PrometheusObserver) NavigationFinished(nav *navigator.Navigation, _ navigator.State, err error) {
	mode := nav.Mode().String()
	p.m.navigationDuration.WithLabelValues(mode).Observe(time.Since(nav.Started()).Seconds())
	p.m.navigationsTotal.WithLabelValues(mode, Status(err)).Inc()
}

// Transition implements navigator.Observer.
func (p *PrometheusObserver) Transition(kind navigator.TransitionKind, _ *router.Route) {
	p.m.transitionsTotal.WithLabelValues(kind.String()).Inc()
}

// Miss implements navigator.Observer.
func (p *PrometheusObserver) Miss(string) {
	p.m.missesTotal.Inc()
}

// CallbackPanic implements navigator.Observer.
func (p *PrometheusObserver) CallbackPanic(callback string) {
	p.m.callbackPanics.WithLabelValues(callback).Inc()
}

// PendingChanged implements navigator.Observer.
func (p *PrometheusObserver) PendingChanged(n int) {
	p.m.pending.Set(float64(n))
}

// Status returns a low-cardinality label for a navigation outcome.
func Status(err error) string {
	switch {
	case err == nil:
		return "resolved"
	case errors.Is(err, routepath.ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, routepath.ErrMalformedEscape):
		return "malformed_escape"
	case errors.Is(err, router.ErrRouteNotFound):
		return "not_found"
	case errors.Is(err, navigator.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, navigator.ErrClosed):
		return "closed"
	default:
		return "error"
	}
}
