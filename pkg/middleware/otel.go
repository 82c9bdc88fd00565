package middleware

import (
	"context"
	"sync"

	"github.com/vango-dev/navroute/pkg/host"
	"github.com/vango-dev/navroute/pkg/navigator"
	"github.com/vango-dev/navroute/pkg/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for navroute.
const defaultTracerName = "navroute"

// SpanName is the name of the span recorded for each navigation.
const SpanName = "navroute.navigate"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "navroute").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// Context is the parent of every navigation span
	// (default: context.Background()).
	Context context.Context

	// Filter determines which navigations to trace. If nil, all are traced.
	Filter func(nav *navigator.Navigation) bool

	// AttributeExtractor adds custom attributes when a navigation starts.
	AttributeExtractor func(nav *navigator.Navigation) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithParentContext sets the context navigation spans are started from.
func WithParentContext(ctx context.Context) OTelOption {
	return func(c *OTelConfig) {
		c.Context = ctx
	}
}

// WithNavigationFilter sets a filter function for navigations.
func WithNavigationFilter(filter func(nav *navigator.Navigation) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(nav *navigator.Navigation) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
}

// OpenTelemetry returns an observer that records one span per navigation.
//
// The span starts when Navigate is called and ends when the navigation
// settles. It carries the target path, the mode and, once resolved, the
// matched pattern. Transitions and misses that happen while a span is open
// are added as span events; rejections are recorded as errors.
//
// Without WithTracerProvider the global provider is used. Configure it in
// main() before creating navigators:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) *TracingObserver {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &TracingObserver{
		config: config,
		tracer: tp.Tracer(config.TracerName),
		spans:  make(map[*navigator.Navigation]trace.Span),
	}
}

// TracingObserver implements navigator.Observer.
type TracingObserver struct {
	config OTelConfig
	tracer trace.Tracer

	mu     sync.Mutex
	spans  map[*navigator.Navigation]trace.Span
	latest *navigator.Navigation
}

var _ navigator.Observer = (*TracingObserver)(nil)

// NavigationStarted implements navigator.Observer.
func (o *TracingObserver) NavigationStarted(nav *navigator.Navigation, mode host.Mode) {
	if o.config.Filter != nil && !o.config.Filter(nav) {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("navroute.target", nav.Target()),
		attribute.String("navroute.mode", mode.String()),
		attribute.String("navroute.nav_id", nav.ID()),
	}
	if o.config.AttributeExtractor != nil {
		attrs = append(attrs, o.config.AttributeExtractor(nav)...)
	}

	_, span := o.tracer.Start(o.config.Context, SpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(nav.Started()),
	)

	o.mu.Lock()
	o.spans[nav] = span
	o.latest = nav
	o.mu.Unlock()
}

// NavigationFinished implements navigator.Observer.
func (o *TracingObserver) NavigationFinished(nav *navigator.Navigation, state navigator.State, err error) {
	o.mu.Lock()
	span, ok := o.spans[nav]
	delete(o.spans, nav)
	if o.latest == nav {
		o.latest = nil
	}
	o.mu.Unlock()
	if !ok {
		return
	}
	defer span.End()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("navroute.status", Status(err)))
		return
	}
	span.SetAttributes(
		attribute.String("navroute.route", state.Pattern()),
		attribute.String("navroute.path", state.Path),
		attribute.String("navroute.status", Status(nil)),
	)
	span.SetStatus(codes.Ok, "")
}

// Transition implements navigator.Observer. The event is added to the most
// recently started open span.
func (o *TracingObserver) Transition(kind navigator.TransitionKind, route *router.Route) {
	o.addEvent("navroute."+kind.String(), attribute.String("navroute.route", route.Label()))
}

// Miss implements navigator.Observer.
func (o *TracingObserver) Miss(path string) {
	o.addEvent("navroute.miss", attribute.String("navroute.path", path))
}

// CallbackPanic implements navigator.Observer.
func (o *TracingObserver) CallbackPanic(callback string) {
	o.addEvent("navroute.callback_panic", attribute.String("navroute.callback", callback))
}

// PendingChanged implements navigator.Observer.
func (o *TracingObserver) PendingChanged(int) {}

// InFlight returns the number of open navigation spans.
func (o *TracingObserver) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.spans)
}

// SpanFor returns the open span of nav, or nil.
func (o *TracingObserver) SpanFor(nav *navigator.Navigation) trace.Span {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.spans[nav]
}

func (o *TracingObserver) addEvent(name string, attrs ...attribute.KeyValue) {
	o.mu.Lock()
	span, ok := o.spans[o.latest]
	o.mu.Unlock()
	if !ok {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
