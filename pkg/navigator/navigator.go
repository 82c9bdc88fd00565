package navigator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/navroute/pkg/host"
	"github.com/vango-dev/navroute/pkg/loop"
	"github.com/vango-dev/navroute/pkg/router"
)

// Navigator resolves locations against a route table and drives route
// lifecycle callbacks.
type Navigator struct {
	table *router.Table
	host  host.Host
	loop  *loop.Loop

	ownsLoop  bool
	mode      host.Mode
	hooks     Hooks
	autoInit  bool
	logger    *slog.Logger
	observers []Observer

	// mu guards state and subscribers.
	mu      sync.Mutex
	state   State
	subs    []subscriber
	nextSub int

	// activateMu serializes activations, including the one done by Init
	// from outside the loop.
	activateMu sync.Mutex

	// navMu makes "enqueue, then mutate the host" atomic so queue order is
	// mutation order.
	navMu   sync.Mutex
	pending pendingQueue

	// scheduled holds navigations whose activation task has been
	// dispatched but has not started.
	scheduled pendingQueue

	initMu       sync.Mutex
	initialized  atomic.Bool
	closed       atomic.Bool
	cancelListen func()
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithMode sets the location mode. The default is host.ModeFragment.
func WithMode(mode host.Mode) Option {
	return func(n *Navigator) {
		n.mode = mode
	}
}

// WithHooks sets the global lifecycle hooks.
func WithHooks(hooks Hooks) Option {
	return func(n *Navigator) {
		n.hooks = hooks
	}
}

// WithAutoInit controls whether New calls Init. The default is true.
func WithAutoInit(auto bool) Option {
	return func(n *Navigator) {
		n.autoInit = auto
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// WithObserver adds an observer. It may be given more than once.
func WithObserver(o Observer) Option {
	return func(n *Navigator) {
		if o != nil {
			n.observers = append(n.observers, o)
		}
	}
}

// WithLoop runs the navigator on l. The caller is responsible for running
// or draining it. Without this option the navigator starts and owns a loop.
func WithLoop(l *loop.Loop) Option {
	return func(n *Navigator) {
		n.loop = l
	}
}

// New creates a Navigator. Unless WithAutoInit(false) is given it calls
// Init and returns its error.
func New(table *router.Table, h host.Host, opts ...Option) (*Navigator, error) {
	n := &Navigator{
		table:    table,
		host:     h,
		mode:     host.ModeFragment,
		autoInit: true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With("mode", n.mode.String())

	if n.loop == nil {
		n.loop = loop.New(loop.WithLogger(n.logger))
		n.ownsLoop = true
		go n.loop.Run(context.Background())
	}

	if n.autoInit {
		if err := n.Init(); err != nil {
			n.Close()
			return nil, err
		}
	}
	return n, nil
}

// Init activates the route for the current host location and starts
// listening for location changes. A second call returns
// ErrAlreadyInitialized; a failed call may be retried.
//
// The initial activation and its hooks run on the calling goroutine, not on
// the loop, so Init works with a loop nobody is running yet. Nothing else
// can activate concurrently: Navigate rejects until Init succeeds and the
// host listener is registered only after the activation.
func (n *Navigator) Init() error {
	if n.closed.Load() {
		return ErrClosed
	}

	n.initMu.Lock()
	defer n.initMu.Unlock()

	if n.initialized.Load() {
		return ErrAlreadyInitialized
	}

	path := host.ConcretePath(n.host.Location(), n.mode)
	if _, err := n.applyPath(path); err != nil {
		n.logger.Error("initial location did not resolve", "path", path, "error", err)
		return err
	}

	n.cancelListen = n.host.Listen(n.mode.Event(), n.onHostEvent)
	n.initialized.Store(true)
	n.logger.Debug("navigator initialized", "path", path)
	return nil
}

// Close stops listening for location changes and rejects every navigation
// that has not been applied yet with ErrClosed: fragment-mode navigations
// waiting for their hashchange and navigations whose task is still queued
// on the loop. Tasks that run later do not activate routes. A loop created
// by New is closed as well.
func (n *Navigator) Close() {
	if n.closed.Swap(true) {
		return
	}

	n.initMu.Lock()
	if n.cancelListen != nil {
		n.cancelListen()
		n.cancelListen = nil
	}
	n.initMu.Unlock()

	for _, nav := range n.pending.drain() {
		n.finish(nav, State{}, ErrClosed)
	}
	n.observePending(0)
	for _, nav := range n.scheduled.drain() {
		n.finish(nav, State{}, ErrClosed)
	}

	if n.ownsLoop {
		n.loop.Close()
	}
}

// Mode returns the location mode.
func (n *Navigator) Mode() host.Mode {
	return n.mode
}

// Table returns the route table.
func (n *Navigator) Table() *router.Table {
	return n.table
}

// State returns a copy of the current state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.clone()
}

// Subscribe registers fn to be called on the loop after every state change.
// It returns a function that removes the subscription.
func (n *Navigator) Subscribe(fn func(State)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextSub
	n.nextSub++
	n.subs = append(n.subs, subscriber{id: id, fn: fn})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, sub := range n.subs {
			if sub.id == id {
				n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

type subscriber struct {
	id int
	fn func(State)
}

// ComputePath substitutes params into a pattern without navigating.
// See router.Table.Compute for the accepted target shapes.
func (n *Navigator) ComputePath(target string, params router.Params) string {
	return n.table.Compute(target, params)
}

// Pending returns the number of fragment-mode navigations waiting for their
// location-change notification.
func (n *Navigator) Pending() int {
	return n.pending.len()
}

// onHostEvent runs on the host's goroutine when the location changed and
// moves the handling onto the loop.
func (n *Navigator) onHostEvent(loc host.Location) {
	err := n.loop.Dispatch(func() {
		if n.closed.Load() {
			return
		}
		n.handleLocationChange(loc)
	})
	if err == nil {
		return
	}

	n.logger.Error("dropping location change", "location", loc.String(), "error", err)
	if n.mode == host.ModeFragment {
		if nav, remaining := n.pending.shift(); nav != nil {
			n.finish(nav, State{}, err)
			n.observePending(remaining)
		}
	}
}

// handleLocationChange runs on the loop.
func (n *Navigator) handleLocationChange(loc host.Location) {
	path := host.ConcretePath(loc, n.mode)
	state, err := n.applyPath(path)

	if n.mode == host.ModeFragment {
		if nav, remaining := n.pending.shift(); nav != nil {
			n.finish(nav, state, err)
			n.observePending(remaining)
			return
		}
	}

	if err != nil {
		n.logger.Error("location change did not resolve", "path", path, "error", err)
	}
}

func (n *Navigator) observe(fn func(Observer)) {
	for _, o := range n.observers {
		fn(o)
	}
}

func (n *Navigator) observePending(count int) {
	n.observe(func(o Observer) { o.PendingChanged(count) })
}
