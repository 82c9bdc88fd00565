// Package loop provides the cooperative, single-goroutine task queue that
// every activation, lifecycle callback and location-change handler runs on.
//
// Tasks are executed one at a time in the order they were dispatched, so
// code running on the loop never races with other loop code. Dispatch is
// safe from any goroutine.
//
// A Loop is either driven by Run in its own goroutine, or drained
// explicitly with Drain, which makes tests deterministic:
//
//	l := loop.New()
//	l.Dispatch(func() { fmt.Println("first") })
//	l.Dispatch(func() { fmt.Println("second") })
//	l.Drain()
package loop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the task buffer size used when none is configured.
const DefaultQueueSize = 1024

// Loop errors.
var (
	ErrQueueFull = errors.New("loop: task queue full")
	ErrClosed    = errors.New("loop: closed")
)

// Loop is a FIFO task queue executed on a single goroutine.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once

	// runMu ensures only one goroutine executes tasks at a time, whether
	// through Run or Drain.
	runMu sync.Mutex

	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize sets the task buffer size.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.tasks = make(chan func(), n)
		}
	}
}

// WithLogger sets the logger used to report panicking tasks.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates a Loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks:  make(chan func(), DefaultQueueSize),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dispatch queues fn to run on the loop after every previously dispatched
// task. It never blocks: a full queue returns ErrQueueFull.
func (l *Loop) Dispatch(fn func()) error {
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	default:
		l.logger.Warn("loop queue full, discarding task")
		return ErrQueueFull
	}
}

// Run executes tasks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			l.safeExecute(fn)
		}
	}
}

// Drain runs queued tasks on the calling goroutine until the queue is
// empty, including tasks dispatched by the tasks themselves. It returns the
// number of tasks executed. Drain must not be used while Run is active.
func (l *Loop) Drain() int {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	n := 0
	for {
		select {
		case fn := <-l.tasks:
			l.safeExecute(fn)
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	return len(l.tasks)
}

// Close stops Run and rejects further dispatches. Queued tasks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done returns a channel that's closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// safeExecute runs a task with panic recovery.
func (l *Loop) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
