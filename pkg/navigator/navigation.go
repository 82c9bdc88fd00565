package navigator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vango-dev/navroute/pkg/host"
)

// Navigation is the pending result of a Navigate call. It resolves once the
// activation it triggered has been applied, or is rejected with an error.
// Navigations cannot be cancelled; Wait's context only bounds the wait.
type Navigation struct {
	id      string
	target  string
	mode    host.Mode
	started time.Time

	once  sync.Once
	done  chan struct{}
	state State
	err   error
}

func newNavigation(target string, mode host.Mode) *Navigation {
	return &Navigation{
		id:      uuid.NewString(),
		target:  target,
		mode:    mode,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// ID returns a unique identifier for logs and traces.
func (n *Navigation) ID() string { return n.id }

// Target returns the concrete path that was requested.
func (n *Navigation) Target() string { return n.target }

// Mode returns the mode of the navigator that issued it.
func (n *Navigation) Mode() host.Mode { return n.mode }

// Started returns when the navigation was issued.
func (n *Navigation) Started() time.Time { return n.started }

// Done returns a channel that's closed when the navigation settles.
func (n *Navigation) Done() <-chan struct{} { return n.done }

// Wait blocks until the navigation settles or ctx is done.
func (n *Navigation) Wait(ctx context.Context) (State, error) {
	select {
	case <-n.done:
		return n.state, n.err
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Settled reports whether the navigation has resolved or been rejected.
func (n *Navigation) Settled() bool {
	select {
	case <-n.done:
		return true
	default:
		return false
	}
}

// Err returns the rejection error once settled, nil otherwise.
func (n *Navigation) Err() error {
	if !n.Settled() {
		return nil
	}
	return n.err
}

// State returns the resolved state once settled, the zero State otherwise.
func (n *Navigation) State() State {
	if !n.Settled() {
		return State{}
	}
	return n.state
}

// settle records the outcome. Only the first call has an effect.
func (n *Navigation) settle(state State, err error) bool {
	settled := false
	n.once.Do(func() {
		n.state = state
		n.err = err
		settled = true
		close(n.done)
	})
	return settled
}
