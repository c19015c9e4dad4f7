package build

import (
	"context"
	"sync"

	"github.com/rv-tools/multibuild/internal/domain/values"
)

// Restoration is a handle on the background switch back to the pre-run target.
//
// The run returns as soon as the switch has been requested, so a caller that
// reads the active target right after Run may still see the last built
// target. Wait closes that gap for callers that need it.
type Restoration struct {
	target    values.Target
	requested bool
	done      <-chan error

	mu      sync.Mutex
	settled bool
	err     error
}

// NewRestoration wraps a pending switch back to target.
func NewRestoration(target values.Target, done <-chan error) *Restoration {
	return &Restoration{target: target, requested: true, done: done}
}

// NoRestoration is used when the active target already equals the snapshot.
func NoRestoration(target values.Target) *Restoration {
	return &Restoration{target: target, settled: true}
}

// Target returns the target being restored.
func (r *Restoration) Target() values.Target { return r.target }

// Requested reports whether a switch was actually issued.
func (r *Restoration) Requested() bool { return r.requested }

// Wait blocks until the switch completes or ctx is done.
// It may be called more than once; later calls return the first result.
func (r *Restoration) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.settled || r.done == nil {
		return r.err
	}

	select {
	case err := <-r.done:
		r.settled = true
		r.err = err
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
