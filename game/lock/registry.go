package lock

import (
	"context"
	"sync"
	"sync/atomic"
)

// Registry hands out exclusive per-board leases. Entries are created on the
// first Acquire for an id and removed once nobody holds or waits for them.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	// sem has capacity one; a value in the channel means the lock is held.
	sem  chan struct{}
	refs int
}

// Lease is exclusive ownership of one board id until Release is called.
type Lease struct {
	boardID  string
	registry *Registry
	entry    *entry
	released atomic.Bool
}

// NewRegistry creates an empty lock registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Acquire blocks until the lock for boardID is free or ctx is done. When ctx
// ends first the error is ctx.Err() and the registry is left as it was.
func (r *Registry) Acquire(ctx context.Context, boardID string) (*Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := r.ref(boardID)

	select {
	case e.sem <- struct{}{}:
		return &Lease{boardID: boardID, registry: r, entry: e}, nil
	case <-ctx.Done():
		r.unref(boardID, e)
		return nil, ctx.Err()
	}
}

// TryAcquire takes the lock only if it is free right now.
func (r *Registry) TryAcquire(boardID string) (*Lease, bool) {
	e := r.ref(boardID)

	select {
	case e.sem <- struct{}{}:
		return &Lease{boardID: boardID, registry: r, entry: e}, true
	default:
		r.unref(boardID, e)
		return nil, false
	}
}

// Len reports how many board ids currently have a registry entry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) ref(boardID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[boardID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		r.entries[boardID] = e
	}
	e.refs++
	return e
}

func (r *Registry) unref(boardID string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.refs--
	if e.refs == 0 && r.entries[boardID] == e {
		delete(r.entries, boardID)
	}
}

// BoardID returns the id the lease is bound to.
func (l *Lease) BoardID() string {
	return l.boardID
}

// Release gives the lock back. Calls after the first are no-ops.
func (l *Lease) Release() {
	if l == nil || !l.released.CompareAndSwap(false, true) {
		return
	}
	<-l.entry.sem
	l.registry.unref(l.boardID, l.entry)
}
