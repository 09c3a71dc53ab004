package broker

import (
	"sync/atomic"

	"yqhp/matrix-engine/pkg/types"
)

// AtomicCursor is a lock-free Cursor starting at zero.
type AtomicCursor struct {
	n atomic.Uint64
}

// Next implements Cursor.
func (c *AtomicCursor) Next() uint64 {
	return c.n.Add(1) - 1
}

// Load returns the number of positions handed out so far.
func (c *AtomicCursor) Load() uint64 {
	return c.n.Load()
}

// RoundRobin selects endpoints in cyclic order. Every call to Select
// advances the cursor exactly once.
type RoundRobin struct {
	cursor   Cursor
	provider EndpointProvider
}

// NewRoundRobin creates a selector over provider driven by cursor.
func NewRoundRobin(provider EndpointProvider, cursor Cursor) *RoundRobin {
	if cursor == nil {
		cursor = &AtomicCursor{}
	}
	return &RoundRobin{cursor: cursor, provider: provider}
}

// Select returns the next endpoint.
func (r *RoundRobin) Select() (types.WorkerEndpoint, error) {
	endpoints := r.provider.Endpoints()
	if len(endpoints) == 0 {
		return types.WorkerEndpoint{}, ErrNoEndpoints
	}
	idx := r.cursor.Next() % uint64(len(endpoints))
	return endpoints[idx], nil
}
