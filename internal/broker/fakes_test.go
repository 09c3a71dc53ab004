package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"yqhp/matrix-engine/internal/matrix"
	"yqhp/matrix-engine/pkg/types"
)

// fakeCaller computes dot products locally and fails for selected endpoints.
type fakeCaller struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	hold        chan struct{}
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

func (f *fakeCaller) failWith(endpoint string, err error) *fakeCaller {
	f.failures[endpoint] = err
	return f
}

func (f *fakeCaller) DotProduct(ctx context.Context, endpoint string, row, col []int32) (int32, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[endpoint]++
	err := f.failures[endpoint]
	f.mu.Unlock()

	if f.hold != nil {
		select {
		case <-f.hold:
		case <-ctx.Done():
			return 0, &types.TransportError{Endpoint: endpoint, Timeout: true, Err: ctx.Err()}
		}
	}

	if err != nil {
		return 0, err
	}
	return matrix.DotProduct(row, col)
}

func (f *fakeCaller) callsTo(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

// recordingCursor hands out positions sequentially and remembers them.
type recordingCursor struct {
	mu   sync.Mutex
	next uint64
	log  []uint64
}

func (c *recordingCursor) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.next
	c.next++
	c.log = append(c.log, v)
	return v
}

func (c *recordingCursor) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.log)
}

var errRefused = errors.New("connection refused")

func endpoints(addrs ...string) StaticEndpoints {
	eps, err := NewStaticEndpoints(addrs)
	if err != nil {
		panic(err)
	}
	return eps
}
