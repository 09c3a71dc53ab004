package broker

import (
	"context"

	"yqhp/matrix-engine/pkg/types"
)

// EndpointProvider supplies the ordered set of worker endpoints.
type EndpointProvider interface {
	// Endpoints returns the endpoints in selection order. The returned slice
	// must not be modified.
	Endpoints() []types.WorkerEndpoint
}

// Cursor is the shared round-robin position. Next returns the current
// position and advances it by one.
type Cursor interface {
	Next() uint64
}

// WorkerCaller performs a single remote dot product.
type WorkerCaller interface {
	// DotProduct sends row and col to the worker at endpoint. Failures are
	// returned as *types.TransportError, *types.RemoteStatusError or
	// *types.DecodeError.
	DotProduct(ctx context.Context, endpoint string, row, col []int32) (int32, error)
}
