package broker

import (
	"errors"
	"fmt"
	"strings"

	"yqhp/matrix-engine/pkg/types"
)

// ErrNoEndpoints is returned when a broker is configured without workers.
var ErrNoEndpoints = errors.New("no worker endpoints configured")

// StaticEndpoints is a fixed endpoint list set at startup.
type StaticEndpoints []types.WorkerEndpoint

// NewStaticEndpoints builds endpoints from base URLs, naming them worker-1,
// worker-2, ... in order.
func NewStaticEndpoints(addresses []string) (StaticEndpoints, error) {
	if len(addresses) == 0 {
		return nil, ErrNoEndpoints
	}

	endpoints := make(StaticEndpoints, 0, len(addresses))
	for i, addr := range addresses {
		addr = strings.TrimRight(strings.TrimSpace(addr), "/")
		if addr == "" {
			return nil, fmt.Errorf("worker endpoint %d is empty", i+1)
		}
		endpoints = append(endpoints, types.WorkerEndpoint{
			ID:      fmt.Sprintf("worker-%d", i+1),
			Address: addr,
		})
	}
	return endpoints, nil
}

// Endpoints implements EndpointProvider.
func (s StaticEndpoints) Endpoints() []types.WorkerEndpoint {
	return s
}
