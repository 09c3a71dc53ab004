package broker

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"yqhp/matrix-engine/pkg/types"
)

const (
	// latencies are recorded in microseconds up to one minute
	minLatencyMicros = 1
	maxLatencyMicros = int64(time.Minute / time.Microsecond)
	latencySigFigs   = 3
)

// EndpointStats is a point-in-time view of one endpoint's dispatch history.
type EndpointStats struct {
	ID         string        `json:"id"`
	Address    string        `json:"address"`
	Dispatched int64         `json:"dispatched"`
	Failed     int64         `json:"failed"`
	P50        time.Duration `json:"p50"`
	P95        time.Duration `json:"p95"`
	P99        time.Duration `json:"p99"`
	Max        time.Duration `json:"max"`
}

type endpointStats struct {
	dispatched int64
	failed     int64
	latency    *hdrhistogram.Histogram
}

// Stats tracks per-endpoint dispatch counts and latency percentiles.
type Stats struct {
	mu        sync.Mutex
	order     []types.WorkerEndpoint
	endpoints map[string]*endpointStats
}

// NewStats creates stats for the given endpoints.
func NewStats(endpoints []types.WorkerEndpoint) *Stats {
	s := &Stats{
		order:     append([]types.WorkerEndpoint(nil), endpoints...),
		endpoints: make(map[string]*endpointStats, len(endpoints)),
	}
	for _, ep := range endpoints {
		s.endpoints[ep.Address] = newEndpointStats()
	}
	return s
}

func newEndpointStats() *endpointStats {
	return &endpointStats{
		latency: hdrhistogram.New(minLatencyMicros, maxLatencyMicros, latencySigFigs),
	}
}

// Record records one dispatch to address.
func (s *Stats) Record(address string, d time.Duration, err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	es, ok := s.endpoints[address]
	if !ok {
		es = newEndpointStats()
		s.endpoints[address] = es
		s.order = append(s.order, types.WorkerEndpoint{ID: address, Address: address})
	}

	es.dispatched++
	if err != nil {
		es.failed++
	}

	micros := d.Microseconds()
	if micros < minLatencyMicros {
		micros = minLatencyMicros
	}
	if micros > maxLatencyMicros {
		micros = maxLatencyMicros
	}
	_ = es.latency.RecordValue(micros)
}

// Snapshot returns the current stats in endpoint order.
func (s *Stats) Snapshot() []EndpointStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EndpointStats, 0, len(s.order))
	for _, ep := range s.order {
		es := s.endpoints[ep.Address]
		snap := EndpointStats{
			ID:         ep.ID,
			Address:    ep.Address,
			Dispatched: es.dispatched,
			Failed:     es.failed,
		}
		if es.latency.TotalCount() > 0 {
			snap.P50 = micros(es.latency.ValueAtQuantile(50))
			snap.P95 = micros(es.latency.ValueAtQuantile(95))
			snap.P99 = micros(es.latency.ValueAtQuantile(99))
			snap.Max = micros(es.latency.Max())
		}
		out = append(out, snap)
	}
	return out
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
