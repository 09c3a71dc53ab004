package types

// ErrorResponse is the error body returned by the broker and the worker.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse represents a readiness check response.
type ReadyResponse struct {
	Ready     bool   `json:"ready"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// WorkersResponse lists the broker's worker endpoints.
type WorkersResponse struct {
	BrokerID string         `json:"broker_id"`
	Workers  []WorkerStatus `json:"workers"`
	Total    int            `json:"total"`
}

// WorkerStatus is one endpoint's dispatch history as seen by the broker.
// Latencies are in milliseconds.
type WorkerStatus struct {
	ID         string  `json:"id"`
	Address    string  `json:"address"`
	Dispatched int64   `json:"dispatched"`
	Failed     int64   `json:"failed"`
	P50Ms      float64 `json:"p50_ms"`
	P95Ms      float64 `json:"p95_ms"`
	P99Ms      float64 `json:"p99_ms"`
	MaxMs      float64 `json:"max_ms"`
}

// WorkerStatsResponse is returned by a worker's stats endpoint.
type WorkerStatsResponse struct {
	WorkerID      string `json:"worker_id"`
	Served        int64  `json:"served"`
	Rejected      int64  `json:"rejected"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
