package worker

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yqhp/matrix-engine/internal/matrix"
	"yqhp/matrix-engine/internal/metrics"
)

// Stats is a snapshot of a worker's counters.
type Stats struct {
	ID       string    `json:"id"`
	Served   int64     `json:"served"`
	Rejected int64     `json:"rejected"`
	Started  time.Time `json:"started"`
}

// Service computes dot products and counts what it served.
// It is safe for concurrent use.
type Service struct {
	id       string
	started  time.Time
	served   atomic.Int64
	rejected atomic.Int64

	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewService creates a worker service. Both arguments may be nil.
func NewService(logger *zap.Logger, collector *metrics.Collector) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	return &Service{
		id:      id,
		started: time.Now(),
		metrics: collector,
		logger:  logger.With(zap.String("worker_id", id)),
	}
}

// DotProduct returns the saturating dot product of row and col.
func (s *Service) DotProduct(row, col []int32) (int32, error) {
	result, err := matrix.DotProduct(row, col)
	if err != nil {
		s.rejected.Add(1)
		s.metrics.RecordDotProduct(metrics.StatusRejected)
		s.logger.Warn("rejected dot product",
			zap.Int("row_len", len(row)),
			zap.Int("col_len", len(col)),
			zap.Error(err),
		)
		return 0, err
	}

	s.served.Add(1)
	s.metrics.RecordDotProduct(metrics.StatusOK)
	return result, nil
}

// Reject counts a request that never reached the computation, such as a
// malformed body.
func (s *Service) Reject(reason error) {
	s.rejected.Add(1)
	s.metrics.RecordDotProduct(metrics.StatusRejected)
	s.logger.Debug("rejected request", zap.Error(reason))
}

// Stats returns the current counters.
func (s *Service) Stats() Stats {
	return Stats{
		ID:       s.id,
		Served:   s.served.Load(),
		Rejected: s.rejected.Load(),
		Started:  s.started,
	}
}
