package rest

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"yqhp/matrix-engine/internal/broker"
	"yqhp/matrix-engine/internal/metrics"
	"yqhp/matrix-engine/pkg/types"
)

// BrokerServer exposes a Broker over HTTP.
type BrokerServer struct {
	*server
	broker *broker.Broker
}

// NewBrokerServer creates the broker's HTTP surface.
func NewBrokerServer(b *broker.Broker, config *Config, log *zap.Logger, collector *metrics.Collector) *BrokerServer {
	s := &BrokerServer{
		server: newServer("Matrix Engine Broker", config, log, collector),
		broker: b,
	}
	s.setupRoutes()
	return s
}

func (s *BrokerServer) setupRoutes() {
	s.app.Post("/multiply_matrices_distributed", s.multiply)
	s.app.Get("/api/v1/workers", s.listWorkers)
}

// multiply handles POST /multiply_matrices_distributed
func (s *BrokerServer) multiply(c *fiber.Ctx) error {
	var req types.MultiplyRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return invalidBody(c, err)
	}

	result, err := s.broker.Multiply(c.UserContext(), req.Left, req.Right)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// listWorkers handles GET /api/v1/workers
func (s *BrokerServer) listWorkers(c *fiber.Ctx) error {
	stats := s.broker.Stats()
	workers := make([]types.WorkerStatus, 0, len(stats))
	for _, st := range stats {
		workers = append(workers, types.WorkerStatus{
			ID:         st.ID,
			Address:    st.Address,
			Dispatched: st.Dispatched,
			Failed:     st.Failed,
			P50Ms:      ms(st.P50),
			P95Ms:      ms(st.P95),
			P99Ms:      ms(st.P99),
			MaxMs:      ms(st.Max),
		})
	}

	return c.JSON(types.WorkersResponse{
		BrokerID: s.broker.ID(),
		Workers:  workers,
		Total:    len(workers),
	})
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
