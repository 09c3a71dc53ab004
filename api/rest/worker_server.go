package rest

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"yqhp/matrix-engine/internal/metrics"
	"yqhp/matrix-engine/internal/worker"
	"yqhp/matrix-engine/pkg/types"
)

// WorkerServer exposes a worker Service over HTTP.
type WorkerServer struct {
	*server
	service *worker.Service
}

// NewWorkerServer creates the worker's HTTP surface.
func NewWorkerServer(svc *worker.Service, config *Config, log *zap.Logger, collector *metrics.Collector) *WorkerServer {
	s := &WorkerServer{
		server:  newServer("Matrix Engine Worker", config, log, collector),
		service: svc,
	}
	s.setupRoutes()
	return s
}

func (s *WorkerServer) setupRoutes() {
	s.app.Post("/calculate_dot_product", s.dotProduct)
	s.app.Get("/api/v1/stats", s.stats)
}

// dotProduct handles POST /calculate_dot_product
func (s *WorkerServer) dotProduct(c *fiber.Ctx) error {
	var req types.DotProductRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		s.service.Reject(err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: string(types.ErrCodeInvalidBody),
		})
	}

	result, err := s.service.DotProduct(req.Row, req.Col)
	if err != nil {
		return err
	}
	return c.JSON(types.DotProductResponse{Result: result})
}

// stats handles GET /api/v1/stats
func (s *WorkerServer) stats(c *fiber.Ctx) error {
	st := s.service.Stats()
	return c.JSON(types.WorkerStatsResponse{
		WorkerID:      st.ID,
		Served:        st.Served,
		Rejected:      st.Rejected,
		UptimeSeconds: int64(time.Since(st.Started).Seconds()),
	})
}
