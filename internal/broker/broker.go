package broker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"yqhp/matrix-engine/internal/matrix"
	"yqhp/matrix-engine/internal/metrics"
	"yqhp/matrix-engine/pkg/types"
)

// Config holds the configuration for a broker.
type Config struct {
	// ID is the unique identifier for this broker.
	ID string

	// RequestTimeout bounds each dot product call. Zero disables it.
	RequestTimeout time.Duration

	// MaxInFlight bounds concurrent calls per product. Zero means one
	// goroutine per work unit.
	MaxInFlight int

	// DispatchRate limits dispatches per second across all products.
	// Zero disables throttling.
	DispatchRate float64

	// DispatchBurst is the limiter burst when DispatchRate is set.
	DispatchBurst int
}

// DefaultConfig returns a default broker configuration.
func DefaultConfig() *Config {
	return &Config{
		ID:             uuid.New().String(),
		RequestTimeout: 10 * time.Second,
		MaxInFlight:    64,
		DispatchBurst:  1,
	}
}

// Option configures a Broker.
type Option func(*Broker)

// WithCursor replaces the default atomic round-robin cursor.
func WithCursor(c Cursor) Option {
	return func(b *Broker) { b.cursor = c }
}

// WithLogger sets the broker's logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Broker) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics sets the Prometheus collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(b *Broker) { b.metrics = m }
}

// Broker coordinates distributed matrix products. It is safe for concurrent
// use; concurrent products share the cursor, the endpoints and the caller.
type Broker struct {
	config     *Config
	endpoints  EndpointProvider
	cursor     Cursor
	dispatcher *Dispatcher
	assembler  *ResultAssembler
	stats      *Stats
	metrics    *metrics.Collector
	logger     *zap.Logger
}

// New creates a broker dispatching to endpoints through caller.
func New(cfg *Config, endpoints EndpointProvider, caller WorkerCaller, opts ...Option) (*Broker, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if endpoints == nil || len(endpoints.Endpoints()) == 0 {
		return nil, ErrNoEndpoints
	}
	if caller == nil {
		return nil, fmt.Errorf("worker caller is required")
	}

	b := &Broker{
		config:    cfg,
		endpoints: endpoints,
		assembler: NewResultAssembler(),
		stats:     NewStats(endpoints.Endpoints()),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.cursor == nil {
		b.cursor = &AtomicCursor{}
	}
	b.logger = b.logger.With(zap.String("broker_id", cfg.ID))

	var limiter *rate.Limiter
	if cfg.DispatchRate > 0 {
		burst := cfg.DispatchBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.DispatchRate), burst)
	}

	b.dispatcher = NewDispatcher(NewRoundRobin(endpoints, b.cursor), caller, cfg.RequestTimeout, limiter)
	b.dispatcher.stats = b.stats
	b.dispatcher.metrics = b.metrics
	b.dispatcher.logger = b.logger

	return b, nil
}

// ID returns the broker's identifier.
func (b *Broker) ID() string {
	return b.config.ID
}

// Endpoints returns the configured worker endpoints.
func (b *Broker) Endpoints() []types.WorkerEndpoint {
	return b.endpoints.Endpoints()
}

// Stats returns per-endpoint dispatch statistics.
func (b *Broker) Stats() []EndpointStats {
	return b.stats.Snapshot()
}

// Multiply computes left × right on the workers.
//
// Request errors (*types.ShapeError, *types.RaggedMatrixError,
// *types.DimensionMismatchError) are returned before anything is dispatched.
// If any work unit fails the result is discarded and a *types.AssemblyError
// is returned.
func (b *Broker) Multiply(ctx context.Context, left, right types.Matrix) (types.Matrix, error) {
	jobID := uuid.New().String()
	start := time.Now()
	log := b.logger.With(zap.String("job_id", jobID))

	dims, err := matrix.Validate(left, right)
	if err != nil {
		b.metrics.RecordMultiply(metrics.StatusRejected, time.Since(start))
		log.Debug("rejected product request", zap.Error(err))
		return nil, err
	}

	units := dims.Units()
	b.metrics.RecordWorkUnits(units)
	log.Debug("dispatching product",
		zap.Int("left_rows", dims.LeftRows),
		zap.Int("left_cols", dims.LeftCols),
		zap.Int("right_cols", dims.RightCols),
		zap.Int("units", units),
	)

	outcomes := make(chan types.UnitOutcome, units)

	var g errgroup.Group
	if b.config.MaxInFlight > 0 {
		g.SetLimit(b.config.MaxInFlight)
	}
	for unit := range matrix.Partition(left, right, dims) {
		g.Go(func() error {
			outcomes <- b.safeDispatch(ctx, unit)
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)

	result, err := b.assembler.Assemble(dims, outcomes)
	elapsed := time.Since(start)
	if err != nil {
		b.metrics.RecordMultiply(metrics.StatusFailed, elapsed)
		log.Warn("product failed",
			zap.Int("units", units),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	b.metrics.RecordMultiply(metrics.StatusOK, elapsed)
	log.Info("product completed",
		zap.Int("units", units),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// safeDispatch turns a panic during dispatch into a failed outcome so every
// unit still yields exactly one outcome.
func (b *Broker) safeDispatch(ctx context.Context, unit types.WorkUnit) (out types.UnitOutcome) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("dispatch panic recovered",
				zap.Int("row", unit.Row),
				zap.Int("col", unit.Col),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			out = types.UnitOutcome{
				Row: unit.Row,
				Col: unit.Col,
				Err: &types.UnitError{Row: unit.Row, Col: unit.Col, Err: fmt.Errorf("dispatch panic: %v", r)},
			}
		}
	}()
	return b.dispatcher.Dispatch(ctx, unit)
}
