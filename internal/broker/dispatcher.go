package broker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"yqhp/matrix-engine/internal/metrics"
	"yqhp/matrix-engine/pkg/types"
)

// Dispatcher sends a single work unit to the next worker in rotation.
type Dispatcher struct {
	balancer *RoundRobin
	caller   WorkerCaller
	timeout  time.Duration
	limiter  *rate.Limiter
	stats    *Stats
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. A zero timeout leaves deadlines to ctx;
// a nil limiter disables throttling.
func NewDispatcher(balancer *RoundRobin, caller WorkerCaller, timeout time.Duration, limiter *rate.Limiter) *Dispatcher {
	return &Dispatcher{
		balancer: balancer,
		caller:   caller,
		timeout:  timeout,
		limiter:  limiter,
		logger:   zap.NewNop(),
	}
}

// Dispatch computes unit on a worker. It always returns exactly one outcome
// for the unit's coordinates; failures are carried in Err as *types.UnitError.
func (d *Dispatcher) Dispatch(ctx context.Context, unit types.WorkUnit) types.UnitOutcome {
	outcome := types.UnitOutcome{Row: unit.Row, Col: unit.Col}

	endpoint, err := d.balancer.Select()
	if err != nil {
		outcome.Err = &types.UnitError{Row: unit.Row, Col: unit.Col, Err: err}
		return outcome
	}
	outcome.Endpoint = endpoint.Address

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			outcome.Err = d.unitError(unit, endpoint, &types.TransportError{
				Endpoint: endpoint.Address,
				Timeout:  errors.Is(err, context.DeadlineExceeded),
				Err:      err,
			})
			return outcome
		}
	}

	callCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	value, err := d.caller.DotProduct(callCtx, endpoint.Address, unit.RowVector, unit.ColVector)
	elapsed := time.Since(start)

	d.stats.Record(endpoint.Address, elapsed, err)
	d.metrics.RecordDispatch(endpoint.Address, elapsed, err)

	if err != nil {
		outcome.Err = d.unitError(unit, endpoint, err)
		d.logger.Debug("work unit failed",
			zap.Int("row", unit.Row),
			zap.Int("col", unit.Col),
			zap.String("endpoint", endpoint.ID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return outcome
	}

	outcome.Value = value
	return outcome
}

func (d *Dispatcher) unitError(unit types.WorkUnit, endpoint types.WorkerEndpoint, err error) error {
	if types.CodeOf(err) == "" {
		err = &types.TransportError{Endpoint: endpoint.Address, Err: err}
	}
	return &types.UnitError{Row: unit.Row, Col: unit.Col, Endpoint: endpoint.Address, Err: err}
}
