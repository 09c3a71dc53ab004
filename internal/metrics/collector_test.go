package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_RecordDispatch(t *testing.T) {
	c := NewCollector("test", zap.NewNop())

	c.RecordDispatch("http://w1", 5*time.Millisecond, nil)
	c.RecordDispatch("http://w1", 5*time.Millisecond, nil)
	c.RecordDispatch("http://w2", time.Millisecond, errors.New("refused"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.dispatchTotal.WithLabelValues("http://w1", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dispatchTotal.WithLabelValues("http://w2", OutcomeFailure)))
	assert.Equal(t, 2, testutil.CollectAndCount(c.dispatchDuration))
}

func TestCollector_RecordMultiply(t *testing.T) {
	c := NewCollector("test", zap.NewNop())

	c.RecordWorkUnits(4)
	c.RecordMultiply(StatusOK, 10*time.Millisecond)
	c.RecordMultiply(StatusRejected, time.Millisecond)
	c.RecordDotProduct(StatusOK)

	assert.Equal(t, 4.0, testutil.ToFloat64(c.workUnitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.multiplyTotal.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.multiplyTotal.WithLabelValues(StatusRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dotProductTotal.WithLabelValues(StatusOK)))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordDispatch("x", time.Second, nil)
		c.RecordWorkUnits(1)
		c.RecordMultiply(StatusOK, time.Second)
		c.RecordDotProduct(StatusOK)
		c.RecordHTTPRequest("GET", "/", 200, time.Second)
	})
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("same", zap.NewNop())
	b := NewCollector("same", zap.NewNop())

	a.RecordWorkUnits(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.workUnitsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.workUnitsTotal))
}

func TestCollector_HandlerAndMiddleware(t *testing.T) {
	c := NewCollector("me", zap.NewNop())

	app := fiber.New()
	app.Use(c.Middleware())
	app.Get("/metrics", c.Handler())
	app.Get("/ping", func(ctx *fiber.Ctx) error { return ctx.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `me_http_requests_total{method="GET",path="/ping",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
