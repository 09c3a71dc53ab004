package worker

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yqhp/matrix-engine/internal/metrics"
	"yqhp/matrix-engine/pkg/types"
)

func TestServiceDotProduct(t *testing.T) {
	s := NewService(nil, nil)

	got, err := s.DotProduct([]int32{1, 2, 3}, []int32{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, int32(32), got)

	got, err = s.DotProduct(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got)

	stats := s.Stats()
	assert.Equal(t, int64(2), stats.Served)
	assert.Zero(t, stats.Rejected)
	assert.NotEmpty(t, stats.ID)
}

func TestServiceRejectsLengthMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewService(zap.New(core), nil)

	_, err := s.DotProduct([]int32{1, 2}, []int32{1})

	var mismatch *types.LengthMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.RowLen)
	assert.Equal(t, 1, mismatch.ColLen)
	assert.Equal(t, int64(1), s.Stats().Rejected)
	assert.Equal(t, 1, logs.FilterMessage("rejected dot product").Len())
}

func TestServiceReject(t *testing.T) {
	m := metrics.NewCollector("test", zap.NewNop())
	s := NewService(nil, m)

	s.Reject(errors.New("bad json"))
	_, _ = s.DotProduct([]int32{1}, []int32{1})

	assert.Equal(t, int64(1), s.Stats().Rejected)
	assert.Equal(t, int64(1), s.Stats().Served)

	count, err := testutil.GatherAndCount(m.Registry(), "test_dot_product_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServiceConcurrentCounters(t *testing.T) {
	s := NewService(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.DotProduct([]int32{1, 1}, []int32{2, 2})
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), s.Stats().Served)
}
