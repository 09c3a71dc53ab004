package client

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/matrix-engine/api/rest"
	"yqhp/matrix-engine/internal/worker"
	"yqhp/matrix-engine/pkg/types"
)

// serve runs app on a loopback port and returns its base URL.
func serve(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func setupWorker(t *testing.T) string {
	t.Helper()
	srv := rest.NewWorkerServer(worker.NewService(nil, nil), rest.DefaultConfig(), nil, nil)
	return serve(t, srv.App())
}

func TestWorkerClient_DotProduct(t *testing.T) {
	url := setupWorker(t)
	c := NewWorkerClient(nil)

	got, err := c.DotProduct(context.Background(), url, []int32{1, 2, 3}, []int32{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, int32(32), got)

	got, err = c.DotProduct(context.Background(), url+"/", []int32{}, []int32{})
	require.NoError(t, err)
	assert.Equal(t, int32(0), got)
}

func TestWorkerClient_LengthMismatchIsRemoteStatus(t *testing.T) {
	url := setupWorker(t)
	c := NewWorkerClient(nil)

	_, err := c.DotProduct(context.Background(), url, []int32{1, 2}, []int32{1})

	var remote *types.RemoteStatusError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, fiber.StatusBadRequest, remote.Status)
	assert.Equal(t, url, remote.Endpoint)
	assert.Contains(t, remote.Body, string(types.ErrCodeLengthMismatch))
}

func TestWorkerClient_RemoteStatusKeepsEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewWorkerClient(nil).DotProduct(context.Background(), ts.URL, []int32{1}, []int32{1})

	var remote *types.RemoteStatusError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusInternalServerError, remote.Status)
	assert.Empty(t, remote.Body)
}

func TestWorkerClient_UnreadableBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"error status", http.StatusServiceUnavailable},
		{"success status", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", "gzip")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("not gzip"))
			}))
			defer ts.Close()

			_, err := NewWorkerClient(nil).DotProduct(context.Background(), ts.URL, []int32{1}, []int32{1})

			if tt.status == http.StatusOK {
				var decode *types.DecodeError
				require.ErrorAs(t, err, &decode)
				return
			}
			var remote *types.RemoteStatusError
			require.ErrorAs(t, err, &remote)
			assert.Equal(t, tt.status, remote.Status)
			assert.Equal(t, bodyPlaceholder, remote.Body)
		})
	}
}

// countingListener counts accepted connections.
type countingListener struct {
	net.Listener
	accepted atomic.Int32
}

func (l *countingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err == nil {
		l.accepted.Add(1)
	}
	return conn, err
}

func TestWorkerClient_ReusesConnections(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	counted := &countingListener{Listener: ln}

	app := rest.NewWorkerServer(worker.NewService(nil, nil), rest.DefaultConfig(), nil, nil).App()
	go func() { _ = app.Listener(counted) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	url := "http://" + ln.Addr().String()

	c := NewWorkerClient(nil)
	defer c.CloseIdleConnections()

	for i := 0; i < 300; i++ {
		got, err := c.DotProduct(context.Background(), url, []int32{int32(i), 1}, []int32{2, 3})
		require.NoError(t, err)
		require.Equal(t, int32(2*i+3), got)
	}
	assert.LessOrEqual(t, counted.accepted.Load(), int32(4))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, _ = c.DotProduct(context.Background(), url, []int32{1}, []int32{1})
		}
	}()
	for i := 0; i < 200; i++ {
		_, err := c.DotProduct(context.Background(), url, []int32{1}, []int32{1})
		require.NoError(t, err)
	}
	<-done
	assert.LessOrEqual(t, counted.accepted.Load(), int32(DefaultWorkerConfig().MaxConnsPerHost))
}

func TestWorkerClient_WaitsForFreeConnection(t *testing.T) {
	url := setupWorker(t)
	c := NewWorkerClient(&WorkerConfig{
		RequestTimeout:     5 * time.Second,
		MaxConnsPerHost:    2,
		MaxConnWaitTimeout: 5 * time.Second,
	})
	defer c.CloseIdleConnections()

	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		go func(i int) {
			got, err := c.DotProduct(context.Background(), url, []int32{int32(i)}, []int32{2})
			if err == nil && got != int32(2*i) {
				err = assert.AnError
			}
			errs <- err
		}(i)
	}
	for i := 0; i < 50; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestWorkerClient_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "forty-two"},
		{"missing result", `{"value": 42}`},
		{"wrong type", `{"result": "42"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := NewWorkerClient(nil).DotProduct(context.Background(), ts.URL, []int32{1}, []int32{1})

			var decode *types.DecodeError
			require.ErrorAs(t, err, &decode)
			assert.Equal(t, tt.body, decode.Body)
		})
	}
}

func TestWorkerClient_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := "http://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewWorkerClient(nil).DotProduct(context.Background(), addr, []int32{1}, []int32{1})

	var transport *types.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, addr, transport.Endpoint)
	assert.False(t, transport.Timeout)
}

func TestWorkerClient_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"result": 1}`))
	}))
	defer ts.Close()

	c := NewWorkerClient(&WorkerConfig{RequestTimeout: 30 * time.Millisecond})
	_, err := c.DotProduct(context.Background(), ts.URL, []int32{1}, []int32{1})

	var transport *types.TransportError
	require.ErrorAs(t, err, &transport)
	assert.True(t, transport.Timeout)
}

func TestWorkerClient_ContextDeadlineShortensTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"result": 1}`))
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewWorkerClient(nil).DotProduct(ctx, ts.URL, []int32{1}, []int32{1})

	var transport *types.TransportError
	require.ErrorAs(t, err, &transport)
	assert.True(t, transport.Timeout)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestWorkerClient_CancelledContextSkipsCall(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWorkerClient(nil).DotProduct(ctx, ts.URL, []int32{1}, []int32{1})

	var transport *types.TransportError
	require.ErrorAs(t, err, &transport)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hits.Load())
}
