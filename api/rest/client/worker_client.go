package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"yqhp/matrix-engine/pkg/types"
)

// DotProductPath is the worker route computing one dot product.
const DotProductPath = "/calculate_dot_product"

// bodyPlaceholder replaces a response body that could not be read.
const bodyPlaceholder = "N/A"

// WorkerConfig holds the configuration for the worker client.
type WorkerConfig struct {
	// RequestTimeout is the timeout for a single call. A context deadline
	// that expires sooner takes precedence.
	RequestTimeout time.Duration

	// MaxConnsPerHost caps the open connections to each worker.
	MaxConnsPerHost int

	// MaxConnWaitTimeout is how long a call waits for a free connection
	// once MaxConnsPerHost is reached. Zero fails immediately.
	MaxConnWaitTimeout time.Duration

	// MaxIdleConnDuration closes keep-alive connections idle for longer.
	MaxIdleConnDuration time.Duration
}

// DefaultWorkerConfig returns a default worker client configuration.
func DefaultWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		RequestTimeout:      10 * time.Second,
		MaxConnsPerHost:     64,
		MaxConnWaitTimeout:  10 * time.Second,
		MaxIdleConnDuration: 30 * time.Second,
	}
}

// WorkerClient calls workers' dot product endpoint. It is safe for
// concurrent use and is shared by all dispatches of a broker, so
// connections to each worker are pooled and kept alive across calls.
type WorkerClient struct {
	config *WorkerConfig
	http   *fasthttp.Client
}

// NewWorkerClient creates a worker client.
func NewWorkerClient(config *WorkerConfig) *WorkerClient {
	if config == nil {
		config = DefaultWorkerConfig()
	}
	return &WorkerClient{
		config: config,
		http: &fasthttp.Client{
			Name:                "matrix-engine-broker",
			MaxConnsPerHost:     config.MaxConnsPerHost,
			MaxConnWaitTimeout:  config.MaxConnWaitTimeout,
			MaxIdleConnDuration: config.MaxIdleConnDuration,
		},
	}
}

// CloseIdleConnections closes pooled connections that are not in use.
func (c *WorkerClient) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// DotProduct sends row and col to the worker at endpoint (a base URL).
func (c *WorkerClient) DotProduct(ctx context.Context, endpoint string, row, col []int32) (int32, error) {
	timeout, err := c.timeout(ctx, endpoint)
	if err != nil {
		return 0, err
	}

	body, err := sonic.Marshal(types.DotProductRequest{Row: row, Col: col})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal dot product request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(endpoint, "/") + DotProductPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBodyRaw(body)

	if timeout > 0 {
		err = c.http.DoTimeout(req, resp, timeout)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		return 0, transportError(ctx, endpoint, err)
	}

	statusCode := resp.StatusCode()
	respBody, readErr := resp.BodyUncompressed()

	if statusCode < 200 || statusCode > 299 {
		text := string(respBody)
		if readErr != nil {
			text = bodyPlaceholder
		}
		return 0, &types.RemoteStatusError{Endpoint: endpoint, Status: statusCode, Body: text}
	}
	if readErr != nil {
		return 0, &types.DecodeError{Endpoint: endpoint, Err: readErr}
	}

	var result struct {
		Result *int32 `json:"result"`
	}
	if err := sonic.Unmarshal(respBody, &result); err != nil {
		return 0, &types.DecodeError{Endpoint: endpoint, Body: string(respBody), Err: err}
	}
	if result.Result == nil {
		return 0, &types.DecodeError{Endpoint: endpoint, Body: string(respBody), Err: errors.New("missing field \"result\"")}
	}
	return *result.Result, nil
}

// timeout returns the effective timeout for a call, failing fast when ctx
// is already done.
func (c *WorkerClient) timeout(ctx context.Context, endpoint string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, &types.TransportError{
			Endpoint: endpoint,
			Timeout:  errors.Is(err, context.DeadlineExceeded),
			Err:      err,
		}
	}

	timeout := c.config.RequestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, &types.TransportError{Endpoint: endpoint, Timeout: true, Err: context.DeadlineExceeded}
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}

func transportError(ctx context.Context, endpoint string, err error) *types.TransportError {
	return &types.TransportError{
		Endpoint: endpoint,
		Timeout:  isTimeout(ctx, err),
		Err:      err,
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
		return true
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
