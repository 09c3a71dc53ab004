package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"yqhp/matrix-engine/pkg/types"
)

// APIError is a non-success response from the broker.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("broker responded with status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("broker responded with status %d: %s", e.Status, e.Message)
}

// BrokerClient calls a broker's HTTP API.
type BrokerClient struct {
	baseURL string
	timeout time.Duration
	agent   *fiber.Client
}

// NewBrokerClient creates a client for the broker at baseURL.
func NewBrokerClient(baseURL string, timeout time.Duration) *BrokerClient {
	return &BrokerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		agent:   newAgent(),
	}
}

// newAgent returns a fiber client using sonic for JSON.
func newAgent() *fiber.Client {
	return &fiber.Client{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	}
}

// Multiply asks the broker to compute left × right.
func (c *BrokerClient) Multiply(ctx context.Context, left, right types.Matrix) (types.Matrix, error) {
	body, err := sonic.Marshal(types.MultiplyRequest{Left: left, Right: right})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal multiply request: %w", err)
	}

	req := c.agent.Post(c.baseURL + "/multiply_matrices_distributed")
	req.Body(body)
	req.Set("Content-Type", "application/json")

	var result types.Matrix
	if err := c.do(ctx, req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Workers returns the broker's worker endpoints and their dispatch stats.
func (c *BrokerClient) Workers(ctx context.Context) (*types.WorkersResponse, error) {
	var resp types.WorkersResponse
	if err := c.do(ctx, c.agent.Get(c.baseURL+"/api/v1/workers"), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns the broker's health status.
func (c *BrokerClient) Health(ctx context.Context) (*types.HealthResponse, error) {
	var resp types.HealthResponse
	if err := c.do(ctx, c.agent.Get(c.baseURL+"/health"), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *BrokerClient) do(ctx context.Context, req *fiber.Agent, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout > 0 {
		req.Timeout(timeout)
	}

	statusCode, respBody, errs := req.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request to broker %s failed: %w", c.baseURL, errs[0])
	}

	if statusCode != fiber.StatusOK {
		var errResp types.ErrorResponse
		if err := sonic.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return &APIError{Status: statusCode, Code: errResp.Code, Message: errResp.Error}
		}
		return &APIError{Status: statusCode, Message: string(respBody)}
	}

	if err := sonic.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal broker response: %w", err)
	}
	return nil
}
