package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arashpm/points-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

// Client posts formatted messages to a messaging-platform webhook. The push
// is the delivery boundary: anything past the webhook belongs to the
// platform.
type Client struct {
	webhookURL string
	client     *fasthttp.Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

type Config struct {
	WebhookURL string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

type pushPayload struct {
	Text string `json:"text"`
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}

	return &Client{
		webhookURL: cfg.WebhookURL,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client: &fasthttp.Client{
			ReadBufferSize:  1024 * 4,
			WriteBufferSize: 1024 * 4,
		},
	}, nil
}

// Push sends a text message, retrying transport failures.
func (c *Client) Push(ctx context.Context, text string) error {
	body, err := json.Marshal(pushPayload{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		err := c.doPush(ctx, body)
		if err == nil {
			return nil
		}

		logger.Warn("webhook push failed, retrying", "error", err, "attempt", attempt+1)
		lastErr = err
	}

	return fmt.Errorf("failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) doPush(ctx context.Context, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.webhookURL)
	req.Header.SetMethod("POST")
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK && status != fasthttp.StatusNoContent {
		return fmt.Errorf("unexpected status code: %d, body: %s", status, resp.Body())
	}

	return nil
}
