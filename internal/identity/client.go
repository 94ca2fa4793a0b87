package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arashpm/points-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

// Client talks to the hosted identity provider's admin API. Token
// verification runs with the caller's bearer token, account management with
// the service key.
type Client struct {
	baseURL    string
	serviceKey string
	client     *fasthttp.Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("identity base url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client: &fasthttp.Client{
			ReadBufferSize:  1024 * 4,
			WriteBufferSize: 1024 * 4,
		},
	}, nil
}

// VerifyToken resolves a bearer token to its user. An upstream 401 or 403
// maps to ErrInvalidToken, anything else is a transport failure.
func (c *Client) VerifyToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	body, status, err := c.doRequest(ctx, "GET", "/auth/v1/user", "Bearer "+token, nil)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if status != fasthttp.StatusOK {
		return nil, fmt.Errorf("verify token: unexpected status code: %d, body: %s", status, body)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &user, nil
}

// CreateUser provisions an account through the admin API.
func (c *Client) CreateUser(ctx context.Context, p CreateUserParams) (*User, error) {
	reqBody, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		body, status, err := c.doRequest(ctx, "POST", "/auth/v1/admin/users", "Bearer "+c.serviceKey, reqBody)
		if err != nil {
			logger.Warn("identity request failed, retrying", "error", err, "attempt", attempt+1)
			lastErr = err
			continue
		}
		if status == fasthttp.StatusConflict {
			return nil, ErrUserExists
		}
		if status != fasthttp.StatusOK && status != fasthttp.StatusCreated {
			return nil, fmt.Errorf("create user: unexpected status code: %d, body: %s", status, body)
		}

		var user User
		if err := json.Unmarshal(body, &user); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		return &user, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// DeleteUser removes an account. Used as the compensation step when
// provisioning fails midway.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	body, status, err := c.doRequest(ctx, "DELETE", "/auth/v1/admin/users/"+userID, "Bearer "+c.serviceKey, nil)
	if err != nil {
		return err
	}
	if status != fasthttp.StatusOK && status != fasthttp.StatusNoContent {
		return fmt.Errorf("delete user: unexpected status code: %d, body: %s", status, body)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path, authorization string, body []byte) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", authorization)

	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, resp.StatusCode(), nil
}
