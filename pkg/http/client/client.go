package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

type Response struct {
	StatusCode int
	Body       []byte
}

type Interface interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string, body []byte) (*Response, error)
}

type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	maxRetries int
	GetFunc    func(ctx context.Context, path string) (*Response, error)
	PostFunc   func(ctx context.Context, path string, body []byte) (*Response, error)
}

type Options struct {
	BaseURL    string
	Headers    map[string]string
	Timeout    time.Duration
	MaxRetries int
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	return &Client{
		baseURL: opts.BaseURL,
		headers: opts.Headers,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxRetries: opts.MaxRetries,
	}
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, path)
	}
	return c.doWithRetry(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body []byte) (*Response, error) {
	if c.PostFunc != nil {
		return c.PostFunc(ctx, path, body)
	}
	return c.doWithRetry(ctx, http.MethodPost, path, body)
}

// doWithRetry retries transient failures (network errors, 429/5xx) with
// exponential backoff, respecting context cancellation. Other non-2xx
// responses are returned as-is for the caller to interpret.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) (*Response, error) {
	backoff := 200 * time.Millisecond

	var lastResp *Response
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := c.do(ctx, method, path, body)
		lastResp, lastErr = resp, err

		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		var netErr net.Error
		if err != nil && !errors.As(err, &netErr) {
			return nil, err
		}

		if attempt == c.maxRetries {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return lastResp, lastErr
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var fullURL string
	if c.baseURL == "" {
		fullURL = path // If no base URL, treat path as full URL
	} else {
		fullURL = c.baseURL + path // Otherwise combine them
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, err
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			return
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
