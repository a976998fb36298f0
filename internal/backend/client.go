package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/client-go/util/flowcontrol"

	"cubectl/pkg/logging"
)

const (
	// DefaultBaseURL is the REST root of a locally running backend.
	DefaultBaseURL = "http://localhost:8080/api"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
)

// Config holds the settings for a Client.
type Config struct {
	// BaseURL is the REST root, e.g. "http://localhost:8080/api".
	BaseURL string
	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration
	// QPS and Burst configure client-side pacing. QPS <= 0 disables it.
	QPS   float32
	Burst int
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    flowcontrol.RateLimiter
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter flowcontrol.RateLimiter
	if cfg.QPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = flowcontrol.NewTokenBucketRateLimiter(cfg.QPS, burst)
	} else {
		limiter = flowcontrol.NewFakeAlwaysRateLimiter()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
	}, nil
}

// BaseURL returns the REST root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do issues one request and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Method: method, URL: target, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Debug("Backend", "%s %s failed after %s (request %s): %v", method, path, time.Since(start), requestID, err)
		return &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Method: method, URL: target, Err: fmt.Errorf("reading response body: %w", err)}
	}
	logging.Debug("Backend", "%s %s -> %d in %s (request %s)", method, path, resp.StatusCode, time.Since(start), requestID)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s %s: empty body: %w", method, path, ErrUnexpectedResponse)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decoding body: %v: %w", method, path, err, ErrUnexpectedResponse)
	}
	return nil
}

// doAction issues an action request whose response is {"message": ...}
// and requires the message to report success.
func (c *Client) doAction(ctx context.Context, method, path string, query url.Values, body any) (ActionResult, error) {
	var resp MessageResponse
	if err := c.do(ctx, method, path, query, body, &resp); err != nil {
		return ActionResult{}, err
	}
	if !resp.Succeeded() {
		return ActionResult{Message: resp.Message}, fmt.Errorf("%s %s: %q: %w", method, path, resp.Message, ErrUnexpectedResponse)
	}
	return ActionResult{Message: resp.Message}, nil
}

// doAccepted issues a request that only needs a 2xx with a JSON body.
func (c *Client) doAccepted(ctx context.Context, method, path string, body any) (ActionResult, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, nil, body, &raw); err != nil {
		return ActionResult{}, err
	}
	var resp MessageResponse
	_ = json.Unmarshal(raw, &resp)
	return ActionResult{Message: resp.Message}, nil
}

// ActionResult carries the backend's confirmation message.
type ActionResult struct {
	Message string
}
