package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AdX213/erli-sync/internal/domain/sync"
)

// Constants for the Erli shop API
const (
	// BaseURLProduction is the live shop API endpoint
	BaseURLProduction = "https://erli.pl/svc/shop-api"
	// BaseURLSandbox is the sandbox endpoint for test merchants
	BaseURLSandbox = "https://sandbox.erli.dev/svc/shop-api"

	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	userAgent = "erli-sync/2.0"
)

// Config holds the marketplace client configuration
type Config struct {
	// APIKey is the Bearer token issued by the marketplace
	APIKey string
	// Sandbox switches to the sandbox endpoint
	Sandbox bool
	// BaseURL overrides the endpoint entirely (tests, staging proxies)
	BaseURL string
	// TimeoutSeconds is the per-request timeout
	TimeoutSeconds int
	// RequestsPerSecond paces outgoing calls; zero disables pacing
	RequestsPerSecond float64
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("marketplace: API key is empty")
	}
	return nil
}

// baseURL resolves the endpoint this configuration points at
func (c *Config) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if c.Sandbox {
		return BaseURLSandbox
	}
	return BaseURLProduction
}

// Client is a thin JSON client for the Erli shop API. It never interprets
// response bodies itself: every call yields a Result carrying the status code
// and the raw body, and the caller decides what a given status means.
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a marketplace client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

// Get performs a GET request against path with optional query parameters
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Result, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, payload any) (*Result, error) {
	return c.do(ctx, http.MethodPost, path, nil, payload)
}

// Patch performs a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, payload any) (*Result, error) {
	return c.do(ctx, http.MethodPatch, path, nil, payload)
}

// do executes a request and wraps the response. A nil error means the
// marketplace answered; transport problems come back wrapping
// sync.ErrTransport.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", sync.ErrTransport, err)
		}
	}

	fullURL := c.config.baseURL() + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marketplace: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("marketplace: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sync.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", sync.ErrTransport, err)
	}

	return &Result{Status: resp.StatusCode, Raw: raw}, nil
}
