// Package fakestore is the client for the upstream product catalog API.
package fakestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/shopfront/internal/requestid"
	"github.com/HerbHall/shopfront/internal/version"
	"github.com/HerbHall/shopfront/pkg/models"
)

const (
	// DefaultBaseURL is the public store API.
	DefaultBaseURL = "https://fakestoreapi.com"

	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second
)

// Observer receives one callback per completed upstream request.
type Observer interface {
	ObserveFetch(op, outcome string, elapsed time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit allows at most perSecond requests per second with an equal
// burst. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
	}
}

// WithObserver reports request outcomes, typically to metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client talks to the store API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
	logger     *zap.Logger
}

// NewClient creates a client for baseURL. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("fakestore")
	return c
}

// GetAllProducts returns the full catalog.
func (c *Client) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if _, err := c.get(ctx, "products", "/products", &products); err != nil {
		return nil, &FetchError{Op: "products", Err: err}
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProductByID returns one product, or nil with no error when the API
// reports it does not exist.
func (c *Client) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	var p *models.Product
	status, err := c.get(ctx, "product", "/products/"+strconv.Itoa(id), &p)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, &FetchError{Op: "product details", Err: err}
	}
	// The public API answers unknown ids with 200 and an empty body.
	if p == nil || p.ID == 0 {
		return nil, nil
	}
	return p, nil
}

// GetCategories returns the category values. It never fails: any upstream
// error is logged and the built-in category list is returned instead.
func (c *Client) GetCategories(ctx context.Context) ([]string, error) {
	var cats []string
	if _, err := c.get(ctx, "categories", "/products/categories", &cats); err != nil {
		c.logger.Warn("category fetch failed, using defaults", zap.Error(err))
		return models.DefaultCategories(), nil
	}
	return cats, nil
}

// get performs a GET against path and decodes a JSON body into out. It
// returns the HTTP status when a response arrived.
func (c *Client) get(ctx context.Context, op, path string, out any) (int, error) {
	start := time.Now()
	status, err := c.do(ctx, path, out)
	if c.observer != nil {
		c.observer.ObserveFetch(op, outcome(status, err), time.Since(start))
	}
	if err != nil {
		c.logger.Error("upstream request failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return status, err
}

func (c *Client) do(ctx context.Context, path string, out any) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(requestid.Header, requestid.Ensure(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrNoResponse, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

func outcome(status int, err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return strconv.Itoa(se.StatusCode)
	case errors.Is(err, ErrNoResponse):
		return "no_response"
	case status != 0:
		return "decode_error"
	default:
		return "error"
	}
}
