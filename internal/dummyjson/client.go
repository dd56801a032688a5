// Package dummyjson is a client for the DummyJSON demo API: credential login
// and the product listing.
package dummyjson

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/product"
)

const (
	// DefaultBaseURL is the public DummyJSON endpoint.
	DefaultBaseURL = "https://dummyjson.com"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

var (
	_ auth.Authenticator = (*Client)(nil)
	_ product.Source     = (*Client)(nil)
)

// ErrInvalidPayload is returned when a 2xx response body does not have the
// expected shape.
var ErrInvalidPayload = errors.New("invalid data format")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every upstream call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTelemetry instruments outgoing requests with the given providers.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(c *Client) {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.http.Transport = otelhttp.NewTransport(base,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
		)
	}
}

// Client issues requests against the DummyJSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a client for baseURL. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Login posts the credentials to /auth/login and returns the session token.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) (string, error) {
	body, err := c.do(ctx, "login", http.MethodPost, encodeCredentials(creds), "auth", "login")
	if err != nil {
		return "", err
	}
	token, err := decodeToken(body)
	if err != nil {
		return "", errors.Wrap(err, "decode login response")
	}
	return token, nil
}

// List fetches the product listing.
func (c *Client) List(ctx context.Context) ([]product.Product, error) {
	body, err := c.do(ctx, "list products", http.MethodGet, nil, "products")
	if err != nil {
		return nil, err
	}
	products, err := decodeProducts(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// Ping checks that the API answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "ping")
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, op, method string, payload []byte, elem ...string) ([]byte, error) {
	endpoint, err := url.JoinPath(c.baseURL, elem...)
	if err != nil {
		return nil, errors.Wrap(err, "build url")
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Body: drainError(resp.Body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: read body", op)
	}
	return data, nil
}

func drainError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
