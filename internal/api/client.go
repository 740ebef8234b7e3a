package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/friendcrawl/internal/metrics"
)

// defaultMaxBodySize limits a single response body.
const defaultMaxBodySize = 5 * 1024 * 1024

// Client fetches JSON documents from the upstream API.
// It holds no per-call state, so one Client can serve concurrent callers;
// each call builds its own backoff sequence.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	headers      map[string]string
	policy       RetryPolicy
	logger       *slog.Logger
	metrics      *metrics.Metrics
	observer     func(RetryEvent)
	timeout      time.Duration
	proxyAddress string
	maxBodySize  int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
// When set, WithTimeout and WithProxy are ignored.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHeaders sets extra headers sent with every request, such as a Cookie.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithRetryPolicy sets the retry schedule.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records request and retry counters.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRetryObserver registers a hook called before every retry wait.
func WithRetryObserver(fn func(RetryEvent)) ClientOption {
	return func(c *Client) {
		c.observer = fn
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithProxy routes requests through a SOCKS5 proxy at "host:port".
func WithProxy(address string) ClientOption {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithMaxBodySize limits how much of a response body is read.
func WithMaxBodySize(n int64) ClientOption {
	return func(c *Client) {
		c.maxBodySize = n
	}
}

// NewClient creates a Client. It fails only on invalid options.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		userAgent:   "friendcrawl",
		policy:      DefaultRetryPolicy(),
		logger:      slog.New(slog.DiscardHandler),
		timeout:     30 * time.Second,
		maxBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		hc, err := newHTTPClient(c.timeout, c.proxyAddress)
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}

	return c, nil
}

// newHTTPClient builds an HTTP client, optionally dialing through SOCKS5.
func newHTTPClient(timeout time.Duration, proxyAddress string) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	if proxyAddress != "" {
		if !isValidProxyAddress(proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// isValidProxyAddress checks if the address is in "host:port" format
// with a port between 1 and 65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// FetchJSON performs a GET on url and decodes a 200 response into dst.
//
// found is false, with a nil error, for any non-200 status other than 429
// and for a 200 whose body is not valid JSON. 429 responses and transport
// failures are retried per the RetryPolicy; when attempts run out the error
// wraps ErrRetriesExhausted.
func (c *Client) FetchJSON(ctx context.Context, url string, dst any) (bool, error) {
	var found bool
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		ok, err := c.fetchOnce(ctx, url, dst)
		found = ok
		return err
	}, c.retryNotifier(url))
	if err != nil {
		return false, err
	}
	return found, nil
}

// fetchOnce performs a single attempt.
func (c *Client) fetchOnce(ctx context.Context, url string, dst any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		c.metrics.ObserveRequest("error")
		return false, Transient(fmt.Errorf("GET %s: %w", url, err))
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest(strconv.Itoa(resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, Transient(fmt.Errorf("read %s: %w", url, err))
		}
		if err := json.Unmarshal(body, dst); err != nil {
			c.logger.Warn("discarding undecodable response",
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
			return false, nil
		}
		return true, nil

	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // draining for connection reuse
		return false, Transient(errRateLimited)

	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // draining for connection reuse
		c.logger.Debug("upstream returned non-success status",
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
		)
		return false, nil
	}
}

// retryNotifier logs each scheduled retry and forwards it to the observer.
func (c *Client) retryNotifier(url string) func(RetryEvent) {
	return func(ev RetryEvent) {
		attrs := []any{
			slog.String("url", url),
			slog.Int("retry", ev.Attempt),
			slog.Duration("delay", ev.Delay),
		}
		if ev.Err != nil {
			attrs = append(attrs, slog.String("error", ev.Err.Error()))
		}
		c.logger.Warn("retryable upstream failure", attrs...)
		c.metrics.ObserveRetry(retryReason(ev.Err))
		if c.observer != nil {
			c.observer(ev)
		}
	}
}

// retryReason labels a scheduled retry for metrics.
func retryReason(err error) string {
	if errors.Is(err, errRateLimited) {
		return "rate_limited"
	}
	return "transport"
}
