package api

import "errors"

var (
	// ErrRetriesExhausted is returned when a request kept failing with a
	// retryable condition for every attempt allowed by the RetryPolicy.
	// It is fatal for a crawl run.
	ErrRetriesExhausted = errors.New("upstream retries exhausted")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// errRateLimited marks an HTTP 429 response. It never escapes the package
	// on its own, only wrapped in ErrRetriesExhausted.
	errRateLimited = errors.New("rate limited (HTTP 429)")
)
