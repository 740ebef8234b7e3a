package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so that callers can use
// errors.Is() while still printing a human-readable message.
var (
	// ErrInvalidMinNeighbors is returned when the seed friend threshold is negative.
	ErrInvalidMinNeighbors = errors.New("invalid min neighbors: must be non-negative")

	// ErrInvalidIterations is returned when a crawl budget is not positive.
	ErrInvalidIterations = errors.New("invalid iteration budget: must be positive")

	// ErrInvalidStepCost is returned when a per-step budget cost is not positive.
	// A zero cost would let the crawl run without bound.
	ErrInvalidStepCost = errors.New("invalid step cost: must be positive")

	// ErrInvalidBackoff is returned when the minimum backoff is not positive
	// or the maximum is below the minimum.
	ErrInvalidBackoff = errors.New("invalid backoff: min must be positive and max >= min")

	// ErrInvalidBackoffMultiplier is returned when the multiplier would shrink delays.
	ErrInvalidBackoffMultiplier = errors.New("invalid backoff multiplier: must be >= 1")

	// ErrInvalidMaxAttempts is returned when fewer than one attempt is allowed.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be at least 1")

	// ErrInvalidDelay is returned when a pacing delay is negative.
	ErrInvalidDelay = errors.New("invalid pacing delay: must be non-negative")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDeadline is returned when the run deadline is negative.
	ErrInvalidDeadline = errors.New("invalid deadline: must be non-negative")

	// ErrInvalidWorkers is returned when the worker count is below one.
	ErrInvalidWorkers = errors.New("invalid workers: must be at least 1")

	// ErrInvalidMaxBodySize is returned when the body size limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidBaseURL is returned when an upstream base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrNoOutput is returned when no output file is configured.
	ErrNoOutput = errors.New("no output file specified")

	// ErrInvalidFormat is returned for an unknown artifact format.
	ErrInvalidFormat = errors.New("invalid format: must be json or sqlite")

	// ErrInvalidSummary is returned for an unknown summary format.
	ErrInvalidSummary = errors.New("invalid summary: must be text, markdown or none")
)
