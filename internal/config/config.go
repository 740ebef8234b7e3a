package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Budgets, backoff and pacing values follow the limits the upstream API
// tolerates for anonymous clients.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "friendcrawl"

	// DefaultUsersBaseURL is the base of the user lookup endpoint.
	// Requests go to {base}/users/{id}.
	DefaultUsersBaseURL = "https://users.roblox.com/v1"

	// DefaultFriendsBaseURL is the base of the friend list endpoint.
	// Requests go to {base}/users/{id}/friends.
	DefaultFriendsBaseURL = "https://friends.roblox.com/v1"

	// DefaultStartID is where seed probing begins. Low IDs are mostly
	// staff and test accounts; 1000 is a more likely valid starting region.
	DefaultStartID = 1000

	// DefaultMinNeighbors is the minimum friend count a seed must have.
	DefaultMinNeighbors = 5

	// DefaultSeedMaxIterations bounds the number of seed candidates probed.
	DefaultSeedMaxIterations = 100

	// DefaultCollectMaxIterations bounds the collection budget.
	DefaultCollectMaxIterations = 100

	// DefaultSeedStepCost is the budget consumed per seed candidate.
	DefaultSeedStepCost = 1

	// DefaultCollectStepCost is the budget consumed per collected user.
	// Each collected user issues two remote calls (lookup and friend list).
	DefaultCollectStepCost = 2

	// DefaultMinBackoff is the first retry delay after a rate-limit response.
	DefaultMinBackoff = 5 * time.Second

	// DefaultMaxBackoff caps the retry delay.
	DefaultMaxBackoff = 120 * time.Second

	// DefaultBackoffMultiplier grows the retry delay geometrically.
	DefaultBackoffMultiplier = 2.0

	// DefaultMaxAttempts is the total number of attempts per request,
	// including the first one.
	DefaultMaxAttempts = 10

	// DefaultSeedStepDelay is the pause after each rejected seed candidate.
	DefaultSeedStepDelay = 2 * time.Second

	// DefaultCollectStepDelay is the pause after each collected user.
	DefaultCollectStepDelay = 1500 * time.Millisecond

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultWorkers keeps collection sequential and deterministic.
	DefaultWorkers = 1

	// DefaultUserAgent identifies friendcrawl in HTTP requests.
	DefaultUserAgent = "friendcrawl/1.0 (+https://github.com/nao1215/friendcrawl)"

	// DefaultMaxBodySize limits the response body size read per request.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultOutputFile is where the collected graph is written.
	DefaultOutputFile = "user_and_friends_data.json"

	// FormatJSON writes the graph as a JSON mapping.
	FormatJSON = "json"

	// FormatSQLite writes the graph into a single SQLite file.
	FormatSQLite = "sqlite"

	// SummaryText prints a plain-text table summary.
	SummaryText = "text"

	// SummaryMarkdown prints a Markdown summary.
	SummaryMarkdown = "markdown"

	// SummaryNone disables the summary.
	SummaryNone = "none"
)

// Config holds all configuration options for friendcrawl.
// It is populated from defaults, then the configuration file, then CLI
// flags, and passed through the application rather than kept as global state.
type Config struct {
	// StartID is the first seed candidate probed.
	StartID uint64

	// MinNeighbors is the minimum friend count a seed must have.
	MinNeighbors int

	// SeedMaxIterations bounds seed selection.
	SeedMaxIterations int

	// CollectMaxIterations bounds collection. Each collected user consumes
	// CollectStepCost units, so at most CollectMaxIterations/CollectStepCost
	// users are processed.
	CollectMaxIterations int

	// SeedStepCost and CollectStepCost weight one step of each phase.
	SeedStepCost    int
	CollectStepCost int

	// MinBackoff, MaxBackoff, BackoffMultiplier and MaxAttempts define the
	// retry schedule for rate-limited requests.
	MinBackoff        time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	MaxAttempts       int

	// SeedStepDelay and CollectStepDelay pace the crawl below the upstream
	// rate limit. They are distinct from retry backoff.
	SeedStepDelay    time.Duration
	CollectStepDelay time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Deadline bounds the whole run. Zero means no deadline. When it fires,
	// the partial graph is still written.
	Deadline time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Headers are extra HTTP headers sent with every request (e.g. a cookie).
	Headers map[string]string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Workers is the number of concurrent collection workers.
	// 1 keeps the crawl strictly sequential.
	Workers int

	// MaxBodySize limits the response body size read per request.
	MaxBodySize int64

	// UsersBaseURL and FriendsBaseURL locate the two upstream endpoints.
	UsersBaseURL   string
	FriendsBaseURL string

	// OutputFile is the path of the result artifact.
	OutputFile string

	// Format selects the artifact format (FormatJSON or FormatSQLite).
	Format string

	// Summary selects the summary printed after a crawl.
	Summary string

	// MetricsAddr, when set, serves Prometheus metrics during the crawl.
	MetricsAddr string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLogs switches log output to JSON.
	JSONLogs bool

	// ConfigFilePath is the configuration file explicitly requested, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		StartID:              DefaultStartID,
		MinNeighbors:         DefaultMinNeighbors,
		SeedMaxIterations:    DefaultSeedMaxIterations,
		CollectMaxIterations: DefaultCollectMaxIterations,
		SeedStepCost:         DefaultSeedStepCost,
		CollectStepCost:      DefaultCollectStepCost,
		MinBackoff:           DefaultMinBackoff,
		MaxBackoff:           DefaultMaxBackoff,
		BackoffMultiplier:    DefaultBackoffMultiplier,
		MaxAttempts:          DefaultMaxAttempts,
		SeedStepDelay:        DefaultSeedStepDelay,
		CollectStepDelay:     DefaultCollectStepDelay,
		Timeout:              DefaultTimeout,
		UserAgent:            DefaultUserAgent,
		Headers:              make(map[string]string),
		Workers:              DefaultWorkers,
		MaxBodySize:          DefaultMaxBodySize,
		UsersBaseURL:         DefaultUsersBaseURL,
		FriendsBaseURL:       DefaultFriendsBaseURL,
		OutputFile:           DefaultOutputFile,
		Format:               FormatJSON,
		Summary:              SummaryText,
	}
}

// XDGConfigDir returns the XDG config directory for friendcrawl.
// On Linux: ~/.config/friendcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGDataDir returns the XDG data directory for friendcrawl.
// On Linux: ~/.local/share/friendcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors in errors.go.
func (c *Config) Validate() error {
	if c.MinNeighbors < 0 {
		return ErrInvalidMinNeighbors
	}
	if c.SeedMaxIterations <= 0 || c.CollectMaxIterations <= 0 {
		return ErrInvalidIterations
	}
	if c.SeedStepCost <= 0 || c.CollectStepCost <= 0 {
		return ErrInvalidStepCost
	}
	if c.MinBackoff <= 0 || c.MaxBackoff < c.MinBackoff {
		return ErrInvalidBackoff
	}
	if c.BackoffMultiplier < 1 {
		return ErrInvalidBackoffMultiplier
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.SeedStepDelay < 0 || c.CollectStepDelay < 0 {
		return ErrInvalidDelay
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Deadline < 0 {
		return ErrInvalidDeadline
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if !isHTTPURL(c.UsersBaseURL) || !isHTTPURL(c.FriendsBaseURL) {
		return ErrInvalidBaseURL
	}
	if c.OutputFile == "" {
		return ErrNoOutput
	}
	switch c.Format {
	case FormatJSON, FormatSQLite:
	default:
		return ErrInvalidFormat
	}
	switch c.Summary {
	case SummaryText, SummaryMarkdown, SummaryNone:
	default:
		return ErrInvalidSummary
	}
	return nil
}

// isHTTPURL reports whether s is an absolute http(s) URL.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
