package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".friendcrawl"

// xdgConfigFile is the file name looked up inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .friendcrawl configuration file.
// Zero values mean "not set" and leave the current setting alone. Delays are
// pointers because zero is a meaningful delay.
type File struct {
	StartID              uint64            `yaml:"startId,omitempty"`
	MinNeighbors         int               `yaml:"minNeighbors,omitempty"`
	SeedMaxIterations    int               `yaml:"seedMaxIterations,omitempty"`
	CollectMaxIterations int               `yaml:"collectMaxIterations,omitempty"`
	SeedStepCost         int               `yaml:"seedStepCost,omitempty"`
	CollectStepCost      int               `yaml:"collectStepCost,omitempty"`
	MinBackoff           time.Duration     `yaml:"minBackoff,omitempty"`
	MaxBackoff           time.Duration     `yaml:"maxBackoff,omitempty"`
	BackoffMultiplier    float64           `yaml:"backoffMultiplier,omitempty"`
	MaxAttempts          int               `yaml:"maxAttempts,omitempty"`
	SeedStepDelay        *time.Duration    `yaml:"seedStepDelay,omitempty"`
	CollectStepDelay     *time.Duration    `yaml:"collectStepDelay,omitempty"`
	Timeout              time.Duration     `yaml:"timeout,omitempty"`
	Deadline             time.Duration     `yaml:"deadline,omitempty"`
	UserAgent            string            `yaml:"userAgent,omitempty"`
	Headers              map[string]string `yaml:"headers,omitempty"`
	Proxy                string            `yaml:"proxy,omitempty"`
	Workers              int               `yaml:"workers,omitempty"`
	UsersBaseURL         string            `yaml:"usersBaseURL,omitempty"`
	FriendsBaseURL       string            `yaml:"friendsBaseURL,omitempty"`
	Output               string            `yaml:"output,omitempty"`
	Format               string            `yaml:"format,omitempty"`
	Summary              string            `yaml:"summary,omitempty"`
	MetricsAddr          string            `yaml:"metricsAddr,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// Apply overrides cfg with every value set in the file.
// Headers are merged; file entries win over existing keys.
func (f *File) Apply(cfg *Config) {
	if f.StartID != 0 {
		cfg.StartID = f.StartID
	}
	if f.MinNeighbors != 0 {
		cfg.MinNeighbors = f.MinNeighbors
	}
	if f.SeedMaxIterations != 0 {
		cfg.SeedMaxIterations = f.SeedMaxIterations
	}
	if f.CollectMaxIterations != 0 {
		cfg.CollectMaxIterations = f.CollectMaxIterations
	}
	if f.SeedStepCost != 0 {
		cfg.SeedStepCost = f.SeedStepCost
	}
	if f.CollectStepCost != 0 {
		cfg.CollectStepCost = f.CollectStepCost
	}
	if f.MinBackoff != 0 {
		cfg.MinBackoff = f.MinBackoff
	}
	if f.MaxBackoff != 0 {
		cfg.MaxBackoff = f.MaxBackoff
	}
	if f.BackoffMultiplier != 0 {
		cfg.BackoffMultiplier = f.BackoffMultiplier
	}
	if f.MaxAttempts != 0 {
		cfg.MaxAttempts = f.MaxAttempts
	}
	if f.SeedStepDelay != nil {
		cfg.SeedStepDelay = *f.SeedStepDelay
	}
	if f.CollectStepDelay != nil {
		cfg.CollectStepDelay = *f.CollectStepDelay
	}
	if f.Timeout != 0 {
		cfg.Timeout = f.Timeout
	}
	if f.Deadline != 0 {
		cfg.Deadline = f.Deadline
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if len(f.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for k, v := range f.Headers {
			cfg.Headers[k] = v
		}
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	if f.Workers != 0 {
		cfg.Workers = f.Workers
	}
	if f.UsersBaseURL != "" {
		cfg.UsersBaseURL = f.UsersBaseURL
	}
	if f.FriendsBaseURL != "" {
		cfg.FriendsBaseURL = f.FriendsBaseURL
	}
	if f.Output != "" {
		cfg.OutputFile = f.Output
	}
	if f.Format != "" {
		cfg.Format = f.Format
	}
	if f.Summary != "" {
		cfg.Summary = f.Summary
	}
	if f.MetricsAddr != "" {
		cfg.MetricsAddr = f.MetricsAddr
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .friendcrawl in the current directory
// 3. Look for .friendcrawl in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
