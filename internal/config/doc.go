// Package config provides configuration structures and utilities for friendcrawl.
// It defines the crawl budgets, retry schedule, pacing delays, upstream
// endpoints and output preferences, together with the YAML configuration
// file that can set any of them.
package config
