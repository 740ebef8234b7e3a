// Package log builds the slog loggers used by friendcrawl.
//
// Every logger returned by NewLogger wraps its handler in a SecureHandler,
// which masks values that would leak account credentials when logs are
// shared: the .ROBLOSECURITY session cookie, Authorization and Cookie
// headers, and anything that looks like a bearer or API token.
//
// Custom request headers configured by the user go through the same
// filter, so logging the client configuration at debug level is safe.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, false)
//	logger.Debug("request headers", "headers", cfg.Headers) // sensitive entries masked
package log
