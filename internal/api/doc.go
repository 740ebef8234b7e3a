// Package api talks to the upstream users and friends endpoints.
//
// Client is the resilient transport: it fetches one JSON document, retries
// rate-limited (HTTP 429) and transport failures with capped exponential
// backoff, and reports every other non-200 status as a permanent absence
// rather than an error. Accessor builds on Client to expose the two domain
// lookups used by the crawler: user metadata and friend lists.
//
// The only errors that escape this package are ErrRetriesExhausted, context
// errors and configuration errors from NewClient.
package api
