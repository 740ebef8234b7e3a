// Package model defines the core data structures used throughout friendcrawl.
//
// This package contains the following main types:
//   - EntityID: Identifier of a user in the remote relationship graph
//   - Metadata: The lookup payload returned for an existing user
//   - NeighborRef: Minimal identity of a friend as listed inline
//   - Graph: The collected mapping from EntityID to Entry
//   - CrawlReport: The outcome of one crawl run
//
// The api, crawler, report and database packages all import these types;
// model itself imports nothing from the module.
//
// The models serialize to the same JSON shape the downstream tooling expects:
// a mapping from stringified user ID to {"user_info": ..., "friends": [...]}.
package model
