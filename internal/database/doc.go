// Package database exports a crawled graph to a single SQLite file.
//
// The export holds three tables:
//   - users: one row per collected user, with the lookup payload as received
//   - friends: one row per (user, friend) pair, in API order
//   - crawl_info: a single row describing the run that produced the graph
//
// The file is an alternative serialization of the JSON graph artifact,
// handy for ad-hoc SQL over large crawls. Exporting again replaces the
// previous content; the file does not accumulate crawl history.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, so the
// binary still cross-compiles without a C toolchain.
package database
