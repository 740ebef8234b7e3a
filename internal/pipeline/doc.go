// Package pipeline runs one crawl as an ordered sequence of steps.
//
// The default pipeline is seed selection, then collection, then one sink
// step per configured output. Every step receives the same
// *model.CrawlReport and fills in its part of it.
//
// Cancellation is handled between steps: once the context is done the
// remaining crawl steps are skipped, while sink steps still run on a detached
// context so that the partial graph reaches its output. A failed step stops
// the pipeline before any sink runs, so a fatal run produces no artifact.
package pipeline
