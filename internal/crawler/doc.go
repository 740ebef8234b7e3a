// Package crawler discovers a seed user and walks the friend graph from it.
//
// # Components
//
//   - SeedSelector: probes consecutive user IDs until one exists, is not
//     banned and has enough friends.
//   - Collector: breadth-first traversal bounded by an iteration budget.
//
// Both read the upstream through the Accessor interface, which *api.Accessor
// satisfies. Tests substitute an in-memory graph.
//
// # Budget
//
// Every probe and every collection step consumes a fixed cost from an
// iteration budget. Termination therefore does not depend on graph size.
// With the defaults the collector processes at most 50 users (100 units at 2
// per user). A collection that stops on its budget while users are still
// queued sets CrawlReport.BudgetExhausted; the graph it returns is partial but
// valid.
//
// # Politeness
//
// A fixed pacing delay separates steps to stay under the upstream rate
// limit. It is distinct from the retry backoff applied inside the api
// package. In parallel mode (WithWorkers > 1) the delay becomes a shared
// token bucket, so the aggregate request rate matches sequential mode.
//
// # Cancellation
//
// When ctx is cancelled the collector stops and returns what it has so far
// with CrawlReport.Cancelled set. Only ErrRetriesExhausted from the api
// package aborts a collection with an error.
package crawler

import (
	"context"

	"github.com/nao1215/friendcrawl/internal/model"
)

// Accessor reads users and their friend lists.
//
// Metadata returns nil for an absent user. Neighbors returns an empty slice
// when the user is absent or has no friends.
type Accessor interface {
	Metadata(ctx context.Context, id model.EntityID) (*model.Metadata, error)
	Neighbors(ctx context.Context, id model.EntityID) ([]model.NeighborRef, error)
}
