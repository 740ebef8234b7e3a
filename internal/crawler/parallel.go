package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/friendcrawl/internal/model"
)

// collectParallel runs the BFS with several fetches in flight.
//
// The dispatcher and workers share one mutex guarding the frontier, the
// visited set, the graph and the budget. An ID is marked visited and its
// budget reserved in the same critical section that dequeues it, so no ID is
// fetched twice and the budget is never overspent. A single token bucket
// paces all workers together.
//
// Traversal order, and therefore which users make it in when the budget runs
// out, is not deterministic.
func (c *Collector) collectParallel(ctx context.Context, r *model.CrawlReport) error {
	limit := rate.Inf
	if c.delay > 0 {
		limit = rate.Every(c.delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	var mu sync.Mutex
	frontier := []model.EntityID{r.Seed}
	used := 0
	inflight := 0
	wake := make(chan struct{}, 1)

	// next pops the next unvisited ID and reserves its budget.
	next := func() (model.EntityID, bool, bool) {
		mu.Lock()
		defer mu.Unlock()

		for len(frontier) > 0 && used < c.maxIterations {
			id := frontier[0]
			frontier = frontier[1:]
			if r.Visited.Has(id) {
				continue
			}
			r.Visited.Add(id)
			used += c.stepCost
			r.Steps++
			inflight++
			return id, true, false
		}
		return 0, false, inflight == 0
	}

	worker := func(id model.EntityID) error {
		defer func() {
			mu.Lock()
			inflight--
			mu.Unlock()
			select {
			case wake <- struct{}{}:
			default:
			}
		}()

		if err := waitToken(gctx, limiter); err != nil {
			return err
		}

		entry, ok, err := c.visit(gctx, id)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		if ok {
			r.Graph[id] = entry
			for _, f := range entry.Friends {
				if !r.Visited.Has(f.ID) {
					frontier = append(frontier, f.ID)
				}
			}
		}
		c.metrics.ObserveStep(used, len(frontier), r.Graph.Len())
		return nil
	}

dispatch:
	for gctx.Err() == nil {
		id, ok, done := next()
		if done {
			break
		}
		if !ok {
			// Frontier is empty or the budget is reserved; wait for a worker.
			select {
			case <-wake:
			case <-gctx.Done():
				break dispatch
			}
			continue
		}
		g.Go(func() error {
			return worker(id)
		})
	}

	err := g.Wait()

	r.BudgetUsed = used
	r.FrontierRemaining = len(frontier)

	if ctx.Err() != nil {
		r.Cancelled = true
		return nil
	}
	return err
}

// waitToken blocks until limiter grants a token or ctx is done.
// Unlike rate.Limiter.Wait it does not fail early when the token lies past
// the context deadline; the deadline has to actually expire.
func waitToken(ctx context.Context, limiter *rate.Limiter) error {
	res := limiter.Reserve()
	delay := res.Delay()
	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
