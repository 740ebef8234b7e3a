package crawler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/friendcrawl/internal/metrics"
	"github.com/nao1215/friendcrawl/internal/model"
)

// Collector walks the friend graph breadth-first from a seed.
//
// A Collector holds configuration only. The frontier, visited set and graph
// are created per run and handed out in the CrawlReport.
type Collector struct {
	accessor      Accessor
	maxIterations int
	stepCost      int
	delay         time.Duration
	workers       int
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// CollectOption configures a Collector.
type CollectOption func(*Collector)

// WithCollectMaxIterations sets the collection budget.
func WithCollectMaxIterations(n int) CollectOption {
	return func(c *Collector) {
		c.maxIterations = n
	}
}

// WithCollectStepCost sets the budget consumed by processing one user.
func WithCollectStepCost(cost int) CollectOption {
	return func(c *Collector) {
		if cost > 0 {
			c.stepCost = cost
		}
	}
}

// WithCollectDelay sets the pacing delay between steps.
func WithCollectDelay(d time.Duration) CollectOption {
	return func(c *Collector) {
		c.delay = d
	}
}

// WithWorkers sets the number of concurrent fetches. Values below 1 mean 1.
func WithWorkers(n int) CollectOption {
	return func(c *Collector) {
		if n < 1 {
			n = 1
		}
		c.workers = n
	}
}

// WithCollectLogger sets the logger.
func WithCollectLogger(logger *slog.Logger) CollectOption {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithCollectMetrics records step and budget metrics.
func WithCollectMetrics(m *metrics.Metrics) CollectOption {
	return func(c *Collector) {
		c.metrics = m
	}
}

// NewCollector creates a Collector reading through a.
func NewCollector(a Accessor, opts ...CollectOption) *Collector {
	c := &Collector{
		accessor:      a,
		maxIterations: 100,
		stepCost:      2,
		delay:         1500 * time.Millisecond,
		workers:       1,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs one collection from seed and returns its report.
//
// On cancellation the partial graph is returned with Cancelled set and a nil
// error. On a fatal accessor error the partial report is returned together
// with the error; callers should not treat that graph as a result.
func (c *Collector) Collect(ctx context.Context, seed model.EntityID) (*model.CrawlReport, error) {
	r := model.NewCrawlReport(seed)
	r.Seed = seed
	r.SeedFound = true

	err := c.CollectInto(ctx, r)
	r.FinishedAt = time.Now()
	return r, err
}

// CollectInto runs one collection from r.Seed, recording results in r.
func (c *Collector) CollectInto(ctx context.Context, r *model.CrawlReport) error {
	if r.Graph == nil {
		r.Graph = model.NewGraph()
	}
	if r.Visited == nil {
		r.Visited = model.NewIDSet()
	}

	c.logger.Info("collecting friend graph",
		slog.String("seed", r.Seed.String()),
		slog.Int("max_iterations", c.maxIterations),
		slog.Int("workers", c.workers),
	)

	var err error
	if c.workers > 1 {
		err = c.collectParallel(ctx, r)
	} else {
		err = c.collectSequential(ctx, r)
	}
	if err != nil {
		return err
	}

	if r.BudgetUsed >= c.maxIterations && r.FrontierRemaining > 0 {
		r.BudgetExhausted = true
		c.metrics.ObserveBudgetExhausted()
		c.logger.Warn("collection budget exhausted, graph is partial",
			slog.Int("max_iterations", c.maxIterations),
			slog.Int("frontier_remaining", r.FrontierRemaining),
		)
	}

	c.logger.Info("collection finished",
		slog.Int("users", r.Graph.Len()),
		slog.Int("steps", r.Steps),
		slog.Int("budget_used", r.BudgetUsed),
		slog.Bool("cancelled", r.Cancelled),
	)
	return nil
}

// collectSequential is the single-worker BFS loop.
func (c *Collector) collectSequential(ctx context.Context, r *model.CrawlReport) error {
	frontier := []model.EntityID{r.Seed}
	used := 0

	defer func() {
		r.BudgetUsed = used
		r.FrontierRemaining = len(frontier)
	}()

	for len(frontier) > 0 && used < c.maxIterations {
		if ctx.Err() != nil {
			r.Cancelled = true
			return nil
		}

		id := frontier[0]
		frontier = frontier[1:]

		// Duplicates are allowed in the frontier; they cost nothing here.
		if r.Visited.Has(id) {
			continue
		}
		r.Visited.Add(id)

		entry, ok, err := c.visit(ctx, id)
		if err != nil {
			if isCancellation(ctx, err) {
				r.Cancelled = true
				return nil
			}
			return err
		}
		if ok {
			r.Graph[id] = entry
			for _, f := range entry.Friends {
				if !r.Visited.Has(f.ID) {
					frontier = append(frontier, f.ID)
				}
			}
		}

		used += c.stepCost
		r.Steps++
		c.metrics.ObserveStep(used, len(frontier), r.Graph.Len())

		// Pacing delay, skipped when the loop is about to end.
		if c.delay > 0 && len(frontier) > 0 && used < c.maxIterations {
			select {
			case <-ctx.Done():
				r.Cancelled = true
				return nil
			case <-time.After(c.delay):
			}
		}
	}

	return nil
}

// visit fetches one user. ok is false when the user is absent.
func (c *Collector) visit(ctx context.Context, id model.EntityID) (model.Entry, bool, error) {
	md, err := c.accessor.Metadata(ctx, id)
	if err != nil {
		return model.Entry{}, false, err
	}
	if md == nil {
		c.logger.Debug("user absent, not recorded", slog.String("user", id.String()))
		return model.Entry{}, false, nil
	}

	friends, err := c.accessor.Neighbors(ctx, id)
	if err != nil {
		return model.Entry{}, false, err
	}

	c.logger.Debug("collected user",
		slog.String("user", id.String()),
		slog.Int("friends", len(friends)),
	)
	return model.Entry{UserInfo: *md, Friends: friends}, true, nil
}

// isCancellation reports whether err stems from ctx being done.
func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}
