package crawler

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/friendcrawl/internal/api"
	"github.com/nao1215/friendcrawl/internal/metrics"
	"github.com/nao1215/friendcrawl/internal/model"
)

// TestCollectorCollect tests sequential collection.
func TestCollectorCollect(t *testing.T) {
	t.Parallel()

	t.Run("collects the whole reachable graph", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAccessor(scenarioA())
		c := NewCollector(fake, WithCollectMaxIterations(10), WithCollectDelay(0))

		r, err := c.Collect(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := r.Graph.IDs(); !slices.Equal(got, []model.EntityID{1, 2, 3}) {
			t.Errorf("expected keys [1 2 3], got %v", got)
		}
		friends := r.Graph[1].Friends
		if len(friends) != 2 || friends[0].ID != 2 || friends[1].ID != 3 {
			t.Errorf("expected user 1 friends [2 3], got %+v", friends)
		}
		if r.Steps != 3 || r.BudgetUsed != 6 {
			t.Errorf("expected 3 steps using 6 units, got %d/%d", r.Steps, r.BudgetUsed)
		}
		if r.BudgetExhausted || r.Cancelled {
			t.Errorf("expected complete run, got %s", r.Status())
		}
		if !r.SeedFound || r.Seed != 1 {
			t.Errorf("expected seed 1 recorded, got %v/%s", r.SeedFound, r.Seed)
		}
		if r.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
		assertGraphInvariants(t, r)
	})

	t.Run("budget exhausted after the seed", func(t *testing.T) {
		t.Parallel()

		users := map[model.EntityID]fakeUser{
			1: {friends: []model.EntityID{2, 3, 4}},
			2: {}, 3: {}, 4: {},
		}
		fake := newFakeAccessor(users)
		c := NewCollector(fake, WithCollectMaxIterations(2), WithCollectDelay(0))

		r, err := c.Collect(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Graph.Len() != 1 {
			t.Errorf("expected exactly 1 entry, got %d", r.Graph.Len())
		}
		if _, ok := r.Graph[1]; !ok {
			t.Error("expected the seed in the graph")
		}
		if !r.BudgetExhausted {
			t.Error("expected BudgetExhausted")
		}
		if r.FrontierRemaining != 3 {
			t.Errorf("expected 3 queued users, got %d", r.FrontierRemaining)
		}
		if fake.metadataCallCount(2) != 0 {
			t.Error("no user beyond the budget should be fetched")
		}
	})

	t.Run("budget fully used with empty frontier is not exhausted", func(t *testing.T) {
		t.Parallel()

		c := NewCollector(newFakeAccessor(scenarioA()), WithCollectMaxIterations(6), WithCollectDelay(0))
		r, err := c.Collect(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Graph.Len() != 3 || r.BudgetUsed != 6 {
			t.Errorf("expected full graph at 6 units, got %d users/%d", r.Graph.Len(), r.BudgetUsed)
		}
		if r.BudgetExhausted {
			t.Error("frontier is empty, budget should not be flagged")
		}
	})

	t.Run("step bound on a large cyclic graph", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAccessor(chainGraph(1000))
		c := NewCollector(fake, WithCollectMaxIterations(21), WithCollectDelay(0))

		r, err := c.Collect(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 21 units at 2 per step: steps at 0,2,...,20 gives 11.
		if r.Steps != 11 {
			t.Errorf("expected 11 steps, got %d", r.Steps)
		}
		if r.Graph.Len() != 11 {
			t.Errorf("expected 11 users, got %d", r.Graph.Len())
		}
		if !r.BudgetExhausted {
			t.Error("expected BudgetExhausted")
		}
		if fake.maxMetadataCalls() != 1 {
			t.Errorf("expected every user fetched once, max was %d", fake.maxMetadataCalls())
		}
		assertGraphInvariants(t, r)
	})

	t.Run("cycles terminate without refetching", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAccessor(chainGraph(20))
		c := NewCollector(fake, WithCollectMaxIterations(1000), WithCollectDelay(0))

		r, err := c.Collect(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Graph.Len() != 20 || r.BudgetExhausted {
			t.Errorf("expected all 20 users without exhaustion, got %d/%v", r.Graph.Len(), r.BudgetExhausted)
		}
		if fake.maxMetadataCalls() != 1 {
			t.Errorf("expected every user fetched once, max was %d", fake.maxMetadataCalls())
		}
	})

	t.Run("duplicate frontier entries cost nothing", func(t *testing.T) {
		t.Parallel()

		users := map[model.EntityID]fakeUser{
			1: {friends: []model.EntityID{2, 3}},
			2: {friends: []model.EntityID{3}},
			3: {},
		}
		fake := newFakeAccessor(users)
		c := NewCollector(fake, WithCollectMaxIterations(100), WithCollectDelay(0))

		r, err := c.Collect(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Steps != 3 || r.BudgetUsed != 6 {
			t.Errorf("expected 3 steps and 6 units, got %d/%d", r.Steps, r.BudgetUsed)
		}
		if fake.metadataCallCount(3) != 1 {
			t.Errorf("expected user 3 fetched once, got %d", fake.metadataCallCount(3))
		}
	})

	t.Run("absent users are visited but not recorded", func(t *testing.T) {
		t.Parallel()

		users := map[model.EntityID]fakeUser{
			1: {friends: []model.EntityID{2, 99}},
			2: {},
		}
		fake := newFakeAccessor(users)
		c := NewCollector(fake, WithCollectMaxIterations(100), WithCollectDelay(0))

		r, err := c.Collect(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Graph.Len() != 2 {
			t.Errorf("expected 2 users, got %d", r.Graph.Len())
		}
		if !r.Visited.Has(99) {
			t.Error("absent user should be in the visited set")
		}
		if r.Steps != 3 || r.BudgetUsed != 6 {
			t.Errorf("absent user should still consume budget, got %d/%d", r.Steps, r.BudgetUsed)
		}
		assertGraphInvariants(t, r)
	})

	t.Run("step cost is configurable", func(t *testing.T) {
		t.Parallel()

		c := NewCollector(newFakeAccessor(chainGraph(50)),
			WithCollectMaxIterations(10),
			WithCollectStepCost(1),
			WithCollectDelay(0),
		)
		r, err := c.Collect(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Steps != 10 {
			t.Errorf("expected 10 steps at unit cost, got %d", r.Steps)
		}
	})

	t.Run("metrics are recorded", func(t *testing.T) {
		t.Parallel()

		m := metrics.New()
		c := NewCollector(newFakeAccessor(scenarioA()), WithCollectMaxIterations(2), WithCollectDelay(0), WithCollectMetrics(m))
		if _, err := c.Collect(context.Background(), 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		families, err := m.Registry().Gather()
		if err != nil {
			t.Fatalf("failed to gather: %v", err)
		}
		found := false
		for _, f := range families {
			if f.GetName() == "friendcrawl_budget_exhausted_total" {
				found = f.GetMetric()[0].GetCounter().GetValue() == 1
			}
		}
		if !found {
			t.Error("expected budget exhaustion to be counted")
		}
	})
}

// TestCollectorErrors tests fatal errors and cancellation.
func TestCollectorErrors(t *testing.T) {
	t.Parallel()

	t.Run("exhausted retries abort with partial report", func(t *testing.T) {
		t.Parallel()

		fake := newFakeAccessor(scenarioA())
		fake.failOn[3] = api.ErrRetriesExhausted
		c := NewCollector(fake, WithCollectDelay(0))

		r, err := c.Collect(context.Background(), 1)
		if !errors.Is(err, api.ErrRetriesExhausted) {
			t.Fatalf("expected ErrRetriesExhausted, got %v", err)
		}
		if r == nil {
			t.Fatal("expected partial report for diagnostics")
		}
		if r.Graph.Len() != 2 {
			t.Errorf("expected 2 users before the failure, got %d", r.Graph.Len())
		}
		if r.Cancelled {
			t.Error("fatal error is not a cancellation")
		}
	})

	t.Run("cancellation during fetch returns partial graph", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fake := newFakeAccessor(scenarioA())
		fake.beforeMetadata = func(id model.EntityID) {
			if id == 2 {
				cancel()
			}
		}
		c := NewCollector(fake, WithCollectDelay(0))

		r, err := c.Collect(ctx, 1)
		if err != nil {
			t.Fatalf("cancellation should not be an error, got %v", err)
		}
		if !r.Cancelled {
			t.Error("expected Cancelled")
		}
		if r.Graph.Len() != 1 {
			t.Errorf("expected only the seed, got %v", r.Graph.IDs())
		}
		assertGraphInvariants(t, r)
	})

	t.Run("cancellation during pacing delay", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fake := newFakeAccessor(scenarioA())
		fake.afterNeighbors = func(id model.EntityID) {
			if id == 1 {
				cancel()
			}
		}
		c := NewCollector(fake, WithCollectDelay(time.Hour))

		start := time.Now()
		r, err := c.Collect(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if time.Since(start) > 10*time.Second {
			t.Error("pacing delay ignored cancellation")
		}
		if !r.Cancelled || r.Graph.Len() != 1 {
			t.Errorf("expected cancelled run with the seed only, got %v/%d", r.Cancelled, r.Graph.Len())
		}
	})
}

// TestNewCollectorDefaults tests default settings.
func TestNewCollectorDefaults(t *testing.T) {
	t.Parallel()

	c := NewCollector(newFakeAccessor(nil))
	if c.maxIterations != 100 || c.stepCost != 2 || c.delay != 1500*time.Millisecond || c.workers != 1 {
		t.Errorf("unexpected defaults: %+v", c)
	}

	c = NewCollector(newFakeAccessor(nil), WithWorkers(0), WithCollectStepCost(0))
	if c.workers != 1 || c.stepCost != 2 {
		t.Errorf("invalid options should be ignored, got workers=%d cost=%d", c.workers, c.stepCost)
	}
}
