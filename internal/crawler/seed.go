package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nao1215/friendcrawl/internal/metrics"
	"github.com/nao1215/friendcrawl/internal/model"
)

// ErrSeedNotFound is returned when no candidate qualified within the
// seed selection budget.
var ErrSeedNotFound = errors.New("no qualifying seed user found")

// SeedSelector finds the first usable starting user.
type SeedSelector struct {
	accessor      Accessor
	minNeighbors  int
	maxIterations int
	stepCost      int
	delay         time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// SeedOption configures a SeedSelector.
type SeedOption func(*SeedSelector)

// WithMinNeighbors sets the friend count a seed must reach.
func WithMinNeighbors(n int) SeedOption {
	return func(s *SeedSelector) {
		s.minNeighbors = n
	}
}

// WithSeedMaxIterations sets the probe budget.
func WithSeedMaxIterations(n int) SeedOption {
	return func(s *SeedSelector) {
		s.maxIterations = n
	}
}

// WithSeedStepCost sets the budget consumed by one probe.
func WithSeedStepCost(cost int) SeedOption {
	return func(s *SeedSelector) {
		if cost > 0 {
			s.stepCost = cost
		}
	}
}

// WithSeedDelay sets the pause after a candidate that does not qualify.
func WithSeedDelay(d time.Duration) SeedOption {
	return func(s *SeedSelector) {
		s.delay = d
	}
}

// WithSeedLogger sets the logger.
func WithSeedLogger(logger *slog.Logger) SeedOption {
	return func(s *SeedSelector) {
		s.logger = logger
	}
}

// WithSeedMetrics records probe outcomes.
func WithSeedMetrics(m *metrics.Metrics) SeedOption {
	return func(s *SeedSelector) {
		s.metrics = m
	}
}

// NewSeedSelector creates a SeedSelector reading through a.
func NewSeedSelector(a Accessor, opts ...SeedOption) *SeedSelector {
	s := &SeedSelector{
		accessor:      a,
		minNeighbors:  5,
		maxIterations: 100,
		stepCost:      1,
		delay:         2 * time.Second,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find probes start, start+1, ... and returns the first user that exists,
// is not banned and has at least the minimum number of friends.
//
// The result is deterministic for identical upstream responses. It returns
// ErrSeedNotFound when the budget or the ID space runs out, and propagates fatal accessor
// errors and context errors unchanged.
func (s *SeedSelector) Find(ctx context.Context, start model.EntityID) (model.EntityID, error) {
	used := 0
	probes := 0

	for candidate := start; used < s.maxIterations; candidate++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		qualified, err := s.probe(ctx, candidate)
		if err != nil {
			return 0, fmt.Errorf("probe user %s: %w", candidate, err)
		}
		if qualified {
			return candidate, nil
		}

		probes++
		used += s.stepCost

		if candidate == math.MaxUint64 {
			break
		}

		if s.delay > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	s.logger.Error("seed selection budget reached",
		slog.Int("max_iterations", s.maxIterations),
		slog.Int("probes", probes),
		slog.String("start", start.String()),
	)
	return 0, fmt.Errorf("%w: %d candidates probed from %s", ErrSeedNotFound, probes, start)
}

// probe checks a single candidate.
func (s *SeedSelector) probe(ctx context.Context, id model.EntityID) (bool, error) {
	md, err := s.accessor.Metadata(ctx, id)
	if err != nil {
		return false, err
	}
	if md == nil {
		s.metrics.ObserveProbe(metrics.ProbeMissing)
		s.logger.Info("user does not exist, skipping", slog.String("user", id.String()))
		return false, nil
	}
	if md.IsBanned {
		s.metrics.ObserveProbe(metrics.ProbeBanned)
		s.logger.Info("user is banned, skipping", slog.String("user", id.String()))
		return false, nil
	}

	friends, err := s.accessor.Neighbors(ctx, id)
	if err != nil {
		return false, err
	}
	if len(friends) < s.minNeighbors {
		s.metrics.ObserveProbe(metrics.ProbeTooFew)
		s.logger.Info("user has too few friends, trying next",
			slog.String("user", id.String()),
			slog.Int("friends", len(friends)),
		)
		return false, nil
	}

	s.metrics.ObserveProbe(metrics.ProbeSelected)
	s.logger.Info("seed selected",
		slog.String("user", id.String()),
		slog.Int("friends", len(friends)),
	)
	return true, nil
}
