package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/friendcrawl/internal/config"
	"github.com/nao1215/friendcrawl/internal/crawler"
	"github.com/nao1215/friendcrawl/internal/metrics"
	"github.com/nao1215/friendcrawl/internal/model"
)

// ErrNoSeed is returned by CollectStep when no seed was selected.
var ErrNoSeed = errors.New("collection requires a seed")

// SeedStep selects the starting user.
type SeedStep struct {
	selector *crawler.SeedSelector
}

// NewSeedStep creates a seed selection step.
func NewSeedStep(selector *crawler.SeedSelector) *SeedStep {
	return &SeedStep{selector: selector}
}

// Name returns the step name.
func (s *SeedStep) Name() string {
	return "seed"
}

// Do probes from report.StartID and records the seed.
// Cancellation during probing marks the report cancelled instead of failing.
func (s *SeedStep) Do(ctx context.Context, report *model.CrawlReport) error {
	seed, err := s.selector.Find(ctx, report.StartID)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			report.Cancelled = true
			return nil
		}
		return err
	}

	report.Seed = seed
	report.SeedFound = true
	return nil
}

// CollectStep runs the bounded breadth-first collection from the seed.
type CollectStep struct {
	collector *crawler.Collector
}

// NewCollectStep creates a collection step.
func NewCollectStep(collector *crawler.Collector) *CollectStep {
	return &CollectStep{collector: collector}
}

// Name returns the step name.
func (s *CollectStep) Name() string {
	return "collect"
}

// Do collects into report.
func (s *CollectStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if !report.SeedFound {
		return ErrNoSeed
	}
	return s.collector.CollectInto(ctx, report)
}

// Sink receives the finished report. report.Writer implementations and
// database.Writer satisfy it.
type Sink interface {
	Write(report *model.CrawlReport) (int, error)
}

// SinkStep hands the report to a Sink.
// It runs even after cancellation so that partial graphs are kept, and
// refuses reports that carry a fatal error.
type SinkStep struct {
	name   string
	sink   Sink
	logger *slog.Logger
}

// NewSinkStep creates a sink step with the given name (e.g. "write_json").
func NewSinkStep(name string, sink Sink, logger *slog.Logger) *SinkStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SinkStep{name: name, sink: sink, logger: logger}
}

// Name returns the step name.
func (s *SinkStep) Name() string {
	return s.name
}

// Do writes the report.
func (s *SinkStep) Do(_ context.Context, report *model.CrawlReport) error {
	if report.Error != nil {
		s.logger.Warn("not writing output for failed crawl", "sink", s.name, "error", report.Error)
		return nil
	}

	n, err := s.sink.Write(report)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	s.logger.Info("output written", "sink", s.name, "size", n, "users", report.Graph.Len())
	return nil
}

func (s *SinkStep) runsAfterCancel() {}

// DefaultPipeline creates the standard crawl pipeline from cfg:
// seed selection, collection, then the sink steps in order.
// m may be nil.
func DefaultPipeline(accessor crawler.Accessor, cfg *config.Config, m *metrics.Metrics, pipelineOpts []Option, sinks ...*SinkStep) *Pipeline {
	p := New(pipelineOpts...)

	selector := crawler.NewSeedSelector(accessor,
		crawler.WithMinNeighbors(cfg.MinNeighbors),
		crawler.WithSeedMaxIterations(cfg.SeedMaxIterations),
		crawler.WithSeedStepCost(cfg.SeedStepCost),
		crawler.WithSeedDelay(cfg.SeedStepDelay),
		crawler.WithSeedLogger(p.logger),
		crawler.WithSeedMetrics(m),
	)
	collector := crawler.NewCollector(accessor,
		crawler.WithCollectMaxIterations(cfg.CollectMaxIterations),
		crawler.WithCollectStepCost(cfg.CollectStepCost),
		crawler.WithCollectDelay(cfg.CollectStepDelay),
		crawler.WithWorkers(cfg.Workers),
		crawler.WithCollectLogger(p.logger),
		crawler.WithCollectMetrics(m),
	)

	p.AddSteps(NewSeedStep(selector), NewCollectStep(collector))
	for _, sink := range sinks {
		p.AddStep(sink)
	}

	return p
}
