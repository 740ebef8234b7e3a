package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/friendcrawl/internal/api"
	"github.com/nao1215/friendcrawl/internal/config"
	"github.com/nao1215/friendcrawl/internal/crawler"
	"github.com/nao1215/friendcrawl/internal/database"
	"github.com/nao1215/friendcrawl/internal/log"
	"github.com/nao1215/friendcrawl/internal/metrics"
	"github.com/nao1215/friendcrawl/internal/model"
	"github.com/nao1215/friendcrawl/internal/pipeline"
	"github.com/nao1215/friendcrawl/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Select a seed user and collect its friend graph",
		Long: `Crawl selects a seed user and collects the friend graph around it.

Seed selection probes IDs upward from --start and picks the first active,
non-banned user with at least --min-friends friends. Collection then walks
the friend graph breadth-first until the frontier is empty or the
iteration budget is spent.

The result is written to --output as JSON ({"<id>": {user_info, friends}})
or, with --format sqlite, as a single SQLite file. Interrupting the crawl
(Ctrl+C or --deadline) still writes the partial graph. A crawl that fails
(no seed found, retries exhausted) writes nothing and exits with status 1.

Examples:
  # Crawl with defaults (start at 1000, 100 iterations)
  friendcrawl crawl

  # Bigger crawl from a known user, stop after one hour
  friendcrawl crawl --start 156 --collect-iterations 2000 --deadline 1h

  # SQLite output and a Markdown summary
  friendcrawl crawl -f sqlite -o graph.db --summary markdown

  # Serve Prometheus metrics while crawling
  friendcrawl crawl --metrics-addr 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Seed selection flags
	cmd.Flags().Uint64P("start", "s", config.DefaultStartID,
		"User ID where seed probing starts")
	cmd.Flags().IntP("min-friends", "n", config.DefaultMinNeighbors,
		"Minimum friend count for a seed user")
	cmd.Flags().Int("seed-iterations", config.DefaultSeedMaxIterations,
		"Iteration budget for seed selection")
	cmd.Flags().Int("seed-cost", config.DefaultSeedStepCost,
		"Budget consumed per seed candidate")
	cmd.Flags().Duration("seed-delay", config.DefaultSeedStepDelay,
		"Pause after each rejected seed candidate")

	// Collection flags
	cmd.Flags().IntP("collect-iterations", "i", config.DefaultCollectMaxIterations,
		"Iteration budget for collection")
	cmd.Flags().Int("collect-cost", config.DefaultCollectStepCost,
		"Budget consumed per collected user")
	cmd.Flags().Duration("collect-delay", config.DefaultCollectStepDelay,
		"Pause after each collected user")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Concurrent collection workers (1 keeps the crawl deterministic)")
	cmd.Flags().DurationP("deadline", "d", 0,
		"Stop the crawl after this duration and write the partial graph (0 = none)")

	// Retry flags
	cmd.Flags().Duration("min-backoff", config.DefaultMinBackoff,
		"First retry delay after a rate-limited response")
	cmd.Flags().Duration("max-backoff", config.DefaultMaxBackoff,
		"Maximum retry delay")
	cmd.Flags().Float64("backoff-multiplier", config.DefaultBackoffMultiplier,
		"Growth factor of the retry delay")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts,
		"Attempts per request including the first")

	// HTTP flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header")
	cmd.Flags().StringArrayP("header", "H", nil,
		`Extra request header "Name: value" (repeatable)`)
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (host:port)")
	cmd.Flags().String("users-url", config.DefaultUsersBaseURL,
		"Base URL of the users API")
	cmd.Flags().String("friends-url", config.DefaultFriendsBaseURL,
		"Base URL of the friends API")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"Output file path")
	cmd.Flags().StringP("format", "f", config.FormatJSON,
		"Output format: json or sqlite")
	cmd.Flags().String("summary", config.SummaryText,
		"Summary printed after the crawl: text, markdown or none")
	cmd.Flags().String("metrics-addr", "",
		"Serve Prometheus metrics at this address during the crawl")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .friendcrawl in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLogs)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// getBoolFlag retrieves a bool flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags the user explicitly set, in that order of precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly requested file must exist; a missing default is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.JSONLogs = getBoolFlag(cmd, "log-json")

	if flags.Changed("start") {
		if cfg.StartID, err = flags.GetUint64("start"); err != nil {
			return nil, err
		}
	}

	intFlags := map[string]*int{
		"min-friends":        &cfg.MinNeighbors,
		"seed-iterations":    &cfg.SeedMaxIterations,
		"seed-cost":          &cfg.SeedStepCost,
		"collect-iterations": &cfg.CollectMaxIterations,
		"collect-cost":       &cfg.CollectStepCost,
		"workers":            &cfg.Workers,
		"max-attempts":       &cfg.MaxAttempts,
	}
	for name, dst := range intFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetInt(name); err != nil {
			return nil, err
		}
	}

	durationFlags := map[string]*time.Duration{
		"seed-delay":    &cfg.SeedStepDelay,
		"collect-delay": &cfg.CollectStepDelay,
		"deadline":      &cfg.Deadline,
		"min-backoff":   &cfg.MinBackoff,
		"max-backoff":   &cfg.MaxBackoff,
		"timeout":       &cfg.Timeout,
	}
	for name, dst := range durationFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetDuration(name); err != nil {
			return nil, err
		}
	}

	if flags.Changed("backoff-multiplier") {
		if cfg.BackoffMultiplier, err = flags.GetFloat64("backoff-multiplier"); err != nil {
			return nil, err
		}
	}

	stringFlags := map[string]*string{
		"user-agent":   &cfg.UserAgent,
		"proxy":        &cfg.ProxyAddress,
		"users-url":    &cfg.UsersBaseURL,
		"friends-url":  &cfg.FriendsBaseURL,
		"output":       &cfg.OutputFile,
		"format":       &cfg.Format,
		"summary":      &cfg.Summary,
		"metrics-addr": &cfg.MetricsAddr,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	headers, err := flags.GetStringArray("header")
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q (expected \"Name: value\")", h)
		}
		cfg.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return cfg, nil
}

// runCrawl runs one crawl with cfg and prints the summary to out.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	m := metrics.New()

	if cfg.MetricsAddr != "" {
		shutdown, err := startMetricsServer(cfg.MetricsAddr, m, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	clientOpts := []api.ClientOption{
		api.WithUserAgent(cfg.UserAgent),
		api.WithHeaders(cfg.Headers),
		api.WithRetryPolicy(api.RetryPolicy{
			MinBackoff:  cfg.MinBackoff,
			MaxBackoff:  cfg.MaxBackoff,
			Multiplier:  cfg.BackoffMultiplier,
			MaxAttempts: cfg.MaxAttempts,
		}),
		api.WithTimeout(cfg.Timeout),
		api.WithMaxBodySize(cfg.MaxBodySize),
		api.WithLogger(logger),
		api.WithMetrics(m),
	}
	if cfg.ProxyAddress != "" {
		clientOpts = append(clientOpts, api.WithProxy(cfg.ProxyAddress))
	}

	client, err := api.NewClient(clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	accessor := api.NewAccessor(client,
		api.WithUsersBaseURL(cfg.UsersBaseURL),
		api.WithFriendsBaseURL(cfg.FriendsBaseURL),
	)

	sink := pipeline.NewSinkStep("write_"+cfg.Format, newOutputSink(cfg), logger)
	p := pipeline.DefaultPipeline(accessor, cfg, m,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		sink,
	)

	logger.Info("starting crawl",
		"start", cfg.StartID,
		"seedMaxIterations", cfg.SeedMaxIterations,
		"collectMaxIterations", cfg.CollectMaxIterations,
		"workers", cfg.Workers,
		"output", cfg.OutputFile,
		"headers", cfg.Headers,
	)

	r := model.NewCrawlReport(model.EntityID(cfg.StartID))
	if err := p.Execute(ctx, r); err != nil {
		return describeFailure(err)
	}

	if err := printSummary(out, cfg.Summary, r); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %d users to %s (%s)\n", r.Graph.Len(), cfg.OutputFile, r.Status())
	return nil
}

// describeFailure turns a fatal pipeline error into the message shown to the user.
func describeFailure(err error) error {
	switch {
	case errors.Is(err, crawler.ErrSeedNotFound):
		return fmt.Errorf("no suitable seed user found (try another --start or a lower --min-friends): %w", err)
	case errors.Is(err, api.ErrRetriesExhausted):
		return fmt.Errorf("upstream kept rate limiting requests, giving up: %w", err)
	default:
		return fmt.Errorf("crawl failed: %w", err)
	}
}

// printSummary prints the run summary in the requested format.
func printSummary(out io.Writer, format string, r *model.CrawlReport) error {
	var w report.Writer
	switch format {
	case config.SummaryText:
		w = report.NewTextSummaryWriter(out)
	case config.SummaryMarkdown:
		w = report.NewMarkdownSummaryWriter(out)
	default:
		return nil
	}

	if _, err := w.Write(r); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}

// newOutputSink returns the sink writing the configured artifact.
func newOutputSink(cfg *config.Config) pipeline.Sink {
	if cfg.Format == config.FormatSQLite {
		return database.NewWriter(cfg.OutputFile)
	}
	return &graphFileSink{path: cfg.OutputFile}
}

// graphFileSink writes the graph JSON to a file. The file is only created
// when the sink runs, so a failed crawl leaves no artifact behind.
type graphFileSink struct {
	path string
}

// Write creates (or truncates) the output file and writes the graph.
func (s *graphFileSink) Write(r *model.CrawlReport) (n int, err error) {
	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	return report.NewGraphJSONWriter(f).Write(r)
}

// startMetricsServer serves m at addr/metrics until the returned func is called.
func startMetricsServer(addr string, m *metrics.Metrics, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("failed to stop metrics server", "error", err)
		}
	}, nil
}
