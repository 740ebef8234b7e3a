package model

import (
	"time"
)

// CrawlReport is the outcome of one crawl run.
// It is created empty by NewCrawlReport and filled in by the pipeline steps:
// seed selection sets Seed, collection sets Graph, Visited and the budget
// fields, and sinks read the result.
type CrawlReport struct {
	// StartID is where seed probing began.
	StartID EntityID `json:"startId"`

	// Seed is the selected starting user. Only meaningful when SeedFound is true.
	Seed EntityID `json:"seed"`

	// SeedFound reports whether seed selection succeeded.
	SeedFound bool `json:"seedFound"`

	// Graph is the collected mapping.
	Graph Graph `json:"graph"`

	// Visited holds every ID the collector dequeued and processed, including
	// IDs whose metadata came back absent.
	Visited IDSet `json:"-"`

	// Steps is the number of users processed by the collector.
	Steps int `json:"steps"`

	// BudgetUsed is the amount of iteration budget the collector consumed.
	BudgetUsed int `json:"budgetUsed"`

	// BudgetExhausted is true when the collector stopped on its iteration
	// budget with frontier remaining. The graph is partial but valid.
	BudgetExhausted bool `json:"budgetExhausted"`

	// Cancelled is true when an external deadline or signal stopped the
	// collector early. The graph is partial but valid.
	Cancelled bool `json:"cancelled"`

	// FrontierRemaining is the number of queued IDs left when collection stopped.
	FrontierRemaining int `json:"frontierRemaining"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// Error is the fatal error that aborted the run, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performedSteps,omitempty"`
}

// NewCrawlReport creates a report for a run probing from startID.
func NewCrawlReport(startID EntityID) *CrawlReport {
	return &CrawlReport{
		StartID:   startID,
		Graph:     NewGraph(),
		Visited:   NewIDSet(),
		StartedAt: time.Now(),
	}
}

// Complete reports whether the collector exhausted its frontier normally.
func (r *CrawlReport) Complete() bool {
	return r.Error == nil && r.SeedFound && !r.BudgetExhausted && !r.Cancelled
}

// Status returns a short human-readable run status.
func (r *CrawlReport) Status() string {
	switch {
	case r.Error != nil:
		return "failed"
	case r.Cancelled:
		return "cancelled (partial)"
	case r.BudgetExhausted:
		return "budget exhausted (partial)"
	case !r.SeedFound:
		return "no seed"
	default:
		return "complete"
	}
}

// Elapsed returns the wall-clock duration of the run.
func (r *CrawlReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
