package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// TestCrawlReportStatus tests the status derived from the report flags.
func TestCrawlReportStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mutate       func(r *CrawlReport)
		wantStatus   string
		wantComplete bool
	}{
		{name: "no seed", mutate: func(*CrawlReport) {}, wantStatus: "no seed"},
		{name: "complete", mutate: func(r *CrawlReport) { r.SeedFound = true }, wantStatus: "complete", wantComplete: true},
		{
			name:       "budget exhausted",
			mutate:     func(r *CrawlReport) { r.SeedFound = true; r.BudgetExhausted = true },
			wantStatus: "budget exhausted (partial)",
		},
		{
			name:       "cancelled wins over budget",
			mutate:     func(r *CrawlReport) { r.SeedFound = true; r.BudgetExhausted = true; r.Cancelled = true },
			wantStatus: "cancelled (partial)",
		},
		{
			name:       "error wins over everything",
			mutate:     func(r *CrawlReport) { r.SeedFound = true; r.Cancelled = true; r.Error = errors.New("boom") },
			wantStatus: "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewCrawlReport(1000)
			tt.mutate(r)

			if got := r.Status(); got != tt.wantStatus {
				t.Errorf("Status() = %q, want %q", got, tt.wantStatus)
			}
			if got := r.Complete(); got != tt.wantComplete {
				t.Errorf("Complete() = %v, want %v", got, tt.wantComplete)
			}
		})
	}
}

// TestCrawlReportElapsed tests the run duration.
func TestCrawlReportElapsed(t *testing.T) {
	t.Parallel()

	r := NewCrawlReport(1)
	r.StartedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.FinishedAt = r.StartedAt.Add(90 * time.Second)

	if got := r.Elapsed(); got != 90*time.Second {
		t.Errorf("Elapsed() = %v, want 1m30s", got)
	}
}

// TestCrawlReportJSON tests that runtime-only fields stay out of JSON.
func TestCrawlReportJSON(t *testing.T) {
	t.Parallel()

	r := NewCrawlReport(7)
	r.Visited.Add(7)
	r.Error = errors.New("boom")
	r.ErrorMessage = "boom"

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `"startId":7`) || !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("unexpected JSON %s", out)
	}
	if strings.Contains(out, "Visited") {
		t.Errorf("visited set should not be serialized: %s", out)
	}
}
