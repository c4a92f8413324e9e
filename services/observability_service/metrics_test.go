package observability_service

import (
	"math"
	"testing"
	"time"

	"github.com/lcabral/docqa/rag_type"
)

func logAt(t time.Time, tokens int, cost, latency float64, success bool) rag_type.LLMRequestLog {
	return rag_type.LLMRequestLog{
		CreatedAt:        t,
		PromptTokens:     tokens / 2,
		CompletionTokens: tokens - tokens/2,
		TotalTokens:      tokens,
		CostUSD:          cost,
		LatencyMs:        latency,
		Success:          success,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := summarize(24, nil)
	if s.WindowHours != 24 {
		t.Errorf("window %d, want 24", s.WindowHours)
	}
	if s.TotalQueries != 0 || s.AverageLatencyMs != 0 {
		t.Errorf("expected zero aggregates, got %+v", s)
	}
	if s.Trends == nil || len(s.Trends) != 0 {
		t.Errorf("expected empty non-nil trends, got %v", s.Trends)
	}
}

func TestSummarizeTotals(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	entries := []rag_type.LLMRequestLog{
		logAt(now.Add(-2*time.Hour), 1000, 0.001, 120, true),
		logAt(now.Add(-time.Hour), 2000, 0.002, 240, true),
		logAt(now.Add(-30*time.Minute), 0, 0, 60, false),
	}

	s := summarize(24, entries)
	if s.TotalQueries != 3 {
		t.Errorf("total queries %d, want 3", s.TotalQueries)
	}
	if s.TotalTokens != 3000 {
		t.Errorf("total tokens %d, want 3000", s.TotalTokens)
	}
	if math.Abs(s.TotalCostUSD-0.003) > 1e-9 {
		t.Errorf("total cost %f, want 0.003", s.TotalCostUSD)
	}
	if s.SuccessCount != 2 || s.FailureCount != 1 {
		t.Errorf("success/failure %d/%d, want 2/1", s.SuccessCount, s.FailureCount)
	}
	// Failed calls still count toward the latency average.
	if want := (120.0 + 240.0 + 60.0) / 3.0; math.Abs(s.AverageLatencyMs-want) > 1e-9 {
		t.Errorf("avg latency %f, want %f", s.AverageLatencyMs, want)
	}
	if s.PromptTokens+s.CompletionTokens != s.TotalTokens {
		t.Errorf("token split %d+%d does not sum to %d",
			s.PromptTokens, s.CompletionTokens, s.TotalTokens)
	}
}

func TestSummarizeDailyBucketsAscending(t *testing.T) {
	day1 := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)
	entries := []rag_type.LLMRequestLog{
		logAt(day1, 100, 0.001, 100, true),
		logAt(day1.Add(time.Hour), 200, 0.002, 300, true),
		logAt(day2, 400, 0.004, 50, true),
	}

	s := summarize(48, entries)
	if len(s.Trends) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(s.Trends))
	}
	if s.Trends[0].Date != "2026-08-21" || s.Trends[1].Date != "2026-08-22" {
		t.Errorf("buckets out of order: %v", s.Trends)
	}
	if s.Trends[0].Queries != 2 || s.Trends[0].Tokens != 300 {
		t.Errorf("unexpected first bucket: %+v", s.Trends[0])
	}
	if want := 200.0; math.Abs(s.Trends[0].AverageLatencyMs-want) > 1e-9 {
		t.Errorf("first bucket avg latency %f, want %f", s.Trends[0].AverageLatencyMs, want)
	}
	if s.Trends[1].Queries != 1 || s.Trends[1].Tokens != 400 {
		t.Errorf("unexpected second bucket: %+v", s.Trends[1])
	}
}

func TestSummarizeWindowSubsetIsMonotonic(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	all := []rag_type.LLMRequestLog{
		logAt(now.Add(-40*time.Hour), 500, 0.005, 100, true),
		logAt(now.Add(-10*time.Hour), 300, 0.003, 100, true),
		logAt(now.Add(-time.Hour), 200, 0.002, 100, true),
	}
	recent := all[1:]

	wide := summarize(48, all)
	narrow := summarize(24, recent)

	if narrow.TotalQueries > wide.TotalQueries {
		t.Errorf("narrow window has more queries (%d) than wide (%d)",
			narrow.TotalQueries, wide.TotalQueries)
	}
	if narrow.TotalTokens > wide.TotalTokens {
		t.Errorf("narrow window has more tokens (%d) than wide (%d)",
			narrow.TotalTokens, wide.TotalTokens)
	}
	if narrow.TotalCostUSD > wide.TotalCostUSD {
		t.Errorf("narrow window costs more (%f) than wide (%f)",
			narrow.TotalCostUSD, wide.TotalCostUSD)
	}
}
