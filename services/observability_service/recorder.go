package observability_service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lcabral/docqa/rag_type"
)

// Recorder persists LLM request logs append-only and serves aggregated
// metrics over them. Rows are never mutated after insert.
type Recorder struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewRecorder(db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{
		db:     db,
		logger: logger,
	}
}

// Record inserts one request log row. A persistence failure is reported to
// the operational log and swallowed: observability must never break the
// user-facing answer flow.
func (r *Recorder) Record(ctx context.Context, entry *rag_type.LLMRequestLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO llm_request_logs
			(created_at, model, question, conversation_id, prompt_text, response_text,
			 prompt_tokens, completion_tokens, total_tokens, latency_ms, cost_usd, success, error_detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.CreatedAt, entry.Model, entry.Question, entry.ConversationID,
		entry.PromptText, entry.ResponseText,
		entry.PromptTokens, entry.CompletionTokens, entry.TotalTokens,
		entry.LatencyMs, entry.CostUSD, entry.Success, entry.ErrorDetail)
	if err != nil {
		r.logger.Error("Failed to persist LLM request log",
			slog.String("model", entry.Model),
			slog.Bool("success", entry.Success),
			slog.String("error", err.Error()))
	}
}

// RecentLogs returns the most recent limit rows, newest first.
func (r *Recorder) RecentLogs(ctx context.Context, limit int) ([]rag_type.LLMRequestLog, error) {
	if limit < 1 {
		limit = 1
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, created_at, model, question, conversation_id, prompt_text, response_text,
		       prompt_tokens, completion_tokens, total_tokens, latency_ms, cost_usd, success, error_detail
		FROM llm_request_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent logs: %w", err)
	}
	defer rows.Close()

	logs := make([]rag_type.LLMRequestLog, 0, limit)
	for rows.Next() {
		var l rag_type.LLMRequestLog
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Model, &l.Question, &l.ConversationID,
			&l.PromptText, &l.ResponseText, &l.PromptTokens, &l.CompletionTokens,
			&l.TotalTokens, &l.LatencyMs, &l.CostUSD, &l.Success, &l.ErrorDetail); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Metrics aggregates all logs whose created_at falls inside the window and
// buckets them by calendar date, chronologically ascending.
func (r *Recorder) Metrics(ctx context.Context, windowHours int) (*rag_type.MetricsSummary, error) {
	if windowHours < 1 {
		windowHours = 1
	}
	since := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	rows, err := r.db.Query(ctx, `
		SELECT created_at, prompt_tokens, completion_tokens, total_tokens, latency_ms, cost_usd, success
		FROM llm_request_logs
		WHERE created_at >= $1
		ORDER BY created_at ASC, id ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs for metrics window: %w", err)
	}
	defer rows.Close()

	var entries []rag_type.LLMRequestLog
	for rows.Next() {
		var l rag_type.LLMRequestLog
		if err := rows.Scan(&l.CreatedAt, &l.PromptTokens, &l.CompletionTokens,
			&l.TotalTokens, &l.LatencyMs, &l.CostUSD, &l.Success); err != nil {
			return nil, fmt.Errorf("failed to scan metrics row: %w", err)
		}
		entries = append(entries, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load logs for metrics window: %w", err)
	}

	return summarize(windowHours, entries), nil
}

// summarize computes the aggregates over entries sorted ascending by
// created_at.
func summarize(windowHours int, entries []rag_type.LLMRequestLog) *rag_type.MetricsSummary {
	summary := &rag_type.MetricsSummary{
		WindowHours: windowHours,
		Trends:      []rag_type.TrendBucket{},
	}

	var totalLatency float64
	bucketLatency := map[string]float64{}
	bucketIndex := map[string]int{}

	for _, e := range entries {
		summary.TotalQueries++
		summary.PromptTokens += int64(e.PromptTokens)
		summary.CompletionTokens += int64(e.CompletionTokens)
		summary.TotalTokens += int64(e.TotalTokens)
		summary.TotalCostUSD += e.CostUSD
		totalLatency += e.LatencyMs
		if e.Success {
			summary.SuccessCount++
		} else {
			summary.FailureCount++
		}

		date := e.CreatedAt.UTC().Format("2006-01-02")
		idx, ok := bucketIndex[date]
		if !ok {
			idx = len(summary.Trends)
			bucketIndex[date] = idx
			summary.Trends = append(summary.Trends, rag_type.TrendBucket{Date: date})
		}
		bucket := &summary.Trends[idx]
		bucket.Queries++
		bucket.Tokens += int64(e.TotalTokens)
		bucket.CostUSD += e.CostUSD
		bucketLatency[date] += e.LatencyMs
	}

	if summary.TotalQueries > 0 {
		summary.AverageLatencyMs = totalLatency / float64(summary.TotalQueries)
	}
	for i := range summary.Trends {
		b := &summary.Trends[i]
		if b.Queries > 0 {
			b.AverageLatencyMs = bucketLatency[b.Date] / float64(b.Queries)
		}
	}

	return summary
}
