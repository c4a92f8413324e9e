package llm_service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcabral/docqa/rag_type"
)

// Recorder persists one request log per invocation. Implementations must
// never fail the caller's request path; persistence errors are reported
// operationally and swallowed.
type Recorder interface {
	Record(ctx context.Context, entry *rag_type.LLMRequestLog)
}

// Gateway is the single choke point for calls to the external LLM. Every
// invocation, successful or not, produces exactly one request log carrying
// latency, token usage and cost.
type Gateway struct {
	service  LLMService
	recorder Recorder
	logger   *slog.Logger

	timeout              time.Duration
	inputTokenCostPer1K  float64
	outputTokenCostPer1K float64
}

func NewGateway(service LLMService, recorder Recorder, logger *slog.Logger,
	timeout time.Duration, inputTokenCostPer1K, outputTokenCostPer1K float64) *Gateway {
	return &Gateway{
		service:              service,
		recorder:             recorder,
		logger:               logger,
		timeout:              timeout,
		inputTokenCostPer1K:  inputTokenCostPer1K,
		outputTokenCostPer1K: outputTokenCostPer1K,
	}
}

func (g *Gateway) Invoke(ctx context.Context, promptText, model, question, conversationID string) (string, error) {
	start := time.Now()

	callCtx := ctx
	var cancel context.CancelFunc
	if g.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	result, err := g.service.Generate(callCtx, model, promptText)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	// Logging must survive client cancellation: a disconnected caller still
	// gets its invocation recorded.
	logCtx := context.WithoutCancel(ctx)

	entry := &rag_type.LLMRequestLog{
		CreatedAt:      time.Now().UTC(),
		Model:          model,
		Question:       question,
		ConversationID: conversationID,
		PromptText:     promptText,
		LatencyMs:      latencyMs,
	}

	if err != nil {
		detail := g.sanitizeError(err)
		entry.Success = false
		entry.ErrorDetail = detail
		g.recorder.Record(logCtx, entry)

		g.logger.Error("LLM invocation failed",
			slog.String("model", model),
			slog.Float64("latency_ms", latencyMs),
			slog.String("error", detail))
		return "", &GenerationError{Detail: detail, Err: err}
	}

	promptTokens := result.PromptTokens
	completionTokens := result.CompletionTokens
	if promptTokens == 0 && completionTokens == 0 {
		promptTokens = EstimateTokens(promptText)
		completionTokens = EstimateTokens(result.Text)
	}

	entry.Success = true
	entry.ResponseText = result.Text
	entry.PromptTokens = promptTokens
	entry.CompletionTokens = completionTokens
	entry.TotalTokens = promptTokens + completionTokens
	entry.CostUSD = g.CalculateCostUSD(promptTokens, completionTokens)
	g.recorder.Record(logCtx, entry)

	g.logger.Info("LLM invocation completed",
		slog.String("model", model),
		slog.Float64("latency_ms", latencyMs),
		slog.Int("prompt_tokens", promptTokens),
		slog.Int("completion_tokens", completionTokens),
		slog.Float64("cost_usd", entry.CostUSD))

	return result.Text, nil
}

// CalculateCostUSD estimates request cost from the configured per-1K token
// rates.
func (g *Gateway) CalculateCostUSD(promptTokens, completionTokens int) float64 {
	promptCost := float64(promptTokens) / 1000.0 * g.inputTokenCostPer1K
	completionCost := float64(completionTokens) / 1000.0 * g.outputTokenCostPer1K
	return promptCost + completionCost
}

func (g *Gateway) sanitizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("provider call timed out after %s", g.timeout)
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		msg := httpErr.Message
		if msg == "" {
			msg = "unexpected provider response"
		}
		return fmt.Sprintf("provider error (HTTP %d): %s", httpErr.StatusCode, msg)
	}
	detail := err.Error()
	if len(detail) > 500 {
		detail = detail[:500]
	}
	return detail
}
