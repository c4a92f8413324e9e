package llm_service

import (
	"context"
	"fmt"
)

// Result is the provider's answer plus its reported token usage. Providers
// that omit usage leave the token fields at zero; the gateway then falls back
// to an estimate.
type Result struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// LLMService is the capability boundary for the external LLM. One concrete
// adapter exists per provider; tests substitute MockLLMService.
type LLMService interface {
	Generate(ctx context.Context, model string, prompt string) (*Result, error)
}

// GenerationError wraps any LLM call failure surfaced to callers. The Detail
// is sanitized for client consumption; the underlying cause stays available
// through Unwrap.
type GenerationError struct {
	Detail string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("llm generation failed: %s", e.Detail)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// EstimateTokens is the deterministic fallback used when a provider omits
// usage data: roughly one token per four characters.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
