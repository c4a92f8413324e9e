package llm_service

import (
	"context"
)

type MockLLMService struct {
	GenerateFunc func(ctx context.Context, model string, prompt string) (*Result, error)
}

func (m *MockLLMService) Generate(ctx context.Context, model string, prompt string) (*Result, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, model, prompt)
	}
	return &Result{Text: "mock response"}, nil
}
