package rag_service

import "context"

type MockEmbeddingService struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, int, error)
	Dim       int
	Model     string
}

func (m *MockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, int, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return make([]float32, m.Dim), 0, nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.Dim
}

func (m *MockEmbeddingService) ModelName() string {
	if m.Model == "" {
		return "mock-embedding"
	}
	return m.Model
}
