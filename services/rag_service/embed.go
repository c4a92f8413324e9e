package rag_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// EmbeddingService turns text into a fixed-length vector. The dimensionality
// is configured once; ChunkStore rejects vectors of any other length.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, int, error)
	Dimensions() int
	ModelName() string
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Object string `json:"object"`
}

type OpenAIEmbeddingService struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiURL     string
	model      string
	dimensions int
}

func NewOpenAIEmbeddingService(logger *slog.Logger, model string, dimensions int) *OpenAIEmbeddingService {
	return &OpenAIEmbeddingService{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		apiURL:     "https://api.openai.com/v1/embeddings",
		model:      model,
		dimensions: dimensions,
	}
}

func (s *OpenAIEmbeddingService) Dimensions() int {
	return s.dimensions
}

func (s *OpenAIEmbeddingService) ModelName() string {
	return s.model
}

// Embed returns the embedding vector for text along with the token count
// reported by the provider.
func (s *OpenAIEmbeddingService) Embed(ctx context.Context, text string) ([]float32, int, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, 0, fmt.Errorf("OPENAI_API_KEY not set")
	}

	requestBody := embeddingRequest{
		Input: text,
		Model: s.model,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal embedding request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create HTTP request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send HTTP request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, string(body))
	}

	var embeddingResp embeddingResponse
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(&embeddingResp); err != nil {
		return nil, 0, fmt.Errorf("failed to decode embedding response: %v", err)
	}

	if len(embeddingResp.Data) == 0 {
		return nil, 0, fmt.Errorf("no embedding data received")
	}

	embedding := embeddingResp.Data[0].Embedding
	if len(embedding) != s.dimensions {
		return nil, 0, fmt.Errorf("%w: provider returned %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), s.dimensions)
	}

	return embedding, embeddingResp.Usage.TotalTokens, nil
}
