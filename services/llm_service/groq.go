package llm_service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const groqAPIURL = "https://api.groq.com/openai/v1/chat/completions"

// GroqService calls Groq's chat completion API. The wire format is
// OpenAI-compatible, including the usage block.
type GroqService struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiURL     string
}

func NewGroqService(logger *slog.Logger, timeout time.Duration) *GroqService {
	return &GroqService{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		apiURL:     groqAPIURL,
	}
}

func (s *GroqService) Generate(ctx context.Context, model string, prompt string) (*Result, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}

	result, err := callChatCompletion(ctx, s.httpClient, s.apiURL, apiKey, model, prompt)
	if err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			s.logger.Error("Groq API error",
				slog.Int("status_code", httpErr.StatusCode),
				slog.String("error_type", httpErr.ErrorType),
				slog.String("error_message", httpErr.Message),
				slog.String("model", model))
		}
		return nil, err
	}
	return result, nil
}
