package llm_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const openAIAPIURL = "https://api.openai.com/v1/chat/completions"

type OpenAIService struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiURL     string
}

func NewOpenAIService(logger *slog.Logger, timeout time.Duration) *OpenAIService {
	return &OpenAIService{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		apiURL:     openAIAPIURL,
	}
}

func (s *OpenAIService) Generate(ctx context.Context, model string, prompt string) (*Result, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	result, err := callChatCompletion(ctx, s.httpClient, s.apiURL, apiKey, model, prompt)
	if err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			if httpErr.StatusCode == http.StatusTooManyRequests {
				s.logger.Error("OpenAI API quota exceeded",
					slog.String("error_type", httpErr.ErrorType),
					slog.String("error_message", httpErr.Message),
					slog.String("model", model))
			} else {
				s.logger.Error("OpenAI API error",
					slog.Int("status_code", httpErr.StatusCode),
					slog.String("error_type", httpErr.ErrorType),
					slog.String("error_message", httpErr.Message))
			}
		}
		return nil, err
	}
	return result, nil
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// callChatCompletion performs one OpenAI-wire chat completion request. No
// retries happen here: a failed attempt must surface so the gateway logs it
// exactly once.
func callChatCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, model, prompt string) (*Result, error) {
	messages := []map[string]string{
		{"role": "user", "content": prompt},
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":    model,
		"messages": messages,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, extractAPIErrorDetails(resp)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in provider response")
	}

	return &Result{
		Text:             completion.Choices[0].Message.Content,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}, nil
}
