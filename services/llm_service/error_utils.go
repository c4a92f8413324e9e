package llm_service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError represents the error structure returned by OpenAI-compatible APIs
type APIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

type HTTPError struct {
	StatusCode int
	Message    string
	ErrorType  string
	RawBody    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider API error (HTTP %d): %s (Type: %s)", e.StatusCode, e.Message, e.ErrorType)
}

// extractAPIErrorDetails extracts error information from provider API responses
func extractAPIErrorDetails(resp *http.Response) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return httpErr
	}
	httpErr.RawBody = string(body)

	// Try to parse as the OpenAI-compatible error format
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		httpErr.Message = apiErr.Error.Message
		httpErr.ErrorType = apiErr.Error.Type
	}

	return httpErr
}
