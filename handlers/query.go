package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lcabral/docqa/rag_type"
	"github.com/lcabral/docqa/services/llm_service"
)

// QueryEngine is the slice of the RAG engine the query handler depends on;
// tests substitute a mock.
type QueryEngine interface {
	Answer(ctx context.Context, req rag_type.QueryRequest) (*rag_type.AnswerResponse, error)
}

type QueryHandler struct {
	engine QueryEngine
	logger *slog.Logger
}

func NewQueryHandler(engine QueryEngine, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rag_type.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode query request",
			slog.String("error", err.Error()))
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeJSONError(w, "Question must not be empty", http.StatusBadRequest)
		return
	}

	resp, err := h.engine.Answer(r.Context(), req)
	if err != nil {
		var genErr *llm_service.GenerationError
		if errors.As(err, &genErr) {
			h.logger.Error("Answer generation failed",
				slog.String("detail", genErr.Detail))
			writeJSONError(w, genErr.Error(), http.StatusBadGateway)
			return
		}
		h.logger.Error("Query failed",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to answer question", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
