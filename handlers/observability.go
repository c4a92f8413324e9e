package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lcabral/docqa/services/observability_service"
)

type ObservabilityHandler struct {
	recorder *observability_service.Recorder
	registry *observability_service.PromptRegistry
	logger   *slog.Logger
}

func NewObservabilityHandler(recorder *observability_service.Recorder,
	registry *observability_service.PromptRegistry, logger *slog.Logger) *ObservabilityHandler {
	return &ObservabilityHandler{
		recorder: recorder,
		registry: registry,
		logger:   logger,
	}
}

func (h *ObservabilityHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	windowHours := 24
	if raw := r.URL.Query().Get("window_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSONError(w, "window_hours must be a positive integer", http.StatusBadRequest)
			return
		}
		windowHours = parsed
	}

	summary, err := h.recorder.Metrics(r.Context(), windowHours)
	if err != nil {
		h.logger.Error("Failed to compute metrics",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to compute metrics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ObservabilityHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit > 500 {
		limit = 500
	}

	logs, err := h.recorder.RecentLogs(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load recent logs",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to load recent logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (h *ObservabilityHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	templateKey := r.URL.Query().Get("template_key")

	templates, err := h.registry.ListAll(r.Context(), templateKey)
	if err != nil {
		h.logger.Error("Failed to list prompt templates",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to list prompt templates", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

type createPromptRequest struct {
	TemplateKey string `json:"template_key"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

func (h *ObservabilityHandler) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req createPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.TemplateKey) == "" || strings.TrimSpace(req.Content) == "" {
		writeJSONError(w, "template_key and content are required", http.StatusBadRequest)
		return
	}

	tpl, err := h.registry.CreateVersion(r.Context(), req.TemplateKey, req.Content, req.Description)
	if err != nil {
		h.logger.Error("Failed to create prompt version",
			slog.String("template_key", req.TemplateKey),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to create prompt version", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, tpl)
}
