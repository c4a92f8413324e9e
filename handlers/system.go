package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lcabral/docqa/services/rag_service"
)

type SystemHandler struct {
	db       *pgxpool.Pool
	engine   *rag_service.Engine
	embedder rag_service.EmbeddingService
	model    string
	logger   *slog.Logger
}

func NewSystemHandler(db *pgxpool.Pool, engine *rag_service.Engine,
	embedder rag_service.EmbeddingService, model string, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		db:       db,
		engine:   engine,
		embedder: embedder,
		model:    model,
		logger:   logger,
	}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	components := map[string]string{}

	if err := h.db.Ping(r.Context()); err != nil {
		components["database"] = "unhealthy"
		status = "degraded"
	} else {
		components["database"] = "healthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"components": components,
	})
}

func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute stats",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_documents": stats.TotalDocuments,
		"total_chunks":    stats.TotalChunks,
		"llm_model":       h.model,
		"embedding_model": h.embedder.ModelName(),
	})
}
