package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/lcabral/docqa/rag_type"
	"github.com/lcabral/docqa/services/rag_service"
)

// DocumentEngine is the slice of the RAG engine the documents handler depends
// on; tests substitute a mock.
type DocumentEngine interface {
	ListDocuments(ctx context.Context) ([]rag_type.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*rag_type.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

type DocumentsHandler struct {
	engine DocumentEngine
	logger *slog.Logger
}

func NewDocumentsHandler(engine DocumentEngine, logger *slog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.engine.ListDocuments(r.Context())
	if err != nil {
		h.logger.Error("Failed to list documents",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	idParam := mux.Vars(r)["id"]
	id, err := uuid.Parse(idParam)
	if err != nil {
		writeJSONError(w, "Invalid document id", http.StatusBadRequest)
		return
	}

	doc, err := h.engine.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, rag_service.ErrDocumentNotFound) {
			writeJSONError(w, "Document not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load document",
			slog.String("document_id", idParam),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to load document", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// Delete removes a document and all of its chunks. Deleting an unknown id is
// a no-op success.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	idParam := mux.Vars(r)["id"]
	id, err := uuid.Parse(idParam)
	if err != nil {
		writeJSONError(w, "Invalid document id", http.StatusBadRequest)
		return
	}

	if err := h.engine.DeleteDocument(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete document",
			slog.String("document_id", idParam),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to delete document", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"deleted":     true,
	})
}
