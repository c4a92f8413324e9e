package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/lcabral/docqa/services/rag_service"
)

type UploadHandler struct {
	engine         *rag_service.Engine
	logger         *slog.Logger
	maxUploadBytes int64
}

func NewUploadHandler(engine *rag_service.Engine, logger *slog.Logger, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		engine:         engine,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Received file upload request")

	// Parse the incoming multipart form
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	// Get the file from the form
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Read the file into a buffer
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("Starting document ingestion",
		slog.String("filename", header.Filename),
		slog.String("content_type", header.Header.Get("Content-Type")),
		slog.Int64("size", header.Size))

	doc, err := h.engine.Ingest(r.Context(), buf.Bytes(), header.Filename)
	if err != nil {
		h.logger.Error("Document ingestion failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))

		switch {
		case errors.Is(err, rag_service.ErrFileTooLarge),
			errors.Is(err, rag_service.ErrUnsupportedFileType),
			errors.Is(err, rag_service.ErrDuplicateDocument):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, rag_service.ErrNoExtractableText):
			writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			writeJSONError(w, "Failed to process document", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}
