package rag_service

import "errors"

var (
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNoExtractableText   = errors.New("no extractable text content")
	ErrDuplicateDocument   = errors.New("duplicate document")
	ErrDocumentNotFound    = errors.New("document not found")

	// ErrDimensionMismatch is raised when an embedding's length differs from
	// the configured index dimensionality (model upgrade scenario). Vectors
	// are never truncated or padded.
	ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")
)
