package rag_service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/lcabral/docqa/rag_type"
)

// ChunkInput is one chunk handed to the store during ingestion, in document
// order.
type ChunkInput struct {
	Text       string
	PageNumber int
	Embedding  []float32
}

// ChunkStore persists document chunks and their embeddings and backs
// similarity search. Search is read-only; ingestion is all-or-nothing.
type ChunkStore interface {
	IngestDocument(ctx context.Context, doc *rag_type.Document, chunks []ChunkInput) error
	Search(ctx context.Context, embedding []float32, documentIDs []uuid.UUID, topK int) ([]rag_type.RetrievalHit, error)
	ListDocuments(ctx context.Context) ([]rag_type.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*rag_type.Document, error)
	FindDuplicate(ctx context.Context, contentHash, filename string) (*rag_type.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*rag_type.CorpusStats, error)
}

type PgChunkStore struct {
	db         *pgxpool.Pool
	logger     *slog.Logger
	dimensions int
}

func NewPgChunkStore(db *pgxpool.Pool, logger *slog.Logger, dimensions int) *PgChunkStore {
	return &PgChunkStore{
		db:         db,
		logger:     logger,
		dimensions: dimensions,
	}
}

// IngestDocument writes the document record and all of its chunks in a single
// transaction, so a partial ingestion is never observable.
func (s *PgChunkStore) IngestDocument(ctx context.Context, doc *rag_type.Document, chunks []ChunkInput) error {
	for i, c := range chunks {
		if len(c.Embedding) != s.dimensions {
			return fmt.Errorf("chunk %d: %w (got %d, index expects %d)",
				i, ErrDimensionMismatch, len(c.Embedding), s.dimensions)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, filename, byte_size, content_hash, page_count, chunk_count, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Filename, doc.ByteSize, doc.ContentHash, doc.PageCount, len(chunks), doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to store document record: %w", err)
	}

	for i, c := range chunks {
		_, err = tx.Exec(ctx, `
			INSERT INTO chunks (id, document_id, position, page_number, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), doc.ID, i, c.PageNumber, c.Text, pgvector.NewVector(c.Embedding))
		if err != nil {
			return fmt.Errorf("failed to store chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit document ingestion: %w", err)
	}

	doc.ChunkCount = len(chunks)
	s.logger.Info("Stored document chunks",
		slog.String("document_id", doc.ID.String()),
		slog.Int("chunk_count", len(chunks)))
	return nil
}

// Search returns up to topK hits ordered by descending cosine similarity.
// Ties are broken by insertion order (earlier-ingested chunk first) so
// results are deterministic. An empty documentIDs slice searches everything.
func (s *PgChunkStore) Search(ctx context.Context, embedding []float32, documentIDs []uuid.UUID, topK int) ([]rag_type.RetrievalHit, error) {
	if len(embedding) != s.dimensions {
		return nil, fmt.Errorf("query embedding: %w (got %d, index expects %d)",
			ErrDimensionMismatch, len(embedding), s.dimensions)
	}
	if topK < 1 {
		topK = 1
	}

	query := `
		SELECT c.id, c.document_id, d.filename, c.page_number, c.content,
		       1 - (c.embedding <=> $1) AS score
		FROM chunks c
		JOIN documents d ON d.id = c.document_id`
	args := []interface{}{pgvector.NewVector(embedding)}
	if len(documentIDs) > 0 {
		query += ` WHERE c.document_id = ANY($2)`
		args = append(args, documentIDs)
	}
	query += fmt.Sprintf(`
		ORDER BY c.embedding <=> $1 ASC, c.seq ASC
		LIMIT %d`, topK)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	hits := make([]rag_type.RetrievalHit, 0, topK)
	for rows.Next() {
		var hit rag_type.RetrievalHit
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.DocumentName,
			&hit.PageNumber, &hit.Text, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	return hits, nil
}

func (s *PgChunkStore) ListDocuments(ctx context.Context) ([]rag_type.Document, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, filename, byte_size, content_hash, page_count, chunk_count, uploaded_at
		FROM documents
		ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]rag_type.Document, 0)
	for rows.Next() {
		var d rag_type.Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.ByteSize, &d.ContentHash,
			&d.PageCount, &d.ChunkCount, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PgChunkStore) GetDocument(ctx context.Context, id uuid.UUID) (*rag_type.Document, error) {
	var d rag_type.Document
	err := s.db.QueryRow(ctx, `
		SELECT id, filename, byte_size, content_hash, page_count, chunk_count, uploaded_at
		FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.Filename, &d.ByteSize, &d.ContentHash, &d.PageCount, &d.ChunkCount, &d.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &d, nil
}

// FindDuplicate looks for an existing document with the same content hash or
// the same filename. Returns nil when no duplicate exists.
func (s *PgChunkStore) FindDuplicate(ctx context.Context, contentHash, filename string) (*rag_type.Document, error) {
	var d rag_type.Document
	err := s.db.QueryRow(ctx, `
		SELECT id, filename, byte_size, content_hash, page_count, chunk_count, uploaded_at
		FROM documents
		WHERE content_hash = $1 OR filename = $2
		ORDER BY uploaded_at ASC
		LIMIT 1`, contentHash, filename).
		Scan(&d.ID, &d.Filename, &d.ByteSize, &d.ContentHash, &d.PageCount, &d.ChunkCount, &d.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup failed: %w", err)
	}
	return &d, nil
}

// DeleteDocument removes a document and, through the FK cascade, all of its
// chunks. Deleting an absent document is not an error.
func (s *PgChunkStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	s.logger.Info("Deleted document",
		slog.String("document_id", id.String()),
		slog.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

func (s *PgChunkStore) Stats(ctx context.Context) (*rag_type.CorpusStats, error) {
	var stats rag_type.CorpusStats
	err := s.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM chunks)`).
		Scan(&stats.TotalDocuments, &stats.TotalChunks)
	if err != nil {
		return nil, fmt.Errorf("failed to compute corpus stats: %w", err)
	}
	return &stats, nil
}
