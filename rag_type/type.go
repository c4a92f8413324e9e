package rag_type

import (
	"time"

	"github.com/google/uuid"
)

// Document is the record created for each successfully ingested file. Its
// chunks are owned exclusively by the document and removed with it.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ByteSize    int64     `json:"byte_size"`
	ContentHash string    `json:"content_hash"`
	PageCount   int       `json:"page_count"`
	ChunkCount  int       `json:"chunk_count"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// RetrievalHit is one scored chunk returned from similarity search. Scores
// are cosine similarity normalized to [0,1]. Hits are transient and never
// persisted.
type RetrievalHit struct {
	ChunkID      uuid.UUID `json:"chunk_id"`
	DocumentID   uuid.UUID `json:"document_id"`
	DocumentName string    `json:"document_name"`
	PageNumber   int       `json:"page_number"`
	Text         string    `json:"text"`
	Score        float64   `json:"score"`
}

// QueryRequest is the body of POST /query. An empty DocumentIDs slice means
// "search all documents".
type QueryRequest struct {
	Question       string      `json:"question"`
	DocumentIDs    []uuid.UUID `json:"document_ids,omitempty"`
	ConversationID string      `json:"conversation_id,omitempty"`
}

// Source cites one chunk used to build an answer. Sources preserve
// retrieval rank order.
type Source struct {
	ChunkID      uuid.UUID `json:"chunk_id"`
	DocumentID   uuid.UUID `json:"document_id"`
	DocumentName string    `json:"document_name"`
	PageNumber   int       `json:"page_number"`
	Score        float64   `json:"score"`
	Excerpt      string    `json:"excerpt"`
}

type AnswerResponse struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	ConversationID string   `json:"conversation_id"`
	ModelUsed      string   `json:"model_used"`
	ChunksUsed     int      `json:"chunks_used"`
}

// PromptTemplate is one immutable version of a keyed instruction template.
// At most one version per template key is active at any time.
type PromptTemplate struct {
	ID          int64     `json:"id"`
	TemplateKey string    `json:"template_key"`
	Version     int       `json:"version"`
	Content     string    `json:"content"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// LLMRequestLog is the append-only record of one LLM invocation, written for
// successes and failures alike. Rows are never mutated after insert.
type LLMRequestLog struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Model            string    `json:"model"`
	Question         string    `json:"question,omitempty"`
	ConversationID   string    `json:"conversation_id,omitempty"`
	PromptText       string    `json:"prompt_text,omitempty"`
	ResponseText     string    `json:"response_text,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	LatencyMs        float64   `json:"latency_ms"`
	CostUSD          float64   `json:"cost_usd"`
	Success          bool      `json:"success"`
	ErrorDetail      string    `json:"error_detail,omitempty"`
}

// MetricsSummary aggregates request logs over a caller-specified window.
// It is derived on demand, never stored.
type MetricsSummary struct {
	WindowHours      int           `json:"window_hours"`
	TotalQueries     int           `json:"total_queries"`
	PromptTokens     int64         `json:"prompt_tokens"`
	CompletionTokens int64         `json:"completion_tokens"`
	TotalTokens      int64         `json:"total_tokens"`
	TotalCostUSD     float64       `json:"total_cost_usd"`
	AverageLatencyMs float64       `json:"average_latency_ms"`
	SuccessCount     int           `json:"success_count"`
	FailureCount     int           `json:"failure_count"`
	Trends           []TrendBucket `json:"trends"`
}

// TrendBucket holds the per-calendar-date aggregates inside a metrics window.
type TrendBucket struct {
	Date             string  `json:"date"`
	Queries          int     `json:"queries"`
	Tokens           int64   `json:"tokens"`
	CostUSD          float64 `json:"cost_usd"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
}

type CorpusStats struct {
	TotalDocuments int `json:"total_documents"`
	TotalChunks    int `json:"total_chunks"`
}
