package rag_service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lcabral/docqa/conversation"
	"github.com/lcabral/docqa/rag_type"
	"github.com/lcabral/docqa/services/observability_service"
)

const (
	// DefaultQATemplateKey is the prompt registry key the engine resolves
	// before every answer.
	DefaultQATemplateKey = "rag_qa_system_prompt"

	// NoContentAnswer is the successful-empty answer returned when retrieval
	// finds nothing. It is not an error condition.
	NoContentAnswer = "I couldn't find any relevant information in the uploaded documents to answer this question."

	sourceExcerptLength = 200
)

// DefaultQATemplate is the built-in fallback when no active template exists
// for the QA key. {context} is replaced with the retrieved chunks.
const DefaultQATemplate = `You are a helpful AI assistant that answers questions based on the provided context from documents.

IMPORTANT RULES:
1. Answer ONLY based on the context provided
2. If the context doesn't contain the answer, say "I cannot find this information in the provided documents"
3. Be concise but comprehensive
4. Cite specific parts of the context when relevant
5. If you're uncertain, express your uncertainty
6. Use a professional but friendly tone

Context from documents:
{context}

Remember: Only use information from the context above. Do not use your general knowledge.`

// PromptSource resolves the active prompt template for a key. The engine
// falls back to DefaultQATemplate when the source has none.
type PromptSource interface {
	GetActive(ctx context.Context, templateKey string) (*rag_type.PromptTemplate, error)
}

// Generator is the instrumented LLM entry point (the inference gateway).
type Generator interface {
	Invoke(ctx context.Context, promptText, model, question, conversationID string) (string, error)
}

type EngineConfig struct {
	Model            string
	TopK             int
	MaxFileSizeBytes int64
	MaxContextChars  int
}

// Engine coordinates the two top-level use cases: ingestion
// (extract, chunk, embed, store) and answering (retrieve, assemble prompt,
// invoke, cite).
type Engine struct {
	store         ChunkStore
	embedder      EmbeddingService
	generator     Generator
	prompts       PromptSource
	conversations *conversation.Store
	extractor     *DocumentExtractor
	chunker       *Chunker
	logger        *slog.Logger
	cfg           EngineConfig
}

func NewEngine(store ChunkStore, embedder EmbeddingService, generator Generator,
	prompts PromptSource, conversations *conversation.Store,
	chunker *Chunker, logger *slog.Logger, cfg EngineConfig) *Engine {
	if cfg.TopK < 1 {
		cfg.TopK = 5
	}
	return &Engine{
		store:         store,
		embedder:      embedder,
		generator:     generator,
		prompts:       prompts,
		conversations: conversations,
		extractor:     NewDocumentExtractor(logger),
		chunker:       chunker,
		logger:        logger,
		cfg:           cfg,
	}
}

// Ingest runs the full document pipeline: validate, extract, chunk, embed,
// store. Nothing is persisted unless every step succeeds.
func (e *Engine) Ingest(ctx context.Context, content []byte, filename string) (*rag_type.Document, error) {
	if e.cfg.MaxFileSizeBytes > 0 && int64(len(content)) > e.cfg.MaxFileSizeBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)",
			ErrFileTooLarge, len(content), e.cfg.MaxFileSizeBytes)
	}

	hash := sha256.Sum256(content)
	contentHash := hex.EncodeToString(hash[:])

	existing, err := e.store.FindDuplicate(ctx, contentHash, filename)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		e.logger.Warn("Duplicate document detected",
			slog.String("filename", filename),
			slog.String("existing_document_id", existing.ID.String()))
		return nil, fmt.Errorf("%w: content matches existing document %q",
			ErrDuplicateDocument, existing.Filename)
	}

	pages, err := e.extractor.Extract(filename, content)
	if err != nil {
		return nil, err
	}

	textChunks := e.chunker.Split(pages)
	if len(textChunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoExtractableText, filename)
	}

	chunks := make([]ChunkInput, 0, len(textChunks))
	for _, tc := range textChunks {
		embedding, _, err := e.embedder.Embed(ctx, tc.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", tc.Position, err)
		}
		chunks = append(chunks, ChunkInput{
			Text:       tc.Text,
			PageNumber: tc.PageNumber,
			Embedding:  embedding,
		})
	}

	pageCount := 0
	for _, p := range pages {
		if p.Page > pageCount {
			pageCount = p.Page
		}
	}

	doc := &rag_type.Document{
		ID:          uuid.New(),
		Filename:    filename,
		ByteSize:    int64(len(content)),
		ContentHash: contentHash,
		PageCount:   pageCount,
		UploadedAt:  time.Now().UTC(),
	}

	if err := e.store.IngestDocument(ctx, doc, chunks); err != nil {
		return nil, err
	}

	e.logger.Info("Document ingested",
		slog.String("document_id", doc.ID.String()),
		slog.String("filename", filename),
		slog.Int("chunk_count", doc.ChunkCount),
		slog.Int("page_count", pageCount))

	return doc, nil
}

// Answer runs the retrieval-augmented answer pipeline for one question.
// Zero retrieval hits yields a successful empty answer; a failed LLM call
// propagates the GenerationError unchanged after being logged by the gateway.
func (e *Engine) Answer(ctx context.Context, req rag_type.QueryRequest) (*rag_type.AnswerResponse, error) {
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = "conv_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	}

	queryEmbedding, _, err := e.embedder.Embed(ctx, req.Question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := e.store.Search(ctx, queryEmbedding, req.DocumentIDs, e.cfg.TopK)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		return &rag_type.AnswerResponse{
			Answer:         NoContentAnswer,
			Sources:        []rag_type.Source{},
			ConversationID: conversationID,
			ModelUsed:      e.cfg.Model,
		}, nil
	}

	template := DefaultQATemplate
	tpl, err := e.prompts.GetActive(ctx, DefaultQATemplateKey)
	if err == nil {
		template = tpl.Content
	} else if !errors.Is(err, observability_service.ErrTemplateNotFound) {
		e.logger.Warn("Falling back to built-in QA template",
			slog.String("error", err.Error()))
	}

	historyText := e.renderHistory(conversationID)
	used := e.fitContextBudget(template, req.Question, historyText, hits)
	prompt := renderPrompt(template, req.Question, historyText, used)

	answer, err := e.generator.Invoke(ctx, prompt, e.cfg.Model, req.Question, conversationID)
	if err != nil {
		return nil, err
	}

	e.conversations.Append(conversationID, req.Question, answer)

	sources := make([]rag_type.Source, 0, len(used))
	for _, hit := range used {
		sources = append(sources, rag_type.Source{
			ChunkID:      hit.ChunkID,
			DocumentID:   hit.DocumentID,
			DocumentName: hit.DocumentName,
			PageNumber:   hit.PageNumber,
			Score:        hit.Score,
			Excerpt:      excerpt(hit.Text),
		})
	}

	return &rag_type.AnswerResponse{
		Answer:         answer,
		Sources:        sources,
		ConversationID: conversationID,
		ModelUsed:      e.cfg.Model,
		ChunksUsed:     len(used),
	}, nil
}

// fitContextBudget drops the lowest-scoring hits until the full rendered
// prompt (template, conversation history, question, context) fits the
// configured maximum, always keeping at least one chunk.
func (e *Engine) fitContextBudget(template, question, historyText string, hits []rag_type.RetrievalHit) []rag_type.RetrievalHit {
	if e.cfg.MaxContextChars <= 0 {
		return hits
	}

	overhead := len(template) + len(question) + len(historyText)
	used := hits
	for len(used) > 1 && overhead+len(buildContext(used)) > e.cfg.MaxContextChars {
		dropped := used[len(used)-1]
		e.logger.Debug("Dropping lowest-scoring chunk to fit context budget",
			slog.String("chunk_id", dropped.ChunkID.String()),
			slog.Float64("score", dropped.Score))
		used = used[:len(used)-1]
	}
	return used
}

// renderHistory formats the conversation's prior exchanges for inclusion in
// the prompt. Empty for a fresh conversation.
func (e *Engine) renderHistory(conversationID string) string {
	history := e.conversations.History(conversationID)
	if len(history) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nConversation so far:\n")
	for _, msg := range history {
		switch msg.Role {
		case "user":
			b.WriteString("User: ")
		case "assistant":
			b.WriteString("Assistant: ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func renderPrompt(template, question, historyText string, hits []rag_type.RetrievalHit) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(template, "{context}", buildContext(hits)))
	b.WriteString(historyText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// buildContext formats retrieved chunks as numbered, citable source blocks.
func buildContext(hits []rag_type.RetrievalHit) string {
	var parts []string
	for i, hit := range hits {
		header := fmt.Sprintf("[Source %d - %s", i+1, hit.DocumentName)
		if hit.PageNumber > 0 {
			header += fmt.Sprintf(", Page %d", hit.PageNumber)
		}
		header += "]"
		parts = append(parts, header+"\n"+hit.Text+"\n")
	}
	return strings.Join(parts, "\n")
}

// excerpt truncates text to the excerpt length, backing up to a rune
// boundary so multibyte content never yields invalid UTF-8.
func excerpt(text string) string {
	if len(text) <= sourceExcerptLength {
		return text
	}
	cut := sourceExcerptLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func (e *Engine) ListDocuments(ctx context.Context) ([]rag_type.Document, error) {
	return e.store.ListDocuments(ctx)
}

func (e *Engine) GetDocument(ctx context.Context, id uuid.UUID) (*rag_type.Document, error) {
	return e.store.GetDocument(ctx, id)
}

func (e *Engine) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return e.store.DeleteDocument(ctx, id)
}

func (e *Engine) Stats(ctx context.Context) (*rag_type.CorpusStats, error) {
	return e.store.Stats(ctx)
}
