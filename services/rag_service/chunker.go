package rag_service

import (
	"regexp"
	"strings"
)

// TextChunk is one bounded span of a document's text, ready for embedding.
// Position is the chunk's ordinal within the document.
type TextChunk struct {
	Text       string
	PageNumber int
	Position   int
}

// Chunker splits extracted text into overlapping chunks. Cuts prefer word
// and sentence boundaries; the overlap preserves context across chunks.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size < 1 {
		size = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 10
	}
	return &Chunker{size: size, overlap: overlap}
}

var (
	multiSpaceRe   = regexp.MustCompile(` +`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

func cleanText(text string) string {
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimSpace(text)
}

type pageSpan struct {
	start int
	end   int
	page  int
}

// Split chunks the given pages, tagging each chunk with the page its start
// offset falls on.
func (c *Chunker) Split(pages []PageText) []TextChunk {
	var builder strings.Builder
	var spans []pageSpan
	for _, p := range pages {
		cleaned := cleanText(p.Text)
		if cleaned == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		start := builder.Len()
		builder.WriteString(cleaned)
		spans = append(spans, pageSpan{start: start, end: builder.Len(), page: p.Page})
	}

	text := builder.String()
	if text == "" {
		return nil
	}

	var chunks []TextChunk
	start := 0
	for start < len(text) {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		} else {
			// Extend to the next boundary so words are never split
			for end < len(text) && !isBoundary(text[end]) {
				end++
			}
		}

		chunkText := strings.TrimSpace(text[start:end])
		if chunkText != "" {
			chunks = append(chunks, TextChunk{
				Text:       chunkText,
				PageNumber: pageFor(spans, start),
				Position:   len(chunks),
			})
		}

		if end >= len(text) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func isBoundary(b byte) bool {
	switch b {
	case ' ', '\n', '.', '!', '?':
		return true
	}
	return false
}

func pageFor(spans []pageSpan, offset int) int {
	for _, s := range spans {
		if offset >= s.start && offset < s.end {
			return s.page
		}
	}
	if len(spans) > 0 {
		return spans[len(spans)-1].page
	}
	return 0
}
