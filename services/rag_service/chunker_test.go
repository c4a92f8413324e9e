package rag_service

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	c := NewChunker(500, 50)

	tests := []struct {
		name  string
		pages []PageText
	}{
		{"no pages", nil},
		{"blank pages", []PageText{{Page: 1, Text: "   \n\n  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Split(tt.pages); got != nil {
				t.Errorf("expected nil, got %d chunks", len(got))
			}
		})
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	c := NewChunker(500, 50)
	chunks := c.Split([]PageText{{Page: 1, Text: "A short paragraph."}})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "A short paragraph." {
		t.Errorf("unexpected chunk text: %q", chunks[0].Text)
	}
	if chunks[0].PageNumber != 1 {
		t.Errorf("expected page 1, got %d", chunks[0].PageNumber)
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
}

func TestSplitCoversAllText(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 30)
	chunks := c.Split([]PageText{{Page: 1, Text: text}})

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Consecutive chunks overlap, so their combined length must cover the
	// full cleaned text.
	total := 0
	for _, ch := range chunks {
		total += len(ch.Text)
	}
	cleaned := cleanText(text)
	if total < len(cleaned) {
		t.Errorf("chunks cover %d chars, cleaned text has %d", total, len(cleaned))
	}
}

func TestSplitNeverSplitsWords(t *testing.T) {
	c := NewChunker(50, 10)
	text := strings.Repeat("alpha beta gamma delta epsilon ", 20)
	chunks := c.Split([]PageText{{Page: 1, Text: text}})

	words := map[string]bool{"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true}
	for i, ch := range chunks {
		for _, w := range strings.Fields(ch.Text) {
			if !words[w] {
				t.Errorf("chunk %d contains split word %q", i, w)
			}
		}
	}
}

func TestSplitPositionsAreSequential(t *testing.T) {
	c := NewChunker(80, 10)
	text := strings.Repeat("words words words words words ", 20)
	chunks := c.Split([]PageText{{Page: 1, Text: text}})

	for i, ch := range chunks {
		if ch.Position != i {
			t.Errorf("chunk %d has position %d", i, ch.Position)
		}
	}
}

func TestSplitTracksPageNumbers(t *testing.T) {
	c := NewChunker(500, 50)
	chunks := c.Split([]PageText{
		{Page: 1, Text: strings.Repeat("first page content. ", 30)},
		{Page: 2, Text: strings.Repeat("second page content. ", 30)},
	})

	if len(chunks) < 2 {
		t.Fatalf("expected chunks spanning both pages, got %d", len(chunks))
	}
	if chunks[0].PageNumber != 1 {
		t.Errorf("expected first chunk on page 1, got %d", chunks[0].PageNumber)
	}
	last := chunks[len(chunks)-1]
	if last.PageNumber != 2 {
		t.Errorf("expected last chunk on page 2, got %d", last.PageNumber)
	}
}

func TestNewChunkerClampsInvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		overlap     int
		wantSize    int
		wantOverlap int
	}{
		{"zero size", 0, 10, 500, 10},
		{"negative overlap", 100, -5, 100, 0},
		{"overlap at size", 100, 100, 100, 10},
		{"overlap above size", 100, 150, 100, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChunker(tt.size, tt.overlap)
			if c.size != tt.wantSize || c.overlap != tt.wantOverlap {
				t.Errorf("got size=%d overlap=%d, want size=%d overlap=%d",
					c.size, c.overlap, tt.wantSize, tt.wantOverlap)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "a   b    c", "a b c"},
		{"collapses newlines", "a\n\n\n\n\nb", "a\n\nb"},
		{"strips null bytes", "a\x00b", "ab"},
		{"trims", "  hello  ", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.in); got != tt.want {
				t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
