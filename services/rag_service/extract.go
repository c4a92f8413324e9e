package rag_service

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// PageText is the text of one page of a source document. Formats without a
// page concept use a single entry with Page set to 0.
type PageText struct {
	Page int
	Text string
}

type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	return &DocumentExtractor{
		logger: logger,
	}
}

// Extract dispatches on file extension and returns page-tagged text.
func (e *DocumentExtractor) Extract(filename string, data []byte) ([]PageText, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return e.ExtractPDF(data)
	case ".doc", ".docx":
		return e.ExtractWord(data)
	case ".html", ".htm":
		return e.ExtractHTML(data)
	case ".txt", ".md":
		return e.ExtractPlainText(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
}

func (e *DocumentExtractor) ExtractPDF(data []byte) ([]PageText, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Error("Failed to create PDF reader",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return nil, fmt.Errorf("failed to create PDF reader: %v", err)
	}

	totalPage := reader.NumPage()
	e.logger.Debug("Starting PDF text extraction",
		slog.Int("total_pages", totalPage))

	var pages []PageText
	var totalLength int
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Error("Failed to extract text from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to extract text from page %d: %v", pageIndex, err)
		}

		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, PageText{Page: pageIndex, Text: text})
		totalLength += len(text)
	}

	if totalLength == 0 {
		e.logger.Error("No text extracted from PDF",
			slog.Int("total_pages", totalPage))
		return nil, fmt.Errorf("%w: PDF", ErrNoExtractableText)
	}

	e.logger.Info("Successfully extracted text from PDF",
		slog.Int("total_pages", totalPage),
		slog.Int("total_text_length", totalLength))

	return pages, nil
}

func (e *DocumentExtractor) ExtractWord(data []byte) ([]PageText, error) {
	e.logger.Debug("Starting Word document text extraction",
		slog.Int("data_size", len(data)))

	mimeType := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return nil, fmt.Errorf("failed to convert Word document: %v", err)
	}

	if strings.TrimSpace(result.Body) == "" {
		e.logger.Error("No text extracted from Word document")
		return nil, fmt.Errorf("%w: Word document", ErrNoExtractableText)
	}

	e.logger.Info("Successfully extracted text from Word document",
		slog.Int("text_length", len(result.Body)))

	return []PageText{{Page: 0, Text: result.Body}}, nil
}

func (e *DocumentExtractor) ExtractHTML(data []byte) ([]PageText, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML document: %v", err)
	}

	doc.Find("script, style, noscript").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: HTML document", ErrNoExtractableText)
	}

	e.logger.Info("Successfully extracted text from HTML document",
		slog.Int("text_length", len(text)))

	return []PageText{{Page: 0, Text: text}}, nil
}

func (e *DocumentExtractor) ExtractPlainText(data []byte) ([]PageText, error) {
	text := strings.ReplaceAll(string(data), "\x00", "")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: plain text file", ErrNoExtractableText)
	}
	return []PageText{{Page: 0, Text: text}}, nil
}
