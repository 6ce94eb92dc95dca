// Package pdfextract extracts page text from uploaded files. PDFs go
// through ledongthuc/pdf; plain-text formats are read as a single page.
package pdfextract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

var _ driven.TextExtractor = (*Extractor)(nil)

// plainTextExtensions are read verbatim as a one-page document.
var plainTextExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Extractor converts uploaded file bytes into per-page text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supports reports whether the file's extension has an extraction path.
func (e *Extractor) Supports(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".pdf" || plainTextExtensions[ext]
}

// Extract returns the document's pages in order. PDF pages that cannot
// be decoded yield an empty page rather than failing the document; a
// document with no extractable text at all fails.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) ([]domain.Page, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return e.extractPDF(filename, data)
	case plainTextExtensions[ext]:
		return e.extractPlainText(filename, data)
	default:
		return nil, &domain.ExtractionError{
			Filename: filename,
			Err:      fmt.Errorf("unsupported file type %q", ext),
		}
	}
}

func (e *Extractor) extractPlainText(filename string, data []byte) ([]domain.Page, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, &domain.ExtractionError{
			Filename: filename,
			Err:      fmt.Errorf("file is empty"),
		}
	}
	return []domain.Page{{Number: 1, Text: text}}, nil
}

func (e *Extractor) extractPDF(filename string, data []byte) (pages []domain.Page, err error) {
	// the pdf library panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &domain.ExtractionError{
				Filename: filename,
				Err:      fmt.Errorf("parsing PDF: %v", r),
			}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &domain.ExtractionError{
			Filename: filename,
			Err:      fmt.Errorf("parsing PDF: %w", err),
		}
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, &domain.ExtractionError{
			Filename: filename,
			Err:      fmt.Errorf("PDF has no pages"),
		}
	}

	pages = make([]domain.Page, 0, total)
	extractedAny := false
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			if content, err := page.GetPlainText(nil); err == nil {
				text = strings.TrimSpace(content)
			}
		}
		if text != "" {
			extractedAny = true
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}

	if !extractedAny {
		return nil, &domain.ExtractionError{
			Filename: filename,
			Err:      fmt.Errorf("no extractable text in %d pages", total),
		}
	}
	return pages, nil
}
