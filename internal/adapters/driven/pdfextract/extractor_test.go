package pdfextract

import (
	"context"
	"errors"
	"testing"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

func TestSupports(t *testing.T) {
	e := NewExtractor()
	cases := map[string]bool{
		"notes.pdf":     true,
		"NOTES.PDF":     true,
		"readme.md":     true,
		"lecture.txt":   true,
		"doc.markdown":  true,
		"slides.pptx":   false,
		"archive.zip":   false,
		"noextension":   false,
		"image.pdf.png": false,
	}
	for filename, want := range cases {
		if got := e.Supports(filename); got != want {
			t.Errorf("Supports(%q) = %v, want %v", filename, got, want)
		}
	}
}

func TestExtract_PlainText(t *testing.T) {
	e := NewExtractor()
	pages, err := e.Extract(context.Background(), "notes.txt", []byte("  hello world  \n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[0].Text != "hello world" {
		t.Errorf("unexpected page: %+v", pages[0])
	}
}

func TestExtract_EmptyPlainText(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract(context.Background(), "empty.txt", []byte("   \n  "))
	var extractionErr *domain.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestExtract_UnsupportedType(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract(context.Background(), "deck.pptx", []byte("data"))
	var extractionErr *domain.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestExtract_MalformedPDF(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract(context.Background(), "broken.pdf", []byte("not a pdf at all"))
	var extractionErr *domain.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}
