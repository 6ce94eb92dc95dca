package chunking

import (
	"strings"
	"testing"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

func testDoc() *domain.Document {
	return &domain.Document{
		ID:         "doc_abc123def456",
		UserID:     "user-1",
		Filename:   "notes.pdf",
		Collection: domain.CollectionMain,
	}
}

func TestChunk_EmptyPages(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	chunks := p.Chunk(testDoc(), nil)
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}

	chunks = p.Chunk(testDoc(), []domain.Page{{Number: 1, Text: "   \n\n  "}})
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace-only page, got %d", len(chunks))
	}
}

func TestChunk_SmallDocument(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	text := "Photosynthesis converts light energy into chemical energy."

	chunks := p.Chunk(testDoc(), []domain.Page{{Number: 1, Text: text}})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("expected %q, got %q", text, chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
	if chunks[0].Page != 1 {
		t.Errorf("expected page 1, got %d", chunks[0].Page)
	}
	if chunks[0].ID != "doc_abc123def456_chunk_0" {
		t.Errorf("unexpected chunk id %q", chunks[0].ID)
	}
}

func TestChunk_LargeDocumentOverlaps(t *testing.T) {
	config := Config{ChunkSize: 100, Overlap: 20, MinChunkChars: 5}
	p := NewPipeline(config)

	content := strings.Repeat("a", 250)
	chunks := p.Chunk(testDoc(), []domain.Page{{Number: 1, Text: content}})

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		overlap := chunks[i-1].EndChar - chunks[i].StartChar
		if overlap != config.Overlap {
			t.Errorf("chunk %d: expected overlap %d, got %d", i, config.Overlap, overlap)
		}
	}

	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("expected index %d, got %d", i, chunk.Index)
		}
		if len(chunk.Text) > config.ChunkSize {
			t.Errorf("chunk %d exceeds size limit: %d", i, len(chunk.Text))
		}
	}
}

func TestChunk_BreaksAtSentences(t *testing.T) {
	config := Config{ChunkSize: 80, Overlap: 10, MinChunkChars: 5, PreserveSentences: true}
	p := NewPipeline(config)

	text := "First sentence here. Second sentence follows after. Third sentence continues on. Fourth one ends the text."
	chunks := p.Chunk(testDoc(), []domain.Page{{Number: 1, Text: text}})

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// First break should land after a sentence ending, not mid-word
	if !strings.HasSuffix(strings.TrimSpace(chunks[0].Text), ".") {
		t.Errorf("expected first chunk to end at a sentence, got %q", chunks[0].Text)
	}
}

func TestChunk_PageAttribution(t *testing.T) {
	p := NewPipeline(Config{ChunkSize: 500, Overlap: 50, MinChunkChars: 5})

	pages := []domain.Page{
		{Number: 1, Text: strings.Repeat("alpha beta gamma. ", 20)},
		{Number: 2, Text: strings.Repeat("delta epsilon zeta. ", 20)},
		{Number: 3, Text: strings.Repeat("eta theta iota. ", 20)},
	}
	chunks := p.Chunk(testDoc(), pages)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Page != 1 {
		t.Errorf("expected first chunk on page 1, got %d", chunks[0].Page)
	}
	last := chunks[len(chunks)-1]
	if last.Page != 3 {
		t.Errorf("expected last chunk on page 3, got %d", last.Page)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Page < chunks[i-1].Page {
			t.Errorf("page numbers went backwards at chunk %d", i)
		}
	}
}

func TestChunk_DropsTinyFragments(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	chunks := p.Chunk(testDoc(), []domain.Page{{Number: 1, Text: "ok."}})
	if len(chunks) != 0 {
		t.Fatalf("expected tiny fragment to be dropped, got %d chunks", len(chunks))
	}
}

func TestChunk_DeduplicatesRepeatedSpans(t *testing.T) {
	config := Config{ChunkSize: 50, Overlap: 0, MinChunkChars: 5}
	p := NewPipeline(config)

	line := strings.Repeat("repeated boilerplate line of text here now", 1)
	pages := []domain.Page{
		{Number: 1, Text: line},
		{Number: 2, Text: line},
	}
	// Each page normalizes to the same text; identical spans collapse
	chunks := p.Chunk(testDoc(), pages)
	seen := make(map[string]bool)
	for _, c := range chunks {
		key := strings.ToLower(strings.TrimSpace(c.Text))
		if seen[key] {
			t.Errorf("duplicate chunk text survived: %q", c.Text)
		}
		seen[key] = true
	}
}

func TestChunk_IndicesAreContiguousAfterFiltering(t *testing.T) {
	config := Config{ChunkSize: 60, Overlap: 10, MinChunkChars: 10}
	p := NewPipeline(config)

	text := strings.Repeat("meaningful sentence with enough characters. ", 10)
	chunks := p.Chunk(testDoc(), []domain.Page{{Number: 1, Text: text}})

	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("expected contiguous indices, chunk %d has index %d", i, chunk.Index)
		}
		if chunk.VectorKey() != domain.ChunkVectorKey(chunk.DocumentID, i) {
			t.Errorf("vector key mismatch for chunk %d", i)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	in := "Line one.\r\nLine   two.\r\r\n\n\nLine three.  "
	want := "Line one.\nLine two.\n\nLine three."
	if got := NormalizeText(in); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNewPipeline_SanitizesConfig(t *testing.T) {
	p := NewPipeline(Config{ChunkSize: 100, Overlap: 200, MinChunkChars: 5})
	if p.config.Overlap >= p.config.ChunkSize {
		t.Errorf("overlap %d not reduced below chunk size %d", p.config.Overlap, p.config.ChunkSize)
	}

	p = NewPipeline(Config{})
	if p.config.ChunkSize != 500 || p.config.Overlap != 50 {
		t.Errorf("expected defaults, got %+v", p.config)
	}
}
