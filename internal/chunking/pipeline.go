// Package chunking turns extracted document pages into the bounded,
// overlapping text chunks that get embedded and indexed. The pipeline
// normalizes whitespace, splits with a sliding window, drops fragments
// too small to carry meaning, and removes duplicate spans.
package chunking

import (
	"strings"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// Config configures the chunking pipeline.
type Config struct {
	// ChunkSize is the maximum characters per chunk
	ChunkSize int

	// Overlap is the character overlap between consecutive chunks
	Overlap int

	// MinChunkChars is the minimum non-whitespace characters a chunk
	// needs to be kept
	MinChunkChars int

	// PreserveSentences tries to break at sentence boundaries
	PreserveSentences bool
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:         500,
		Overlap:           50,
		MinChunkChars:     20,
		PreserveSentences: true,
	}
}

// Pipeline chunks a document's pages.
type Pipeline struct {
	config Config
}

// NewPipeline creates a chunking pipeline with the given config.
func NewPipeline(config Config) *Pipeline {
	if config.ChunkSize <= 0 {
		config = DefaultConfig()
	}
	if config.Overlap >= config.ChunkSize {
		config.Overlap = config.ChunkSize / 10
	}
	return &Pipeline{config: config}
}

// Chunk runs the full pipeline for one document. Offsets are relative to
// the normalized full text, and every chunk carries the page its start
// offset falls on so answers can cite a page number.
func (p *Pipeline) Chunk(doc *domain.Document, pages []domain.Page) []*domain.Chunk {
	pages = NormalizePages(pages)
	if len(pages) == 0 {
		return nil
	}

	text, pageMap := joinPages(pages)
	spans := p.split(text)
	spans = p.dropFragments(spans)
	spans = dedupe(spans)

	now := time.Now()
	chunks := make([]*domain.Chunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, &domain.Chunk{
			ID:         domain.ChunkVectorKey(doc.ID, i),
			DocumentID: doc.ID,
			UserID:     doc.UserID,
			Collection: doc.Collection,
			Filename:   doc.Filename,
			Index:      i,
			Text:       s.text,
			Page:       pageMap.pageAt(s.start),
			StartChar:  s.start,
			EndChar:    s.end,
			CreatedAt:  now,
		})
	}
	return chunks
}

// span is a candidate chunk before domain fields are attached
type span struct {
	text  string
	start int
	end   int
}

// split slides a window of ChunkSize over the text with Overlap carry,
// preferring sentence and word boundaries near the window end.
func (p *Pipeline) split(text string) []span {
	if len(text) <= p.config.ChunkSize {
		return []span{{text: text, start: 0, end: len(text)}}
	}

	var spans []span
	start := 0
	for start < len(text) {
		end := start + p.config.ChunkSize
		if end > len(text) {
			end = len(text)
		}

		if end < len(text) && p.config.PreserveSentences {
			if bp := findBreakPoint(text, start, end); bp > start {
				end = bp
			}
		}

		spans = append(spans, span{text: text[start:end], start: start, end: end})

		if end >= len(text) {
			break
		}

		// Move start with overlap, always advancing
		next := end - p.config.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return spans
}

// dropFragments removes spans without enough non-whitespace content
func (p *Pipeline) dropFragments(spans []span) []span {
	out := spans[:0]
	for _, s := range spans {
		if countNonSpace(s.text) >= p.config.MinChunkChars {
			out = append(out, s)
		}
	}
	return out
}

// dedupe removes spans whose normalized text already appeared
func dedupe(spans []span) []span {
	seen := make(map[string]bool, len(spans))
	out := spans[:0]
	for _, s := range spans {
		key := strings.ToLower(strings.TrimSpace(s.text))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// findBreakPoint searches the tail of the window for a sentence ending,
// then a word boundary. Returns maxEnd if nothing better exists.
func findBreakPoint(text string, start, maxEnd int) int {
	searchStart := maxEnd - 100
	if searchStart < start {
		searchStart = start
	}
	window := text[searchStart:maxEnd]

	if idx := strings.LastIndex(window, "\n\n"); idx != -1 {
		return searchStart + idx + 2
	}

	best := -1
	for _, ender := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if idx := strings.LastIndex(window, ender); idx != -1 {
			if pos := idx + len(ender); pos > best {
				best = pos
			}
		}
	}
	if best > 0 {
		return searchStart + best
	}

	if idx := strings.LastIndex(window, " "); idx != -1 {
		return searchStart + idx + 1
	}
	return maxEnd
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !isSpace(r) {
			n++
		}
	}
	return n
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// pageBounds maps normalized-text offsets back to page numbers
type pageBounds struct {
	starts []int // offset where each page begins
	pages  []int // page number for each entry
}

func (b pageBounds) pageAt(offset int) int {
	page := 0
	for i, s := range b.starts {
		if offset < s {
			break
		}
		page = b.pages[i]
	}
	return page
}

// joinPages concatenates page texts with a blank line separator and
// records where each page begins in the joined text.
func joinPages(pages []domain.Page) (string, pageBounds) {
	var sb strings.Builder
	bounds := pageBounds{
		starts: make([]int, 0, len(pages)),
		pages:  make([]int, 0, len(pages)),
	}
	for i, p := range pages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		bounds.starts = append(bounds.starts, sb.Len())
		bounds.pages = append(bounds.pages, p.Number)
		sb.WriteString(p.Text)
	}
	return sb.String(), bounds
}
