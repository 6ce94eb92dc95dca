package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// AssemblerConfig bounds the retrieved context fed into the prompt.
type AssemblerConfig struct {
	// MaxContextChars is the character budget for corpus context
	MaxContextChars int

	// MaxWebChars is the character budget for web snippets
	MaxWebChars int
}

// DefaultAssemblerConfig returns the assembler defaults.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		MaxContextChars: 8000,
		MaxWebChars:     3000,
	}
}

// AssembledContext is the prompt-ready context block with the citations
// that back it.
type AssembledContext struct {
	CorpusBlock string
	WebBlock    string
	Citations   []domain.Citation
}

// contextAssembler turns retrieval hits into a bounded, source-anchored
// context block. Chunks are kept or dropped whole; a truncated chunk
// would invite citations to text the model never saw.
type contextAssembler struct {
	config AssemblerConfig
}

func newContextAssembler(config AssemblerConfig) *contextAssembler {
	if config.MaxContextChars <= 0 {
		config = DefaultAssemblerConfig()
	}
	return &contextAssembler{config: config}
}

// Assemble builds the context block from ranked chunks and optional web
// results. Duplicate and overlapping spans of the same document collapse
// to the higher-scored one, and the budget keeps chunks best-first until
// one does not fit.
func (a *contextAssembler) Assemble(matches []domain.RankedChunk, web []domain.WebResult) AssembledContext {
	kept := dedupeMatches(matches)

	// Budget by score: sort descending, keep whole chunks until full
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	var budgeted []domain.RankedChunk
	used := 0
	for _, m := range kept {
		cost := len(m.Chunk.Text)
		// Stop at the first chunk that does not fit; skipping it and
		// taking a later, lower-scored one would invert the ranking
		if used+cost > a.config.MaxContextChars && len(budgeted) > 0 {
			break
		}
		budgeted = append(budgeted, m)
		used += cost
	}

	// Present chunks grouped by document, in document order, so the
	// model sees coherent passages
	sort.SliceStable(budgeted, func(i, j int) bool {
		if budgeted[i].Chunk.DocumentID != budgeted[j].Chunk.DocumentID {
			return budgeted[i].Chunk.DocumentID < budgeted[j].Chunk.DocumentID
		}
		return budgeted[i].Chunk.Index < budgeted[j].Chunk.Index
	})

	var sb strings.Builder
	citations := make([]domain.Citation, 0, len(budgeted))
	for _, m := range budgeted {
		meta := m.Chunk
		anchor := sourceAnchor(metaDocument(meta), meta.Page)
		fmt.Fprintf(&sb, "%s\n%s\n\n", anchor, meta.Text)
		citations = append(citations, domain.Citation{
			Document: metaDocument(meta),
			Page:     meta.Page,
			Score:    m.Score,
			Snippet:  snippet(meta.Text, 160),
		})
	}

	return AssembledContext{
		CorpusBlock: strings.TrimSpace(sb.String()),
		WebBlock:    a.assembleWeb(web),
		Citations:   citations,
	}
}

func (a *contextAssembler) assembleWeb(web []domain.WebResult) string {
	if len(web) == 0 {
		return ""
	}
	var sb strings.Builder
	used := 0
	for _, r := range web {
		entry := fmt.Sprintf("[Web: %s] (%s)\n%s\n\n", r.Title, r.URL, r.Content)
		if used+len(entry) > a.config.MaxWebChars && used > 0 {
			break
		}
		sb.WriteString(entry)
		used += len(entry)
	}
	return strings.TrimSpace(sb.String())
}

// dedupeMatches collapses exact key duplicates and overlapping spans of
// the same document, keeping the higher-scored match.
func dedupeMatches(matches []domain.RankedChunk) []domain.RankedChunk {
	var kept []domain.RankedChunk
	seen := make(map[string]bool, len(matches))

	// Process best-first so overlaps resolve toward the higher score
	ordered := make([]domain.RankedChunk, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Score > ordered[j].Score })

	for _, m := range ordered {
		if m.Chunk == nil {
			continue
		}
		key := m.Chunk.VectorKey()
		if seen[key] {
			continue
		}
		overlapped := false
		for _, k := range kept {
			if k.Chunk.DocumentID == m.Chunk.DocumentID && spansOverlap(k.Chunk, m.Chunk) {
				overlapped = true
				break
			}
		}
		if overlapped {
			continue
		}
		seen[key] = true
		kept = append(kept, m)
	}
	return kept
}

// spansOverlap reports whether two chunks of the same document share more
// than half of the smaller span. Sliding-window overlap below that is
// expected and fine.
func spansOverlap(a, b *domain.Chunk) bool {
	lo := maxInt(a.StartChar, b.StartChar)
	hi := minInt(a.EndChar, b.EndChar)
	if hi <= lo {
		return false
	}
	smaller := minInt(a.EndChar-a.StartChar, b.EndChar-b.StartChar)
	if smaller <= 0 {
		return false
	}
	return float64(hi-lo) > 0.5*float64(smaller)
}

// sourceAnchor formats the inline source tag the model is told to cite
func sourceAnchor(document string, page int) string {
	if page > 0 {
		return fmt.Sprintf("[%s, p.%d]", document, page)
	}
	return fmt.Sprintf("[%s]", document)
}

// metaDocument returns the human-readable document name for a chunk. The
// chunk carries the filename in its ID metadata path; fall back to the
// document id when absent.
func metaDocument(c *domain.Chunk) string {
	if c.Filename != "" {
		return c.Filename
	}
	return c.DocumentID
}

func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
