package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

var (
	// citationPattern matches inline citations like "Source: [notes.pdf, p.5]"
	citationPattern = regexp.MustCompile(`Source:\s*\[([^,\]]+),\s*p\.(\d+)\]`)

	// flashcardPattern captures Q/A pairs between flashcard markers
	flashcardPattern = regexp.MustCompile(`(?s)FLASHCARD_START\s*Q:\s*(.+?)\s*A:\s*(.+?)\s*FLASHCARD_END`)
)

// ProcessedAnswer is a generated answer after post-processing.
type ProcessedAnswer struct {
	// Answer is the cleaned text shown to the user
	Answer string

	// Citations are the inline references actually present in the text,
	// deduplicated in order of first appearance
	Citations []domain.Citation

	// Flashcards are the Q/A pairs extracted from study-mode markers
	Flashcards []domain.Flashcard
}

// processAnswer extracts citations and flashcards from raw model output.
// Inline citations only count if they match a retrieved source; the model
// cannot mint references to documents it was not shown.
func processAnswer(raw string, retrieved []domain.Citation) ProcessedAnswer {
	flashcards := extractFlashcards(raw)
	answer := stripFlashcardBlocks(raw)

	return ProcessedAnswer{
		Answer:     answer,
		Citations:  extractCitations(answer, retrieved),
		Flashcards: flashcards,
	}
}

// extractCitations returns the retrieved citations the answer actually
// references, keeping first-appearance order and dropping duplicates.
func extractCitations(answer string, retrieved []domain.Citation) []domain.Citation {
	matches := citationPattern.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return nil
	}

	byKey := make(map[string]domain.Citation, len(retrieved))
	for _, c := range retrieved {
		byKey[citationKey(c.Document, c.Page)] = c
	}

	var out []domain.Citation
	seen := make(map[string]bool)
	for _, m := range matches {
		document := strings.TrimSpace(m[1])
		page, _ := strconv.Atoi(m[2])
		key := citationKey(document, page)
		if seen[key] {
			continue
		}
		seen[key] = true

		if c, ok := byKey[key]; ok {
			out = append(out, c)
			continue
		}
		// Cited document was retrieved but page differs from the chunk
		// anchor; keep it without a snippet rather than dropping it
		if documentRetrieved(retrieved, document) {
			out = append(out, domain.Citation{Document: document, Page: page})
		}
	}
	return out
}

func documentRetrieved(retrieved []domain.Citation, document string) bool {
	for _, c := range retrieved {
		if c.Document == document {
			return true
		}
	}
	return false
}

func citationKey(document string, page int) string {
	return document + "|" + strconv.Itoa(page)
}

// extractFlashcards pulls Q/A pairs out of marker blocks
func extractFlashcards(raw string) []domain.Flashcard {
	matches := flashcardPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	cards := make([]domain.Flashcard, 0, len(matches))
	for _, m := range matches {
		q := strings.TrimSpace(m[1])
		a := strings.TrimSpace(m[2])
		if q == "" || a == "" {
			continue
		}
		cards = append(cards, domain.Flashcard{Question: q, Answer: a})
	}
	return cards
}

// stripFlashcardBlocks removes marker blocks and tidies leftover spacing
func stripFlashcardBlocks(raw string) string {
	cleaned := flashcardPattern.ReplaceAllString(raw, "")
	for strings.Contains(cleaned, "\n\n\n") {
		cleaned = strings.ReplaceAll(cleaned, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(cleaned)
}
