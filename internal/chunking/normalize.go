package chunking

import (
	"strings"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// NormalizePages cleans page text before chunking: consistent line
// endings, collapsed runs of spaces, trimmed lines, and at most one
// blank line between paragraphs. Pages left empty are dropped.
func NormalizePages(pages []domain.Page) []domain.Page {
	out := make([]domain.Page, 0, len(pages))
	for _, p := range pages {
		text := NormalizeText(p.Text)
		if text == "" {
			continue
		}
		out = append(out, domain.Page{Number: p.Number, Text: text})
	}
	return out
}

// NormalizeText normalizes whitespace in a block of extracted text.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for strings.Contains(line, "  ") {
			line = strings.ReplaceAll(line, "  ", " ")
		}
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}
