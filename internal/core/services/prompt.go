package services

import (
	"fmt"
	"strings"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// persona is the fixed system framing for every generated answer
const persona = `You are IntelliBase, a knowledgeable assistant that answers questions using the user's uploaded documents. Ground every claim in the provided context. When you use a passage, cite it inline as Source: [filename, p.N] matching the anchors in the context. If the context does not cover the question, say so instead of guessing.`

// modeDirectives shape tone and auxiliary behavior per conversation mode
var modeDirectives = map[domain.Mode]string{
	domain.ModeCasual: `Keep the tone conversational and concise. Cite sources for factual claims but do not overload the answer with references.`,

	domain.ModeStudy: `Act as a patient tutor. Explain concepts step by step and cite the exact source passage for every claim. Only if the user asks for flashcards, a quiz, or is preparing for an exam or test, finish with 2-4 flashcards covering the key points, each formatted exactly as:
FLASHCARD_START
Q: <question>
A: <answer>
FLASHCARD_END
Otherwise do not produce flashcards. Only use the user's documents; never bring in outside knowledge.`,

	domain.ModeResearch: `Be thorough and precise. Compare sources where they differ, cite every claim with its source and page, and flag gaps or contradictions in the material explicitly.`,
}

// weakCorpusCaveat prefixes study-mode answers when retrieval scored
// below the relevance threshold
const weakCorpusCaveat = "Note: your documents do not cover this topic well, so the answer below is based on the closest material available.\n\n"

// historyWindow is how many prior messages feed the prompt
const historyWindow = 6

// buildPrompt assembles the full generation prompt for one turn.
func buildPrompt(mode domain.Mode, asm AssembledContext, history []*domain.Message, query string) string {
	var sb strings.Builder

	sb.WriteString(persona)
	sb.WriteString("\n\n")
	sb.WriteString(modeDirectives[mode])
	sb.WriteString("\n")

	if asm.CorpusBlock != "" {
		sb.WriteString("\n--- Document context ---\n")
		sb.WriteString(asm.CorpusBlock)
		sb.WriteString("\n")
	}
	if asm.WebBlock != "" {
		sb.WriteString("\n--- Web context (supplementary, cite by URL) ---\n")
		sb.WriteString(asm.WebBlock)
		sb.WriteString("\n")
	}

	if len(history) > 0 {
		start := 0
		if len(history) > historyWindow {
			start = len(history) - historyWindow
		}
		sb.WriteString("\n--- Conversation so far ---\n")
		for _, msg := range history[start:] {
			fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
		}
	}

	sb.WriteString("\nuser: ")
	sb.WriteString(query)
	sb.WriteString("\nassistant:")
	return sb.String()
}

// buildGreetingPrompt answers social openers without any retrieval
func buildGreetingPrompt(query string) string {
	return persona + "\n\nThe user sent a greeting, not a question. Reply in one or two friendly sentences and invite them to ask about their documents.\n\nuser: " + query + "\nassistant:"
}

// buildTitlePrompt asks for a short session title from the first exchange
func buildTitlePrompt(query string) string {
	return "Write a title of at most five words for a conversation that starts with this question. Reply with the title only, no quotes.\n\nQuestion: " + query
}
