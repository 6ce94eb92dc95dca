package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode is a session-level policy selecting tone, citation density, and
// auxiliary behaviors (flashcards, web augmentation).
type Mode string

const (
	ModeCasual   Mode = "casual"
	ModeStudy    Mode = "study"
	ModeResearch Mode = "research"
)

// ParseMode validates a mode string, defaulting to casual
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeStudy:
		return ModeStudy
	case ModeResearch:
		return ModeResearch
	default:
		return ModeCasual
	}
}

// AllowsWebAugmentation reports whether the mode permits supplementing a
// weak corpus with web search. Study mode deliberately does not: it keeps
// answers grounded in the user's material.
func (m Mode) AllowsWebAugmentation() bool {
	return m == ModeCasual || m == ModeResearch
}

// RoutingDecision is the Relevance Gate's verdict on how to ground a turn
type RoutingDecision string

const (
	RouteNoCorpus   RoutingDecision = "no_corpus"    // no completed documents, direct generation
	RouteRAGOnly    RoutingDecision = "rag_only"     // corpus answers the query
	RouteRAGPlusWeb RoutingDecision = "rag_plus_web" // corpus plus web supplement
	RouteWebOnly    RoutingDecision = "web_only"     // corpus irrelevant, web answers
)

// UsesCorpus reports whether retrieved chunks feed the prompt
func (r RoutingDecision) UsesCorpus() bool {
	return r == RouteRAGOnly || r == RouteRAGPlusWeb
}

// UsesWeb reports whether web snippets feed the prompt
func (r RoutingDecision) UsesWeb() bool {
	return r == RouteRAGPlusWeb || r == RouteWebOnly
}

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatSession groups an ordered conversation for one user
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewChatSession creates a session with a 30 day expiry
func NewChatSession(userID string, mode Mode) *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:        "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		UserID:    userID,
		Mode:      mode,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
	}
}

// Message is one turn in a session. Messages are append-only and immutable
// once stored.
type Message struct {
	Role           Role       `json:"role"`
	Content        string     `json:"content"`
	Citations      []Citation `json:"citations,omitempty"`
	FlashcardSetID string     `json:"flashcard_set_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Citation points at the source location an assistant claim came from.
// Citations are derived from retrieval metadata and generated text, never
// created independently.
type Citation struct {
	Document string  `json:"document"`
	Page     int     `json:"page"` // 0 if unknown
	Score    float64 `json:"score,omitempty"`
	Snippet  string  `json:"snippet,omitempty"`
}

// RankedChunk is a retrieval hit with its similarity score
type RankedChunk struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
}

// WebResult is one web-search snippet used for augmentation
type WebResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// QueryRequest is the chat query entry point payload
type QueryRequest struct {
	Query      string `json:"query"`
	SessionID  string `json:"session_id,omitempty"`
	Collection string `json:"collection,omitempty"` // restrict retrieval to one collection
	Mode       string `json:"mode,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}

// QueryResponse is the chat query result
type QueryResponse struct {
	Answer         string     `json:"answer"`
	Citations      []Citation `json:"citations"`
	SessionID      string     `json:"session_id"`
	Route          string     `json:"route"`
	FlashcardSetID string     `json:"flashcard_set_id,omitempty"`
}

// SessionSummary is the list view of a session
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	Mode         Mode      `json:"mode"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}
