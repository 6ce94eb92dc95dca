package services

import (
	"strings"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// GateConfig tunes the relevance gate that decides how each chat turn is
// grounded.
type GateConfig struct {
	// RelevanceThreshold is the minimum top similarity score for the
	// corpus to be considered sufficient on its own
	RelevanceThreshold float64

	// DefaultTopK is the number of chunks retrieved per turn
	DefaultTopK int

	// ComprehensiveMultiplier widens TopK for queries that ask for
	// exhaustive coverage
	ComprehensiveMultiplier int

	// MaxTopK caps retrieval after widening
	MaxTopK int
}

// DefaultGateConfig returns the gate defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		RelevanceThreshold:      0.45,
		DefaultTopK:             5,
		ComprehensiveMultiplier: 3,
		MaxTopK:                 35,
	}
}

// GateVerdict is the gate's full output for one turn.
type GateVerdict struct {
	Route domain.RoutingDecision

	// WeakCorpus is set when study mode forced corpus-only grounding
	// despite low relevance; the answer carries a caveat.
	WeakCorpus bool
}

// relevanceGate routes each turn deterministically from retrieval scores.
// It never calls the LLM to decide; the same inputs always produce the
// same route.
type relevanceGate struct {
	config GateConfig
}

func newRelevanceGate(config GateConfig) *relevanceGate {
	if config.RelevanceThreshold <= 0 {
		config = DefaultGateConfig()
	}
	return &relevanceGate{config: config}
}

// Decide picks the grounding route for a turn.
// hasDocs is whether the user has any completed documents in scope, and
// matches are the retrieval hits (may be empty).
func (g *relevanceGate) Decide(mode domain.Mode, hasDocs bool, matches []domain.RankedChunk) GateVerdict {
	if !hasDocs {
		return GateVerdict{Route: domain.RouteNoCorpus}
	}

	if len(matches) == 0 {
		if mode.AllowsWebAugmentation() {
			return GateVerdict{Route: domain.RouteWebOnly}
		}
		return GateVerdict{Route: domain.RouteRAGOnly, WeakCorpus: true}
	}

	topScore := matches[0].Score
	for _, m := range matches[1:] {
		if m.Score > topScore {
			topScore = m.Score
		}
	}

	if topScore >= g.config.RelevanceThreshold {
		return GateVerdict{Route: domain.RouteRAGOnly}
	}

	// Corpus is weak. Study mode stays on the user's material with a
	// caveat; other modes supplement with web search.
	if mode.AllowsWebAugmentation() {
		return GateVerdict{Route: domain.RouteRAGPlusWeb}
	}
	return GateVerdict{Route: domain.RouteRAGOnly, WeakCorpus: true}
}

// TopK returns the retrieval depth for a query, widened for
// comprehensive requests and clamped to the configured range.
func (g *relevanceGate) TopK(query string, requested int) int {
	topK := requested
	if topK <= 0 {
		topK = g.config.DefaultTopK
	}
	if isComprehensiveQuery(query) {
		topK *= g.config.ComprehensiveMultiplier
	}
	if topK > g.config.MaxTopK {
		topK = g.config.MaxTopK
	}
	return topK
}

// comprehensiveMarkers are phrasings that ask for exhaustive coverage of
// the corpus rather than a pointed answer.
var comprehensiveMarkers = []string{
	"all documents",
	"every document",
	"everything",
	"summarize all",
	"summarise all",
	"overview of all",
	"across all",
	"entire",
	"comprehensive",
	"complete summary",
	"all my notes",
	"all files",
	"all the documents",
}

func isComprehensiveQuery(query string) bool {
	q := strings.ToLower(query)
	for _, marker := range comprehensiveMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

// greetings are short openers answered directly without retrieval
var greetings = map[string]bool{
	"hi": true, "hello": true, "hey": true, "yo": true,
	"hi!": true, "hello!": true, "hey!": true,
	"good morning": true, "good afternoon": true, "good evening": true,
	"thanks": true, "thank you": true, "ok": true, "okay": true,
}

// isSimpleGreeting reports whether the query is a bare social opener.
// Anything carrying a question mark or real length goes through retrieval.
func isSimpleGreeting(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) > 25 || strings.Contains(q, "?") {
		return false
	}
	return greetings[strings.TrimSuffix(q, ".")]
}
