package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driving"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// fallbackAnswer is returned when generation fails after retrying
const fallbackAnswer = "I ran into a problem generating a response just now. Please try again in a moment."

// webResultLimit is how many web snippets augment a weak corpus
const webResultLimit = 3

// generateMaxAttempts bounds generation tries per turn: one retry after
// a backoff, then the fallback answer
const generateMaxAttempts = 2

// defaultGenerateRetryDelay is the pause before the single retry
const defaultGenerateRetryDelay = time.Second

// chatService runs the retrieval-augmented chat pipeline
type chatService struct {
	sessionStore   driven.ChatSessionStore
	documentStore  driven.DocumentStore
	flashcardStore driven.FlashcardStore
	embedding      driven.EmbeddingService
	vectorIndex    driven.VectorIndex
	webSearch      driven.WebSearchService
	generation     driven.GenerationService

	gate       *relevanceGate
	assembler  *contextAssembler
	logger     *slog.Logger
	retryDelay time.Duration

	// mu guards sessionLocks; each session processes one turn at a time
	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// ChatServiceConfig holds dependencies for the chat service.
type ChatServiceConfig struct {
	SessionStore   driven.ChatSessionStore
	DocumentStore  driven.DocumentStore
	FlashcardStore driven.FlashcardStore
	Embedding      driven.EmbeddingService
	VectorIndex    driven.VectorIndex
	WebSearch      driven.WebSearchService
	Generation     driven.GenerationService
	Gate           GateConfig
	Assembler      AssemblerConfig
	Logger         *slog.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(cfg ChatServiceConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &chatService{
		sessionStore:   cfg.SessionStore,
		documentStore:  cfg.DocumentStore,
		flashcardStore: cfg.FlashcardStore,
		embedding:      cfg.Embedding,
		vectorIndex:    cfg.VectorIndex,
		webSearch:      cfg.WebSearch,
		generation:     cfg.Generation,
		gate:           newRelevanceGate(cfg.Gate),
		assembler:      newContextAssembler(cfg.Assembler),
		logger:         logger,
		retryDelay:     defaultGenerateRetryDelay,
		sessionLocks:   make(map[string]*sync.Mutex),
	}
}

// Query answers one user message against their corpus.
func (s *chatService) Query(ctx context.Context, userID string, req domain.QueryRequest) (*domain.QueryResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	session, isNew, err := s.resolveSession(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	// One turn at a time per session; history order must match arrival
	// order
	unlock := s.lockSession(session.ID)
	defer unlock()

	if err := s.sessionStore.AppendMessage(ctx, session.ID, &domain.Message{
		Role:      domain.RoleUser,
		Content:   query,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	resp, err := s.answer(ctx, userID, session, query, req)
	if err != nil {
		return nil, err
	}

	assistantMsg := &domain.Message{
		Role:           domain.RoleAssistant,
		Content:        resp.Answer,
		Citations:      resp.Citations,
		FlashcardSetID: resp.FlashcardSetID,
		CreatedAt:      time.Now(),
	}
	if err := s.sessionStore.AppendMessage(ctx, session.ID, assistantMsg); err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}

	if isNew {
		s.setSessionTitle(ctx, session.ID, query)
	}

	resp.SessionID = session.ID
	return resp, nil
}

// answer runs the pipeline for one turn: route, retrieve, assemble,
// generate, post-process.
func (s *chatService) answer(ctx context.Context, userID string, session *domain.ChatSession, query string, req domain.QueryRequest) (*domain.QueryResponse, error) {
	mode := session.Mode

	if isSimpleGreeting(query) {
		text := s.generate(ctx, buildGreetingPrompt(query))
		return &domain.QueryResponse{Answer: text, Route: string(domain.RouteNoCorpus)}, nil
	}

	var collections []string
	if req.Collection != "" {
		collections = []string{req.Collection}
	}

	docCount, err := s.documentStore.CountCompleted(ctx, userID, collections)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	var matches []domain.RankedChunk
	if docCount > 0 {
		matches, err = s.retrieve(ctx, userID, query, collections, req.TopK)
		if err != nil {
			// Retrieval failing should not kill the turn; route as if
			// the corpus returned nothing
			s.logger.Warn("retrieval failed, degrading", "session_id", session.ID, "error", err)
			matches = nil
		}
	}

	verdict := s.gate.Decide(mode, docCount > 0, matches)
	s.logger.Info("routed query",
		"session_id", session.ID,
		"route", verdict.Route,
		"mode", mode,
		"matches", len(matches),
	)

	var web []domain.WebResult
	if verdict.Route.UsesWeb() && s.webSearch != nil {
		web, err = s.webSearch.Search(ctx, query, webResultLimit)
		if err != nil {
			s.logger.Warn("web search failed, degrading", "session_id", session.ID, "error", err)
			web = nil
			if verdict.Route == domain.RouteWebOnly {
				verdict = GateVerdict{Route: domain.RouteRAGOnly, WeakCorpus: true}
			}
		}
	}

	corpusMatches := matches
	if !verdict.Route.UsesCorpus() {
		corpusMatches = nil
	}
	asm := s.assembler.Assemble(corpusMatches, web)

	history, err := s.sessionStore.GetHistory(ctx, session.ID, historyWindow+1)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	// The just-appended user message goes in the prompt tail, not the
	// history block
	if n := len(history); n > 0 && history[n-1].Role == domain.RoleUser && history[n-1].Content == query {
		history = history[:n-1]
	}

	raw := s.generate(ctx, buildPrompt(mode, asm, history, query))
	processed := processAnswer(raw, asm.Citations)

	answer := processed.Answer
	if verdict.WeakCorpus && answer != fallbackAnswer {
		answer = weakCorpusCaveat + answer
	}

	resp := &domain.QueryResponse{
		Answer:    answer,
		Citations: processed.Citations,
		Route:     string(verdict.Route),
	}

	if mode == domain.ModeStudy && len(processed.Flashcards) > 0 {
		set := domain.NewFlashcardSet(userID, session.ID, domain.TopicFromQuery(query), processed.Flashcards)
		if err := s.flashcardStore.SaveSet(ctx, set); err != nil {
			s.logger.Warn("failed to save flashcard set", "session_id", session.ID, "error", err)
		} else {
			resp.FlashcardSetID = set.ID
		}
	}

	return resp, nil
}

// retrieve embeds the query and fans out across the user's namespaces
func (s *chatService) retrieve(ctx context.Context, userID, query string, collections []string, requestedTopK int) ([]domain.RankedChunk, error) {
	vector, err := s.embedding.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	topK := s.gate.TopK(query, requestedTopK)
	found, err := s.vectorIndex.Query(ctx, vector, topK, driven.VectorFilter{
		UserID:      userID,
		Collections: collections,
	})
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	matches := make([]domain.RankedChunk, 0, len(found))
	for _, m := range found {
		matches = append(matches, domain.RankedChunk{
			Chunk: &domain.Chunk{
				ID:         m.Key,
				DocumentID: m.Metadata.DocumentID,
				UserID:     m.Metadata.UserID,
				Collection: m.Metadata.Collection,
				Filename:   m.Metadata.Document,
				Index:      m.Metadata.ChunkIndex,
				Text:       m.Metadata.Text,
				Page:       m.Metadata.Page,
				StartChar:  m.Metadata.StartChar,
				EndChar:    m.Metadata.EndChar,
			},
			Score: m.Score,
		})
	}
	return matches, nil
}

// generate calls the model, retrying once after a backoff, with an
// apologetic fallback; a chat turn always produces an answer. This is
// the only retry layer around generation.
func (s *chatService) generate(ctx context.Context, prompt string) string {
	var lastErr error
	for attempt := 1; attempt <= generateMaxAttempts; attempt++ {
		text, err := s.generation.Generate(ctx, prompt, driven.GenerateOptions{})
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		lastErr = err
		if attempt < generateMaxAttempts {
			select {
			case <-ctx.Done():
				s.logger.Error("generation aborted", "error", ctx.Err())
				return fallbackAnswer
			case <-time.After(s.retryDelay):
			}
		}
	}
	s.logger.Error("generation failed after retries", "error", lastErr)
	return fallbackAnswer
}

// setSessionTitle names a new session from its first question, falling
// back to a trimmed form of the query when the model fails.
func (s *chatService) setSessionTitle(ctx context.Context, sessionID, query string) {
	title, err := s.generation.Generate(ctx, buildTitlePrompt(query), driven.GenerateOptions{MaxTokens: 20})
	title = strings.Trim(strings.TrimSpace(title), `"`)
	if err != nil || title == "" {
		title = domain.TopicFromQuery(query)
	}
	if err := s.sessionStore.SetTitle(ctx, sessionID, title); err != nil {
		s.logger.Warn("failed to set session title", "session_id", sessionID, "error", err)
	}
}

// resolveSession loads the request's session or creates one
func (s *chatService) resolveSession(ctx context.Context, userID string, req domain.QueryRequest) (*domain.ChatSession, bool, error) {
	if req.SessionID == "" {
		session := domain.NewChatSession(userID, domain.ParseMode(req.Mode))
		if err := s.sessionStore.CreateSession(ctx, session); err != nil {
			return nil, false, fmt.Errorf("create session: %w", err)
		}
		return session, true, nil
	}

	session, err := s.sessionStore.GetSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, false, err
	}
	if req.Mode != "" {
		mode := domain.ParseMode(req.Mode)
		if mode != session.Mode {
			if err := s.sessionStore.SetMode(ctx, session.ID, mode); err != nil {
				return nil, false, fmt.Errorf("set session mode: %w", err)
			}
			session.Mode = mode
		}
	}
	return session, false, nil
}

// lockSession serializes turns within one session
func (s *chatService) lockSession(sessionID string) func() {
	s.mu.Lock()
	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// GetSession retrieves a session with its full history.
func (s *chatService) GetSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, []*domain.Message, error) {
	session, err := s.sessionStore.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.sessionStore.GetHistory(ctx, sessionID, 0)
	if err != nil {
		return nil, nil, err
	}
	return session, history, nil
}

// ListSessions returns a user's sessions.
func (s *chatService) ListSessions(ctx context.Context, userID string) ([]*domain.SessionSummary, error) {
	return s.sessionStore.ListByUser(ctx, userID)
}

// SetSessionMode changes a session's conversation mode.
func (s *chatService) SetSessionMode(ctx context.Context, userID, sessionID string, mode domain.Mode) error {
	if _, err := s.sessionStore.GetSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.sessionStore.SetMode(ctx, sessionID, mode)
}

// DeleteSession removes a session and its history.
func (s *chatService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := s.sessionStore.DeleteSession(ctx, userID, sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessionLocks, sessionID)
	s.mu.Unlock()
	return nil
}
