package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	chatService      driving.ChatService
	documentService  driving.DocumentService
	flashcardService driving.FlashcardService

	// Infrastructure
	credentials driven.CredentialService
	taskQueue   driven.TaskQueue
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	chatService driving.ChatService,
	documentService driving.DocumentService,
	flashcardService driving.FlashcardService,
	credentials driven.CredentialService,
	taskQueue driven.TaskQueue,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		chatService:      chatService,
		documentService:  documentService,
		flashcardService: flashcardService,
		credentials:      credentials,
		taskQueue:        taskQueue,
		db:               db,
		redisClient:      redisClient,
	}

	s.setupRoutes()

	logger := slog.Default()
	handler := NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger).Handler(
			NewCORSMiddleware(cfg.AllowedOrigins).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  60 * time.Second, // uploads can be large
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.credentials)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Document endpoints
	s.router.Handle("POST /api/v1/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUploadDocument)))
	s.router.Handle("GET /api/v1/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListDocuments)))
	s.router.Handle("GET /api/v1/documents/collections",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListCollections)))
	s.router.Handle("GET /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetDocument)))
	s.router.Handle("GET /api/v1/documents/{id}/chunks",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetDocumentChunks)))
	s.router.Handle("GET /api/v1/documents/{id}/file",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDownloadDocument)))
	s.router.Handle("DELETE /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteDocument)))

	// Chat endpoints
	s.router.Handle("POST /api/v1/chat/query",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleChatQuery)))
	s.router.Handle("GET /api/v1/chat/sessions",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListSessions)))
	s.router.Handle("GET /api/v1/chat/sessions/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetSession)))
	s.router.Handle("PUT /api/v1/chat/sessions/{id}/mode",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSetSessionMode)))
	s.router.Handle("DELETE /api/v1/chat/sessions/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteSession)))

	// Flashcard endpoints
	s.router.Handle("GET /api/v1/flashcards",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListFlashcardSets)))
	s.router.Handle("POST /api/v1/flashcards",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCreateFlashcardSet)))
	s.router.Handle("GET /api/v1/flashcards/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetFlashcardSet)))
	s.router.Handle("POST /api/v1/flashcards/{id}/review",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleReviewFlashcardSet)))
	s.router.Handle("DELETE /api/v1/flashcards/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteFlashcardSet)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
