package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// maxUploadBytes bounds multipart bodies; the document service enforces
// its own per-file limit below this.
const maxUploadBytes = 64 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// SessionDetail is a session with its message history
// @Description Chat session with full message history
type SessionDetail struct {
	Session  *domain.ChatSession `json:"session"`
	Messages []*domain.Message   `json:"messages"`
}

// SetModeRequest selects a session's conversation mode
// @Description Conversation mode update
type SetModeRequest struct {
	Mode string `json:"mode" example:"study"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns readiness after checking database, queue and cache connections
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "task queue unavailable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Document endpoints

// handleUploadDocument godoc
// @Summary      Upload document
// @Description  Upload a PDF, text or markdown file for ingestion. Returns the pending document record; ingestion runs in the background.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file        formData  file    true   "Document file"
// @Param        collection  formData  string  false  "Collection name (defaults to main)"
// @Success      202  {object}  domain.Document
// @Failure      400  {object}  ErrorResponse  "Invalid upload"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	collection := r.FormValue("collection")

	doc, err := s.documentService.Upload(r.Context(), identity.UserID, header.Filename, collection, data)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to upload document")
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

// handleListDocuments godoc
// @Summary      List documents
// @Description  List the caller's documents, optionally filtered by collection
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        collection  query     string  false  "Filter by collection"
// @Success      200  {array}   domain.Document
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())

	docs, err := s.documentService.List(r.Context(), identity.UserID, r.URL.Query().Get("collection"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}

	writeJSON(w, http.StatusOK, docs)
}

// handleListCollections godoc
// @Summary      List collections
// @Description  List the caller's collections with document counts
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.CollectionSummary
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/collections [get]
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())

	collections, err := s.documentService.ListCollections(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list collections")
		return
	}
	if collections == nil {
		collections = []*domain.CollectionSummary{}
	}

	writeJSON(w, http.StatusOK, collections)
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Get a document's record including ingestion status and expiry
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	doc, err := s.documentService.Get(r.Context(), identity.UserID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleGetDocumentChunks godoc
// @Summary      Get document chunks
// @Description  Get a document's stored chunks ordered by position
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {array}   domain.Chunk
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id}/chunks [get]
func (s *Server) handleGetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	chunks, err := s.documentService.GetChunks(r.Context(), identity.UserID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get chunks")
		return
	}
	if chunks == nil {
		chunks = []*domain.Chunk{}
	}

	writeJSON(w, http.StatusOK, chunks)
}

// handleDownloadDocument godoc
// @Summary      Download document file
// @Description  Download the originally uploaded file for a document
// @Tags         Documents
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {file}    binary
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id}/file [get]
func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	doc, data, err := s.documentService.GetFile(r.Context(), identity.UserID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load file")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleDeleteDocument godoc
// @Summary      Delete document
// @Description  Delete a document record and queue removal of its vectors and file
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	if err := s.documentService.Delete(r.Context(), identity.UserID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Chat endpoints

// handleChatQuery godoc
// @Summary      Chat query
// @Description  Ask a question against your documents. Omitting session_id starts a new session; mode switches the session's conversation mode.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.QueryRequest  true  "Chat query"
// @Success      200      {object}  domain.QueryResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      404      {object}  ErrorResponse  "Session not found"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /chat/query [post]
func (s *Server) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())

	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.chatService.Query(r.Context(), identity.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		default:
			writeError(w, http.StatusInternalServerError, "chat query failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListSessions godoc
// @Summary      List chat sessions
// @Description  List the caller's chat sessions, most recent first
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.SessionSummary
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /chat/sessions [get]
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())

	sessions, err := s.chatService.ListSessions(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*domain.SessionSummary{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

// handleGetSession godoc
// @Summary      Get chat session
// @Description  Get a session with its full message history
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  SessionDetail
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Session not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /chat/sessions/{id} [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	session, messages, err := s.chatService.GetSession(r.Context(), identity.UserID, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}

	writeJSON(w, http.StatusOK, SessionDetail{Session: session, Messages: messages})
}

// handleSetSessionMode godoc
// @Summary      Set session mode
// @Description  Switch a session between casual, study and research modes
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string          true  "Session ID"
// @Param        request  body      SetModeRequest  true  "New mode"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse  "Invalid request"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Session not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /chat/sessions/{id}/mode [put]
func (s *Server) handleSetSessionMode(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	var req SetModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.chatService.SetSessionMode(r.Context(), identity.UserID, id, domain.ParseMode(req.Mode)); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to set session mode")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeleteSession godoc
// @Summary      Delete chat session
// @Description  Delete a session and its message history
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Session not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /chat/sessions/{id} [delete]
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	if err := s.chatService.DeleteSession(r.Context(), identity.UserID, id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Flashcard endpoints

// handleListFlashcardSets godoc
// @Summary      List flashcard sets
// @Description  List the caller's flashcard sets, newest first. Pass ?session= to restrict to one chat session.
// @Tags         Flashcards
// @Produce      json
// @Security     BearerAuth
// @Param        session  query     string  false  "Session ID filter"
// @Success      200  {array}   domain.FlashcardSet
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /flashcards [get]
func (s *Server) handleListFlashcardSets(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	sessionID := r.URL.Query().Get("session")

	sets, err := s.flashcardService.ListSets(r.Context(), identity.UserID, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list flashcard sets")
		return
	}
	if sets == nil {
		sets = []*domain.FlashcardSet{}
	}

	writeJSON(w, http.StatusOK, sets)
}

// handleCreateFlashcardSet godoc
// @Summary      Create flashcard set
// @Description  Create a flashcard set from caller-supplied cards
// @Tags         Flashcards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.CreateFlashcardSetRequest  true  "Flashcard set"
// @Success      201  {object}  domain.FlashcardSet
// @Failure      400  {object}  ErrorResponse  "Invalid request"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /flashcards [post]
func (s *Server) handleCreateFlashcardSet(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())

	var req domain.CreateFlashcardSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	set, err := s.flashcardService.CreateSet(r.Context(), identity.UserID, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create flashcard set")
		return
	}

	writeJSON(w, http.StatusCreated, set)
}

// handleGetFlashcardSet godoc
// @Summary      Get flashcard set
// @Description  Get a flashcard set by ID
// @Tags         Flashcards
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Flashcard set ID"
// @Success      200  {object}  domain.FlashcardSet
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Flashcard set not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /flashcards/{id} [get]
func (s *Server) handleGetFlashcardSet(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	set, err := s.flashcardService.GetSet(r.Context(), identity.UserID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "flashcard set not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get flashcard set")
		return
	}

	writeJSON(w, http.StatusOK, set)
}

// handleReviewFlashcardSet godoc
// @Summary      Mark flashcard set reviewed
// @Description  Record a review timestamp on a flashcard set
// @Tags         Flashcards
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Flashcard set ID"
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Flashcard set not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /flashcards/{id}/review [post]
func (s *Server) handleReviewFlashcardSet(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	if err := s.flashcardService.MarkReviewed(r.Context(), identity.UserID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "flashcard set not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to mark set reviewed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeleteFlashcardSet godoc
// @Summary      Delete flashcard set
// @Description  Delete a flashcard set
// @Tags         Flashcards
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Flashcard set ID"
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Flashcard set not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /flashcards/{id} [delete]
func (s *Server) handleDeleteFlashcardSet(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentity(r.Context())
	id := r.PathValue("id")

	if err := s.flashcardService.DeleteSet(r.Context(), identity.UserID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "flashcard set not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete flashcard set")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
