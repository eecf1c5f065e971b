// Package api serves the merged conversation model over HTTP and accepts
// incremental import requests.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lanternworks/chatmerge/internal/chat"
	"github.com/lanternworks/chatmerge/internal/events"
	"github.com/lanternworks/chatmerge/internal/ingest"
)

type Server struct {
	router    *chi.Mux
	port      int
	ingestor  *ingest.Ingestor
	publisher *events.Publisher // nil when NATS is not configured
	logger    *slog.Logger

	mu            sync.Mutex
	conversations []*chat.Conversation
}

func NewServer(port int, ingestor *ingest.Ingestor, publisher *events.Publisher, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		ingestor:  ingestor,
		publisher: publisher,
		logger:    logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/chatmerge/status", s.status)
	router.Get("/api/v1/conversations", s.listConversations)
	router.Get("/api/v1/conversations/{id}", s.getConversation)
	router.Get("/api/v1/conversations/{id}/messages", s.searchMessages)
	router.Get("/api/v1/conversations/{id}/messages/{sequence}/attachment", s.getAttachment)
	router.Post("/api/v1/imports", s.postImport)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Import ingests a path, merges the batch into the current state, and
// publishes the import event. Imports are serialized: the merge rebuilds
// the conversation list and must not interleave.
func (s *Server) Import(ctx context.Context, path string) (*ingest.BatchResult, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, err := s.ingestor.ImportPath(ctx, path)
	if err != nil {
		return nil, 0, err
	}

	combined := make([]*chat.ParsedConversation, 0, len(s.conversations)+len(batch.Conversations))
	for _, c := range s.conversations {
		combined = append(combined, c.AsParsed())
	}
	combined = append(combined, batch.Conversations...)

	s.conversations = chat.Combine(combined)

	if s.publisher != nil {
		err := s.publisher.PublishImportCompleted(events.ImportCompleted{
			BatchID:       batch.BatchID.String(),
			Path:          batch.Path,
			Sources:       batch.Sources,
			Parsed:        batch.Parsed,
			Messages:      batch.Messages,
			Conversations: len(s.conversations),
		})
		if err != nil {
			s.logger.Warn("failed to publish import event", "error", err)
		}
	}

	return batch, len(s.conversations), nil
}

func (s *Server) snapshot() []*chat.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations
}

func (s *Server) findConversation(id string) *chat.Conversation {
	for _, c := range s.snapshot() {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	conversations := s.snapshot()
	messages := 0
	for _, c := range conversations {
		messages += len(c.Messages)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":       "chatmerge",
		"conversations": len(conversations),
		"messages":      messages,
	})
}

// conversationSummary is the list view: everything but the messages.
type conversationSummary struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Preview       string             `json:"preview"`
	Messages      int                `json:"messages"`
	Participants  []chat.Participant `json:"participants"`
	LastTimestamp *time.Time         `json:"last_timestamp,omitempty"`
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	conversations := s.snapshot()
	summaries := make([]conversationSummary, 0, len(conversations))
	for _, c := range conversations {
		summaries = append(summaries, conversationSummary{
			ID:            c.ID,
			Title:         c.Title,
			Preview:       c.Preview,
			Messages:      len(c.Messages),
			Participants:  c.Participants,
			LastTimestamp: c.LastTimestamp,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	conversation := s.findConversation(chi.URLParam(r, "id"))
	if conversation == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (s *Server) searchMessages(w http.ResponseWriter, r *http.Request) {
	conversation := s.findConversation(chi.URLParam(r, "id"))
	if conversation == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if query == "" {
		writeJSON(w, http.StatusOK, conversation.Messages)
		return
	}

	matches := make([]*chat.Message, 0)
	for _, m := range conversation.Messages {
		if strings.Contains(m.SearchIndex, query) {
			matches = append(matches, m)
		}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) getAttachment(w http.ResponseWriter, r *http.Request) {
	conversation := s.findConversation(chi.URLParam(r, "id"))
	if conversation == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	sequence, err := strconv.ParseInt(chi.URLParam(r, "sequence"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sequence")
		return
	}

	var message *chat.Message
	for _, m := range conversation.Messages {
		if m.Sequence == sequence {
			message = m
			break
		}
	}
	if message == nil || message.Attachment == nil {
		writeError(w, http.StatusNotFound, "no attachment")
		return
	}
	if message.Attachment.Missing || message.Attachment.Content == nil {
		writeError(w, http.StatusNotFound, "media missing from import")
		return
	}

	data, err := message.Attachment.Content.Open(r.Context())
	if err != nil {
		s.logger.Error("failed to load media", "attachment", message.Attachment.DisplayName, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load media")
		return
	}

	contentType := message.Attachment.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type importRequest struct {
	Path string `json:"path"`
}

func (s *Server) postImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"path\": \"...\"}")
		return
	}

	batch, conversations, err := s.Import(r.Context(), req.Path)
	if err != nil {
		s.logger.Error("import failed", "path", req.Path, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id":      batch.BatchID,
		"path":          batch.Path,
		"sources":       batch.Sources,
		"parsed":        batch.Parsed,
		"messages":      batch.Messages,
		"conversations": conversations,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
