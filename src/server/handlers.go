package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/elee1766/threadchat/src/app"
	"github.com/elee1766/threadchat/src/executor"
	"github.com/go-chi/chi/v5"
)

type threadsResponse struct {
	Threads []string `json:"threads"`
}

type createThreadResponse struct {
	ThreadID string `json:"thread_id"`
}

type messagesResponse struct {
	ThreadID string           `json:"thread_id"`
	Messages []*aisdk.Message `json:"messages"`
}

type postMessageRequest struct {
	Content string `json:"content"`
}

type postMessageResponse struct {
	ThreadID string `json:"thread_id"`
	Reply    string `json:"reply"`
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.service.ListThreads(r.Context())
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, threadsResponse{Threads: threads})
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusCreated, createThreadResponse{ThreadID: s.service.NewThreadID()})
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	msgs, err := s.service.History(r.Context(), threadID)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*aisdk.Message{}
	}
	respondWithJSON(w, http.StatusOK, messagesResponse{ThreadID: threadID, Messages: msgs})
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var req postMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.service.SendMessage(r.Context(), threadID, req.Content)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, postMessageResponse{ThreadID: threadID, Reply: reply})
}

// StatusFor maps service errors onto HTTP status codes. A turn cut short by
// the request deadline is 504 and one cancelled otherwise is 503. Storage and
// unclassified errors are 500.
func StatusFor(err error) int {
	var turnLimit *executor.TurnLimitError
	var modelErr *executor.ModelError
	switch {
	case errors.Is(err, app.ErrEmptyMessage), errors.Is(err, app.ErrThreadIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrThreadBusy):
		return http.StatusConflict
	case errors.As(err, &turnLimit):
		return http.StatusUnprocessableEntity
	case errors.As(err, &modelErr):
		return http.StatusBadGateway
	case errors.Is(err, executor.ErrTurnCancelled) && errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, executor.ErrTurnCancelled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	respondWithError(w, status, err.Error())
}

// respondWithJSON writes data as a JSON response.
func respondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondWithError writes an error response in JSON format.
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}
