package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lira-ai/lira/pkg/api/middleware"
	"github.com/lira-ai/lira/pkg/api/response"
	"github.com/lira-ai/lira/pkg/logger"
	"github.com/lira-ai/lira/pkg/session"
)

// SessionReader is the part of a session store the API exposes.
type SessionReader interface {
	Get(ctx context.Context, sessionID string) (session.Document, error)
	Clear(ctx context.Context, sessionID string) error
}

// SessionHandler serves the short-term session buffer.
type SessionHandler struct {
	store SessionReader
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store SessionReader) *SessionHandler {
	return &SessionHandler{store: store}
}

// GetSession handles GET /api/lira/sessions/{sessionID}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	doc, err := h.store.Get(ctx, sessionID)
	if err != nil {
		h.fail(w, r, sessionID, "Failed to load session", err)
		return
	}

	response.JSON(w, http.StatusOK, doc)
}

// DeleteSession handles DELETE /api/lira/sessions/{sessionID}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.store.Clear(ctx, sessionID); err != nil {
		h.fail(w, r, sessionID, "Failed to clear session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, sessionID, message string, err error) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if errors.Is(err, session.ErrInvalidSessionID) {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid session ID", requestID)
		return
	}

	logger.FromContext(ctx).ErrorContext(ctx, message, "session_id", sessionID, "error", err)
	response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, message, requestID)
}
