package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/descubra-ms/guata/internal/api"
	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type TurnLister interface {
	ListBySession(ctx context.Context, sessionID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.ConversationTurn], error)
}

type SessionHandler struct {
	store TurnLister
}

// NewSessionHandler accepts a nil store; every request then answers 503.
func NewSessionHandler(store TurnLister) *SessionHandler {
	return &SessionHandler{store: store}
}

type TurnResponse struct {
	ID           string   `json:"id"`
	SessionID    string   `json:"session_id"`
	UserID       string   `json:"user_id,omitempty"`
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Confidence   int      `json:"confidence"`
	Sources      []string `json:"sources"`
	Reasoning    []string `json:"reasoning"`
	FromCache    bool     `json:"from_cache"`
	ProcessingMs int64    `json:"processing_ms"`
	CreatedAt    string   `json:"created_at"`
}

func turnToResponse(t *domain.ConversationTurn) *TurnResponse {
	return &TurnResponse{
		ID:           t.ID,
		SessionID:    t.SessionID,
		UserID:       t.UserID,
		Question:     t.Question,
		Answer:       t.Answer,
		Confidence:   t.Confidence,
		Sources:      nonNil(t.Sources),
		Reasoning:    nonNil(t.Reasoning),
		FromCache:    t.FromCache,
		ProcessingMs: t.ProcessingMs,
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *SessionHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		api.HandleError(w, r, domain.ErrStoreNotConfigured)
		return
	}

	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		api.Error(w, http.StatusBadRequest, "session id is required")
		return
	}

	limit, err := pagination.ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid limit")
		return
	}

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			api.HandleError(w, r, domain.ErrInvalidCursor)
			return
		}
		api.HandleError(w, r, err)
		return
	}
	// Turn ids are uuid columns; anything else would fail inside the query.
	if cursor != nil {
		if _, err := uuid.Parse(cursor.ID); err != nil {
			api.HandleError(w, r, domain.ErrInvalidCursor)
			return
		}
	}

	page, err := h.store.ListBySession(r.Context(), sessionID, cursor, limit)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	items := make([]*TurnResponse, 0, len(page.Items))
	for _, t := range page.Items {
		items = append(items, turnToResponse(t))
	}

	api.Success(w, http.StatusOK, pagination.PageResult[*TurnResponse]{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}
