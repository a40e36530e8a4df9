package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/descubra-ms/guata/internal/api"
	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver answers one question. It never fails; the worst case is a
// deterministic fallback answer.
type Resolver interface {
	Resolve(ctx context.Context, query, sessionID, userID string) *domain.Response
}

type AskHandler struct {
	resolver Resolver
	newID    func() string
}

func NewAskHandler(resolver Resolver) *AskHandler {
	return &AskHandler{resolver: resolver, newID: uuid.NewString}
}

type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type AskResponse struct {
	SessionID        string   `json:"session_id"`
	Answer           string   `json:"answer"`
	Confidence       int      `json:"confidence"`
	Sources          []string `json:"sources"`
	Reasoning        []string `json:"reasoning"`
	IsFromCache      bool     `json:"is_from_cache"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		if !errors.Is(err, io.EOF) {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = h.newID()
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx, nil).With(zap.String("session_id", sessionID))
	ctx = logging.WithLogger(ctx, logger)

	resp := h.resolver.Resolve(ctx, req.Question, sessionID, req.UserID)

	api.Success(w, http.StatusOK, &AskResponse{
		SessionID:        sessionID,
		Answer:           resp.Answer,
		Confidence:       resp.Confidence,
		Sources:          nonNil(resp.Sources),
		Reasoning:        nonNil(resp.Reasoning),
		IsFromCache:      resp.IsFromCache,
		ProcessingTimeMs: resp.ProcessingTimeMs,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
