package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTurnLister struct {
	mock.Mock
}

func (m *MockTurnLister) ListBySession(ctx context.Context, sessionID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.ConversationTurn], error) {
	args := m.Called(ctx, sessionID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.ConversationTurn]), args.Error(1)
}

func sessionRequest(target, sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", sessionID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestSessionHandler_ListTurns(t *testing.T) {
	mockStore := new(MockTurnLister)
	handler := NewSessionHandler(mockStore)

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mockStore.On("ListBySession", mock.Anything, "sess-1", (*pagination.Cursor)(nil), 5).Return(
		&pagination.PageResult[*domain.ConversationTurn]{
			Items: []*domain.ConversationTurn{{
				ID:         "turn-1",
				SessionID:  "sess-1",
				Question:   "eventos hoje",
				Answer:     "Confira a agenda cultural.",
				Confidence: domain.ScoreLow,
				CreatedAt:  createdAt,
			}},
			Cursor:  "next",
			HasMore: true,
		}, nil)

	w := httptest.NewRecorder()
	handler.ListTurns(w, sessionRequest("/v1/sessions/sess-1/turns?limit=5", "sess-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	var page pagination.PageResult[*TurnResponse]
	decodeData(t, w, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "turn-1", page.Items[0].ID)
	assert.Equal(t, "2025-06-01T12:00:00Z", page.Items[0].CreatedAt)
	assert.Equal(t, []string{}, page.Items[0].Sources)
	assert.Equal(t, "next", page.Cursor)
	assert.True(t, page.HasMore)
	mockStore.AssertExpectations(t)
}

func TestSessionHandler_PassesDecodedCursor(t *testing.T) {
	mockStore := new(MockTurnLister)
	handler := NewSessionHandler(mockStore)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	turnID := uuid.NewString()
	encoded := pagination.Cursor{CreatedAt: ts, ID: turnID}.Encode()
	mockStore.On("ListBySession", mock.Anything, "sess-1", mock.MatchedBy(func(c *pagination.Cursor) bool {
		return c != nil && c.ID == turnID && c.CreatedAt.Equal(ts)
	}), 0).Return(&pagination.PageResult[*domain.ConversationTurn]{}, nil)

	w := httptest.NewRecorder()
	handler.ListTurns(w, sessionRequest("/v1/sessions/sess-1/turns?cursor="+encoded, "sess-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	mockStore.AssertExpectations(t)
}

func TestSessionHandler_NoStore(t *testing.T) {
	handler := NewSessionHandler(nil)

	w := httptest.NewRecorder()
	handler.ListTurns(w, sessionRequest("/v1/sessions/sess-1/turns", "sess-1"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionHandler_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"negative limit", "/v1/sessions/sess-1/turns?limit=-1"},
		{"non numeric limit", "/v1/sessions/sess-1/turns?limit=abc"},
		{"bad cursor", "/v1/sessions/sess-1/turns?cursor=%25%25%25"},
		{"cursor id not a uuid", "/v1/sessions/sess-1/turns?cursor=" + pagination.Cursor{CreatedAt: time.Now(), ID: "turn-7"}.Encode()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(MockTurnLister)
			handler := NewSessionHandler(mockStore)

			w := httptest.NewRecorder()
			handler.ListTurns(w, sessionRequest(tt.target, "sess-1"))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mockStore.AssertNotCalled(t, "ListBySession")
		})
	}
}

func TestSessionHandler_StoreError(t *testing.T) {
	mockStore := new(MockTurnLister)
	handler := NewSessionHandler(mockStore)

	mockStore.On("ListBySession", mock.Anything, "sess-1", (*pagination.Cursor)(nil), 0).Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	handler.ListTurns(w, sessionRequest("/v1/sessions/sess-1/turns", "sess-1"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
