package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/descubra-ms/guata/internal/knowledge"
	"github.com/descubra-ms/guata/internal/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKnowledgeHandler(t *testing.T) *KnowledgeHandler {
	t.Helper()
	entries, err := knowledge.Default()
	require.NoError(t, err)
	idx, err := knowledge.NewIndex(entries)
	require.NoError(t, err)
	return NewKnowledgeHandler(idx, realtime.NewClassifier(nil))
}

func TestKnowledgeHandler_List(t *testing.T) {
	handler := newKnowledgeHandler(t)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/v1/knowledge", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var items []*KnowledgeEntryResponse
	decodeData(t, w, &items)
	require.Len(t, items, 6)
	assert.Equal(t, "hotels_airport", items[0].ID)
	assert.Nil(t, items[0].Content)
}

func TestKnowledgeHandler_Get(t *testing.T) {
	handler := newKnowledgeHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/knowledge/bonito_info", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "bonito_info")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var entry KnowledgeEntryResponse
	decodeData(t, w, &entry)
	assert.Equal(t, "bonito_info", entry.ID)
	assert.NotNil(t, entry.Content)
}

func TestKnowledgeHandler_GetNotFound(t *testing.T) {
	handler := newKnowledgeHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/knowledge/nope", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "nope")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKnowledgeHandler_Search(t *testing.T) {
	handler := newKnowledgeHandler(t)

	body := `{"question":"hotel perto do aeroporto"}`
	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodPost, "/v1/knowledge/search", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp SearchKnowledgeResponse
	decodeData(t, w, &resp)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "hotels_airport", resp.Matches[0].ID)
	assert.InDelta(t, 0.6, resp.Matches[0].Relevance, 1e-9)
	assert.True(t, resp.NeedsRealTime)
	assert.Equal(t, "hotel", resp.Trigger)
}

func TestKnowledgeHandler_SearchNoMatches(t *testing.T) {
	handler := newKnowledgeHandler(t)

	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodPost, "/v1/knowledge/search", strings.NewReader(`{"question":"pantanal"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp SearchKnowledgeResponse
	decodeData(t, w, &resp)
	assert.Empty(t, resp.Matches)
	assert.False(t, resp.NeedsRealTime)
}

func TestKnowledgeHandler_SearchInvalidJSON(t *testing.T) {
	handler := newKnowledgeHandler(t)

	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodPost, "/v1/knowledge/search", strings.NewReader(`nope`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
