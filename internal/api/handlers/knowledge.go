package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/descubra-ms/guata/internal/api"
	"github.com/descubra-ms/guata/internal/domain"
	"github.com/go-chi/chi/v5"
)

type KnowledgeIndex interface {
	Entries() []*domain.KnowledgeEntry
	Get(id string) (*domain.KnowledgeEntry, error)
	Search(query string) []domain.ScoredMatch
}

type RealTimeMatcher interface {
	Match(query string) (string, bool)
}

type KnowledgeHandler struct {
	index      KnowledgeIndex
	classifier RealTimeMatcher
}

func NewKnowledgeHandler(index KnowledgeIndex, classifier RealTimeMatcher) *KnowledgeHandler {
	return &KnowledgeHandler{index: index, classifier: classifier}
}

type KnowledgeEntryResponse struct {
	ID             string   `json:"id"`
	Keywords       []string `json:"keywords"`
	BaseConfidence string   `json:"base_confidence"`
	Content        any      `json:"content,omitempty"`
}

type SearchKnowledgeRequest struct {
	Question string `json:"question"`
}

type KnowledgeMatchResponse struct {
	ID             string  `json:"id"`
	Relevance      float64 `json:"relevance"`
	BaseConfidence string  `json:"base_confidence"`
}

type SearchKnowledgeResponse struct {
	Question      string                    `json:"question"`
	Matches       []*KnowledgeMatchResponse `json:"matches"`
	NeedsRealTime bool                      `json:"needs_real_time"`
	Trigger       string                    `json:"trigger,omitempty"`
}

func entryToResponse(e *domain.KnowledgeEntry, withContent bool) *KnowledgeEntryResponse {
	resp := &KnowledgeEntryResponse{
		ID:             e.ID,
		Keywords:       e.Keywords,
		BaseConfidence: string(e.BaseConfidence),
	}
	if withContent {
		resp.Content = e.Payload
	}
	return resp
}

func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.index.Entries()
	items := make([]*KnowledgeEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryToResponse(e, false))
	}
	api.Success(w, http.StatusOK, items)
}

func (h *KnowledgeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	entry, err := h.index.Get(id)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.Success(w, http.StatusOK, entryToResponse(entry, true))
}

// Search scores a question against the local index and reports the
// real-time verdict without calling any remote backend.
func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	matches := h.index.Search(req.Question)
	items := make([]*KnowledgeMatchResponse, 0, len(matches))
	for _, m := range matches {
		items = append(items, &KnowledgeMatchResponse{
			ID:             m.Entry.ID,
			Relevance:      m.Relevance,
			BaseConfidence: string(m.Entry.BaseConfidence),
		})
	}

	trigger, needs := h.classifier.Match(req.Question)
	api.Success(w, http.StatusOK, &SearchKnowledgeResponse{
		Question:      req.Question,
		Matches:       items,
		NeedsRealTime: needs,
		Trigger:       trigger,
	})
}
