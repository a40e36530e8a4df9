package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/httpx"
	"github.com/descubra-ms/guata/internal/rag"
)

func TestProxy_FetchSnippets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rag.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "festival de inverno", req.Question)
		assert.Equal(t, ProxyUserID, req.UserID)
		assert.Equal(t, "MS", req.StateCode)
		assert.True(t, strings.HasPrefix(req.SessionID, "sess_"))

		_, _ = w.Write([]byte(`{"sources":[
			{"title":"Festival","snippet":"Julho em Bonito","link":"https://a","source":"news","relevance":0.9},
			{"title":"Agenda","content":"Shows no centro","url":"https://b","confidence":0.4},
			{"title":"Bare"},
			"not-an-object"
		]}`))
	}))
	defer server.Close()

	p := NewProxy(httpx.New(httpx.Options{Timeout: time.Second}), Config{URL: server.URL}, nil)
	snippets := p.FetchSnippets(context.Background(), "festival de inverno")

	require.Len(t, snippets, 3)
	assert.Equal(t, domain.Snippet{
		Title: "Festival", Content: "Julho em Bonito", URL: "https://a",
		Source: "news", SourceConfidence: 0.9, IsRealTime: true,
	}, snippets[0])
	assert.Equal(t, domain.Snippet{
		Title: "Agenda", Content: "Shows no centro", URL: "https://b",
		Source: DefaultSource, SourceConfidence: 0.4, IsRealTime: true,
	}, snippets[1])
	assert.Equal(t, DefaultSource, snippets[2].Source)
	assert.Equal(t, DefaultSourceConfidence, snippets[2].SourceConfidence)
	assert.Empty(t, snippets[2].Content)
	assert.True(t, snippets[2].IsRealTime)
}

func TestProxy_FetchSnippets_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: `{}`},
		{name: "no sources", status: http.StatusOK, body: `{"answer":"x"}`},
		{name: "sources not array", status: http.StatusOK, body: `{"sources":"x"}`},
		{name: "invalid json", status: http.StatusOK, body: `{"sources":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewProxy(httpx.New(httpx.Options{Timeout: time.Second}), Config{URL: server.URL}, nil)
			assert.Empty(t, p.FetchSnippets(context.Background(), "q"))
		})
	}
}

type failingPoster struct{}

func (failingPoster) PostJSON(ctx context.Context, url string, body any) ([]byte, error) {
	return nil, errors.New("dial tcp: refused")
}

func TestProxy_TransportError(t *testing.T) {
	p := NewProxy(failingPoster{}, Config{URL: "http://search.invalid"}, nil)

	_, err := p.fetch(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Empty(t, p.FetchSnippets(context.Background(), "q"))
}

func TestProxy_Disabled(t *testing.T) {
	p := NewProxy(failingPoster{}, Config{}, nil)
	assert.Nil(t, p.FetchSnippets(context.Background(), "q"))
}

func TestParseSnippets_EmptyArray(t *testing.T) {
	snippets, err := ParseSnippets([]byte(`{"sources":[]}`))
	require.NoError(t, err)
	assert.Empty(t, snippets)
}
