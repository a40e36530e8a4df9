package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/httpx"
)

func newTestServer(t *testing.T, status int, body string, check func(Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if check != nil {
			check(req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_FetchDirectAnswer(t *testing.T) {
	server := newTestServer(t, http.StatusOK,
		`{"answer":"Bonito fica a 295km.","confidence":0.92,"sources":[{"title":"Portal MS","link":"https://ms.gov.br"},"guia"],"total_sources":2}`,
		func(req Request) {
			assert.Equal(t, "onde fica bonito", req.Question)
			assert.Equal(t, "MS", req.StateCode)
			assert.Equal(t, "user-1", req.UserID)
			assert.Equal(t, "sess-1", req.SessionID)
		})

	c := NewClient(httpx.New(httpx.Options{Timeout: time.Second}), Config{URL: server.URL}, nil)
	answer, ok := c.FetchDirectAnswer(context.Background(), "onde fica bonito", "user-1", "sess-1")

	require.True(t, ok)
	assert.Equal(t, "Bonito fica a 295km.", answer.Answer)
	require.NotNil(t, answer.Confidence)
	assert.InDelta(t, 0.92, *answer.Confidence, 1e-9)
	assert.Equal(t, 92, answer.Score())
	assert.Equal(t, []string{"Portal MS", "guia"}, answer.Sources)
}

func TestClient_FetchDirectAnswer_None(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"down"}`},
		{name: "empty answer", status: http.StatusOK, body: `{"answer":"   ","sources":[]}`},
		{name: "snippets only", status: http.StatusOK, body: `{"sources":[{"title":"a","snippet":"b"}]}`},
		{name: "malformed", status: http.StatusOK, body: `{"answer":`},
		{name: "not an object", status: http.StatusOK, body: `["answer"]`},
		{name: "answer wrong type", status: http.StatusOK, body: `{"answer":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.body, nil)
			c := NewClient(httpx.New(httpx.Options{Timeout: time.Second}), Config{URL: server.URL}, nil)

			answer, ok := c.FetchDirectAnswer(context.Background(), "q", "u", "s")
			assert.False(t, ok)
			assert.Nil(t, answer)
		})
	}
}

func TestClient_FetchDirectAnswer_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(httpx.New(httpx.Options{Timeout: 50 * time.Millisecond}), Config{URL: server.URL}, nil)

	start := time.Now()
	_, ok := c.FetchDirectAnswer(context.Background(), "q", "u", "s")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

type errPoster struct{ calls int }

func (p *errPoster) PostJSON(ctx context.Context, url string, body any) ([]byte, error) {
	p.calls++
	return nil, errors.New("connection refused")
}

func TestClient_Disabled(t *testing.T) {
	p := &errPoster{}
	c := NewClient(p, Config{}, nil)

	_, ok := c.FetchDirectAnswer(context.Background(), "q", "u", "s")
	assert.False(t, ok)
	assert.Equal(t, 0, p.calls)
}

func TestClient_TransportError(t *testing.T) {
	p := &errPoster{}
	c := NewClient(p, Config{URL: "http://rag.invalid"}, nil)

	_, err := c.fetch(context.Background(), "q", "u", "s")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 1, p.calls)
}

func TestParseDirectAnswer_DefaultConfidence(t *testing.T) {
	answer, err := ParseDirectAnswer([]byte(`{"answer":"ok"}`))
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Nil(t, answer.Confidence)
	assert.Equal(t, 80, answer.Score())
}

func TestParseDirectAnswer_OutOfRangeConfidence(t *testing.T) {
	answer, err := ParseDirectAnswer([]byte(`{"answer":"ok","confidence":3.5}`))
	require.NoError(t, err)
	assert.Equal(t, 100, answer.Score())
}
