// Package rag calls the remote retrieval-and-answer edge function.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/descubra-ms/guata/internal/domain"
)

// DefaultStateCode scopes backend retrieval to Mato Grosso do Sul.
const DefaultStateCode = "MS"

// Poster sends a JSON body and returns the raw 2xx response body.
type Poster interface {
	PostJSON(ctx context.Context, url string, body any) ([]byte, error)
}

// Request is the body accepted by the edge function.
type Request struct {
	Question  string `json:"question"`
	StateCode string `json:"state_code"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// Config configures a Client.
type Config struct {
	URL       string
	StateCode string
}

// Client fetches direct answers from the RAG backend.
type Client struct {
	http      Poster
	url       string
	stateCode string
	logger    *zap.Logger
}

// NewClient creates a Client. An empty URL disables the backend.
func NewClient(poster Poster, cfg Config, logger *zap.Logger) *Client {
	if cfg.StateCode == "" {
		cfg.StateCode = DefaultStateCode
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:      poster,
		url:       cfg.URL,
		stateCode: cfg.StateCode,
		logger:    logger.Named("rag"),
	}
}

// FetchDirectAnswer asks the backend for a synthesized answer. Any failure,
// including an empty answer, is logged and reported as no answer.
func (c *Client) FetchDirectAnswer(ctx context.Context, query, userID, sessionID string) (*domain.DirectAnswer, bool) {
	if c.url == "" || c.http == nil {
		return nil, false
	}

	answer, err := c.fetch(ctx, query, userID, sessionID)
	if err != nil {
		c.logger.Warn("rag backend unavailable",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, false
	}
	if answer == nil {
		c.logger.Debug("rag backend returned no answer", zap.String("session_id", sessionID))
		return nil, false
	}
	return answer, true
}

func (c *Client) fetch(ctx context.Context, query, userID, sessionID string) (*domain.DirectAnswer, error) {
	data, err := c.http.PostJSON(ctx, c.url, Request{
		Question:  query,
		StateCode: c.stateCode,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return ParseDirectAnswer(data)
}

// ParseDirectAnswer extracts a direct answer from a backend payload. It
// returns nil without error when the payload carries no answer text.
func ParseDirectAnswer(data []byte) (*domain.DirectAnswer, error) {
	if !gjson.ValidBytes(data) {
		return nil, domain.ErrMalformedPayload
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, domain.ErrMalformedPayload
	}

	answer := root.Get("answer")
	if answer.Type != gjson.String || strings.TrimSpace(answer.Str) == "" {
		return nil, nil
	}

	out := &domain.DirectAnswer{Answer: answer.Str}
	if conf := root.Get("confidence"); conf.Type == gjson.Number {
		v := conf.Float()
		out.Confidence = &v
	}
	for _, s := range root.Get("sources").Array() {
		if label := sourceLabel(s); label != "" {
			out.Sources = append(out.Sources, label)
		}
	}
	return out, nil
}

func sourceLabel(s gjson.Result) string {
	if s.Type == gjson.String {
		return s.Str
	}
	if !s.IsObject() {
		return ""
	}
	for _, key := range []string{"title", "link", "url", "source"} {
		if v := s.Get(key).String(); v != "" {
			return v
		}
	}
	return ""
}
