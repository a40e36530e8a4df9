// Package websearch fetches raw real-time snippets through the search proxy.
package websearch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/rag"
)

const (
	// ProxyUserID is sent instead of the real caller.
	ProxyUserID = "web-client"
	// DefaultSource labels snippets that carry no source.
	DefaultSource = "rag"
	// DefaultSourceConfidence is used when a snippet reports none.
	DefaultSourceConfidence = 0.7
)

// Config configures a Proxy.
type Config struct {
	URL       string
	StateCode string
}

// Proxy calls the search edge function and normalizes its sources.
type Proxy struct {
	http      rag.Poster
	url       string
	stateCode string
	logger    *zap.Logger
	now       func() time.Time
}

// NewProxy creates a Proxy. An empty URL disables search.
func NewProxy(poster rag.Poster, cfg Config, logger *zap.Logger) *Proxy {
	if cfg.StateCode == "" {
		cfg.StateCode = rag.DefaultStateCode
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{
		http:      poster,
		url:       cfg.URL,
		stateCode: cfg.StateCode,
		logger:    logger.Named("websearch"),
		now:       time.Now,
	}
}

// FetchSnippets returns normalized snippets for query. Failures yield an
// empty list.
func (p *Proxy) FetchSnippets(ctx context.Context, query string) []domain.Snippet {
	if p.url == "" || p.http == nil {
		return nil
	}

	snippets, err := p.fetch(ctx, query)
	if err != nil {
		p.logger.Warn("search proxy failed", zap.Error(err))
		return nil
	}
	return snippets
}

func (p *Proxy) fetch(ctx context.Context, query string) ([]domain.Snippet, error) {
	data, err := p.http.PostJSON(ctx, p.url, rag.Request{
		Question:  query,
		StateCode: p.stateCode,
		UserID:    ProxyUserID,
		SessionID: "sess_" + strconv.FormatInt(p.now().UnixMilli(), 10),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return ParseSnippets(data)
}

// ParseSnippets normalizes the sources array of a backend payload. A payload
// without a sources array is malformed.
func ParseSnippets(data []byte) ([]domain.Snippet, error) {
	if !gjson.ValidBytes(data) {
		return nil, domain.ErrMalformedPayload
	}
	sources := gjson.GetBytes(data, "sources")
	if !sources.IsArray() {
		return nil, domain.ErrMalformedPayload
	}

	var out []domain.Snippet
	sources.ForEach(func(_, s gjson.Result) bool {
		if !s.IsObject() {
			return true
		}
		out = append(out, normalize(s))
		return true
	})
	return out, nil
}

func normalize(s gjson.Result) domain.Snippet {
	return domain.Snippet{
		Title:            s.Get("title").String(),
		Content:          firstString(s, "snippet", "content"),
		URL:              firstString(s, "link", "url"),
		Source:           orDefault(firstString(s, "source"), DefaultSource),
		SourceConfidence: firstPositive(s, DefaultSourceConfidence, "relevance", "confidence"),
		IsRealTime:       true,
	}
}

func firstString(s gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := s.Get(k); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func firstPositive(s gjson.Result, def float64, keys ...string) float64 {
	for _, k := range keys {
		if v := s.Get(k); v.Type == gjson.Number && v.Float() > 0 {
			return v.Float()
		}
	}
	return def
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
