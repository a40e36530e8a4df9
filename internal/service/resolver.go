package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/logging"
	"github.com/descubra-ms/guata/internal/metrics"
	"github.com/descubra-ms/guata/internal/telemetry"
)

// DefaultResolveTimeout bounds the remote steps of one resolution.
const DefaultResolveTimeout = 20 * time.Second

// ResponseCache stores resolved answers by question.
type ResponseCache interface {
	Get(query string) (*domain.Response, bool)
	Put(query string, resp *domain.Response)
}

// KnowledgeSearcher scores a question against the local knowledge base.
type KnowledgeSearcher interface {
	Search(query string) []domain.ScoredMatch
}

// RealTimeClassifier decides whether live sources should be consulted.
type RealTimeClassifier interface {
	NeedsRealTime(query string) bool
}

// DirectAnswerFetcher asks the RAG backend for an authoritative answer.
type DirectAnswerFetcher interface {
	FetchDirectAnswer(ctx context.Context, query, userID, sessionID string) (*domain.DirectAnswer, bool)
}

// SnippetFetcher retrieves raw real-time snippets.
type SnippetFetcher interface {
	FetchSnippets(ctx context.Context, query string) []domain.Snippet
}

// AnswerSynthesizer builds the final answer from the gathered evidence.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, query string, matches []domain.ScoredMatch, snippets []domain.Snippet) domain.Synthesis
}

// TurnRecorder persists conversation turns asynchronously.
type TurnRecorder interface {
	Record(turn *domain.ConversationTurn)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// ResolverDeps groups the collaborators of a Resolver. Recorder is optional.
type ResolverDeps struct {
	Cache       ResponseCache
	Knowledge   KnowledgeSearcher
	Classifier  RealTimeClassifier
	RAG         DirectAnswerFetcher
	Search      SnippetFetcher
	Synthesizer AnswerSynthesizer
	Recorder    TurnRecorder
}

// Resolver runs the tiered answer pipeline for one question at a time.
type Resolver struct {
	deps    ResolverDeps
	timeout time.Duration
	logger  *zap.Logger
	uuidGen UUIDGenerator
	now     func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolveTimeout overrides DefaultResolveTimeout.
func WithResolveTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithUUIDGenerator sets the generator for conversation turn IDs.
func WithUUIDGenerator(g UUIDGenerator) ResolverOption {
	return func(r *Resolver) {
		if g != nil {
			r.uuidGen = g
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a Resolver.
func NewResolver(deps ResolverDeps, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		deps:    deps,
		timeout: DefaultResolveTimeout,
		logger:  zap.NewNop(),
		uuidGen: &DefaultUUIDGenerator{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve answers query. It always returns a complete response: upstream
// failures only lower confidence and shorten the source list.
func (r *Resolver) Resolve(ctx context.Context, query, sessionID, userID string) *domain.Response {
	start := r.now()
	logger := logging.FromContext(ctx, r.logger).With(zap.String("session_id", sessionID))

	ctx, span := telemetry.StartSpan(ctx, "Resolver.Resolve", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "resolve",
	})
	defer span.End()

	if cached, ok := r.deps.Cache.Get(query); ok {
		metrics.IncCacheLookup(true)
		resp := cached.Copy()
		resp.IsFromCache = true
		resp.Reasoning = append(resp.Reasoning, "cache: hit")
		span.SetData("tier", metrics.TierCache)
		telemetry.RecordReasoning(ctx, resp.Reasoning)
		metrics.IncResolution(metrics.TierCache)
		metrics.ObserveConfidence(resp.Confidence)
		r.record(query, sessionID, userID, resp)
		logger.Debug("answered from cache")
		return resp
	}
	metrics.IncCacheLookup(false)
	reasoning := []string{"cache: miss"}

	matches := r.searchLocal(ctx, sessionID, query)
	reasoning = append(reasoning, fmt.Sprintf("local-search: %d matches", len(matches)))

	// Remote steps are bounded by the resolve deadline only. A caller that
	// goes away must not turn the answer into a cached fallback.
	remoteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if answer, ok := r.attemptRAG(remoteCtx, sessionID, query, userID); ok {
		reasoning = append(reasoning, "rag: direct answer")
		resp := &domain.Response{
			Answer:     answer.Answer,
			Confidence: domain.ClampConfidence(answer.Score()),
			Sources:    []string{domain.SourceRAG},
			Reasoning:  reasoning,
		}
		logger.Info("answered by rag backend", zap.Int("confidence", resp.Confidence))
		return r.finish(ctx, span, start, query, sessionID, userID, resp, metrics.TierRAG)
	}
	reasoning = append(reasoning, "rag: none")

	var snippets []domain.Snippet
	if r.deps.Classifier.NeedsRealTime(query) {
		snippets = r.searchProxy(remoteCtx, sessionID, query)
		reasoning = append(reasoning, fmt.Sprintf("proxy-search: %d snippets", len(snippets)))
	} else {
		reasoning = append(reasoning, "proxy-search: skipped (not time-sensitive)")
	}

	syn := r.synthesize(remoteCtx, sessionID, query, matches, snippets)
	tier := metrics.TierGeneration
	if syn.Generated {
		reasoning = append(reasoning, "synthesize: generated")
	} else {
		tier = metrics.TierFallback
		reasoning = append(reasoning, fmt.Sprintf("synthesize: fallback (%s)", syn.FallbackReason))
	}

	resp := &domain.Response{
		Answer:     syn.Answer,
		Confidence: domain.ClampConfidence(syn.Confidence),
		Sources:    syn.Sources,
		Reasoning:  reasoning,
	}
	logger.Info("question resolved",
		zap.String("tier", tier),
		zap.Int("matches", len(matches)),
		zap.Int("snippets", len(snippets)),
		zap.Int("confidence", resp.Confidence),
	)
	return r.finish(ctx, span, start, query, sessionID, userID, resp, tier)
}

func (r *Resolver) searchLocal(ctx context.Context, sessionID, query string) []domain.ScoredMatch {
	_, span := telemetry.StartSpan(ctx, "Resolver.LocalSearch", telemetry.SpanAttributes{
		SessionID: sessionID,
		Step:      "local-search",
	})
	defer span.End()

	matches := r.deps.Knowledge.Search(query)
	span.SetData("matches", len(matches))
	return matches
}

func (r *Resolver) attemptRAG(ctx context.Context, sessionID, query, userID string) (*domain.DirectAnswer, bool) {
	ctx, span := telemetry.StartSpan(ctx, "Resolver.RAG", telemetry.SpanAttributes{
		SessionID: sessionID,
		Step:      "rag",
	})
	defer span.End()

	start := time.Now()
	answer, ok := r.deps.RAG.FetchDirectAnswer(ctx, query, userID, sessionID)
	metrics.ObserveAdapter("rag", start, ok)
	if ok && (answer == nil || answer.Answer == "") {
		ok = false
	}
	span.SetData("answered", ok)
	return answer, ok
}

func (r *Resolver) searchProxy(ctx context.Context, sessionID, query string) []domain.Snippet {
	ctx, span := telemetry.StartSpan(ctx, "Resolver.ProxySearch", telemetry.SpanAttributes{
		SessionID: sessionID,
		Step:      "proxy-search",
	})
	defer span.End()

	start := time.Now()
	snippets := r.deps.Search.FetchSnippets(ctx, query)
	metrics.ObserveAdapter("websearch", start, len(snippets) > 0)
	span.SetData("snippets", len(snippets))
	return snippets
}

func (r *Resolver) synthesize(ctx context.Context, sessionID, query string, matches []domain.ScoredMatch, snippets []domain.Snippet) domain.Synthesis {
	ctx, span := telemetry.StartSpan(ctx, "Resolver.Synthesize", telemetry.SpanAttributes{
		SessionID: sessionID,
		Step:      "synthesize",
	})
	defer span.End()

	syn := r.deps.Synthesizer.Synthesize(ctx, query, matches, snippets)
	if syn.Answer == "" {
		reason := syn.FallbackReason
		if reason == "" {
			reason = ReasonEmptyGeneration
		}
		syn = Fallback(query)
		syn.FallbackReason = reason
	}
	span.SetData("generated", syn.Generated)
	return syn
}

func (r *Resolver) finish(ctx context.Context, span *telemetry.Span, start time.Time, query, sessionID, userID string, resp *domain.Response, tier string) *domain.Response {
	resp.ProcessingTimeMs = r.now().Sub(start).Milliseconds()
	r.deps.Cache.Put(query, resp)

	span.SetData("tier", tier)
	telemetry.RecordReasoning(ctx, resp.Reasoning)
	metrics.IncResolution(tier)
	metrics.ObserveConfidence(resp.Confidence)
	r.record(query, sessionID, userID, resp)
	return resp
}

func (r *Resolver) record(query, sessionID, userID string, resp *domain.Response) {
	if r.deps.Recorder == nil || sessionID == "" {
		return
	}
	r.deps.Recorder.Record(domain.NewConversationTurn(r.uuidGen.NewString(), sessionID, userID, query, resp, r.now()))
}
