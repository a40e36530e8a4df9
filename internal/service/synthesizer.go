package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/metrics"
)

// Fallback reasons reported in the synthesize reasoning line.
const (
	ReasonNoGenerator     = "no generator"
	ReasonGenerationError = "generation error"
	ReasonEmptyGeneration = "empty generation"
	ReasonTimeout         = "timeout"
)

const noContext = "Usando conhecimento geral sobre turismo em MS"

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Synthesizer produces the final answer from local matches and snippets,
// falling back to pre-written answers when generation fails.
type Synthesizer struct {
	generator Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSynthesizer creates a Synthesizer. A nil generator always falls back;
// a non-positive timeout leaves the call bounded only by ctx.
func NewSynthesizer(generator Generator, timeout time.Duration, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		generator: generator,
		timeout:   timeout,
		logger:    logger.Named("synthesizer"),
	}
}

// EvidenceTier grades confidence purely on which evidence is present.
func EvidenceTier(matches []domain.ScoredMatch, snippets []domain.Snippet) domain.ConfidenceTier {
	switch {
	case len(matches) > 0 && len(snippets) > 0:
		return domain.ConfidenceHigh
	case len(matches) > 0:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// EvidenceSources labels the tiers that contributed evidence.
func EvidenceSources(matches []domain.ScoredMatch, snippets []domain.Snippet) []string {
	var sources []string
	if len(matches) > 0 {
		sources = append(sources, domain.SourceLocalKnowledge)
	}
	if len(snippets) > 0 {
		sources = append(sources, domain.SourceRealTime)
	}
	if len(sources) == 0 {
		return []string{domain.SourceGeneral}
	}
	return sources
}

// BuildContext serializes local payloads and snippet contents for the prompt.
func BuildContext(matches []domain.ScoredMatch, snippets []domain.Snippet) string {
	var sb strings.Builder

	if len(matches) > 0 {
		sb.WriteString("CONHECIMENTO LOCAL:\n")
		for _, m := range matches {
			payload, err := json.Marshal(m.Entry.Payload)
			if err != nil {
				payload = []byte(fmt.Sprintf("%v", m.Entry.Payload))
			}
			sb.WriteString("- ")
			sb.Write(payload)
			sb.WriteString("\n")
		}
	}

	if len(snippets) > 0 {
		sb.WriteString("\nDADOS EM TEMPO REAL:\n")
		for _, s := range snippets {
			text := s.Content
			if text == "" {
				text = s.Title
			}
			sb.WriteString("- ")
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	if sb.Len() == 0 {
		return noContext
	}
	return sb.String()
}

// BuildPrompt assembles the persona preamble, context and question.
func BuildPrompt(query string, matches []domain.ScoredMatch, snippets []domain.Snippet) string {
	return fmt.Sprintf(`Você é Guatá, guia de turismo de Mato Grosso do Sul.

ESTILO DE RESPOSTA:
- Tom natural e direto, como um amigo local
- Sem formatação excessiva
- Sem apresentações repetitivas
- Conciso, mas sempre útil

REGRAS:
- Use as informações abaixo para responder de forma completa
- Dê orientações práticas e específicas
- Se não souber um detalhe exato, explique como descobrir
- NUNCA invente nomes específicos de estabelecimentos

INFORMAÇÕES DISPONÍVEIS:
%s

PERGUNTA: %s

Responda de forma conversacional e termine perguntando como pode ajudar mais.`,
		BuildContext(matches, snippets), query)
}

// Synthesize calls the generator once and returns its text with an
// evidence-based confidence. Any failure yields the fallback answer.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, matches []domain.ScoredMatch, snippets []domain.Snippet) domain.Synthesis {
	text, reason := s.generate(ctx, BuildPrompt(query, matches, snippets))
	if reason != "" {
		out := Fallback(query)
		out.FallbackReason = reason
		return out
	}

	return domain.Synthesis{
		Answer:     text,
		Confidence: EvidenceTier(matches, snippets).Score(),
		Sources:    EvidenceSources(matches, snippets),
		Generated:  true,
	}
}

func (s *Synthesizer) generate(ctx context.Context, prompt string) (string, string) {
	if s.generator == nil {
		return "", ReasonNoGenerator
	}
	if err := ctx.Err(); err != nil {
		return "", ReasonTimeout
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, prompt)
	metrics.ObserveAdapter("generation", start, err == nil)

	switch {
	case err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil):
		s.logger.Warn("generation timed out", zap.Error(err))
		return "", ReasonTimeout
	case errors.Is(err, domain.ErrEmptyGeneration):
		return "", ReasonEmptyGeneration
	case err != nil:
		s.logger.Warn("generation failed", zap.Error(err))
		return "", ReasonGenerationError
	case strings.TrimSpace(text) == "":
		return "", ReasonEmptyGeneration
	}
	return text, ""
}
