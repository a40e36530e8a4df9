package domain

import "strings"

// ConfidenceTier is one of the fixed confidence levels used instead of
// model-reported confidence.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// Numeric scores for each tier on the 0-100 output scale.
const (
	ScoreHigh   = 95
	ScoreMedium = 80
	ScoreLow    = 65
)

// IsValid checks if the tier is one of the known values
func (t ConfidenceTier) IsValid() bool {
	switch t {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

// Score maps the tier to its fixed 0-100 score. Unknown tiers score LOW.
func (t ConfidenceTier) Score() int {
	switch t {
	case ConfidenceHigh:
		return ScoreHigh
	case ConfidenceMedium:
		return ScoreMedium
	default:
		return ScoreLow
	}
}

// ParseConfidenceTier parses a tier name, case-insensitively.
func ParseConfidenceTier(s string) (ConfidenceTier, error) {
	t := ConfidenceTier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidConfidenceTier
	}
	return t, nil
}

// Source labels reported in Response.Sources.
const (
	SourceLocalKnowledge = "local knowledge"
	SourceRealTime       = "real-time search"
	SourceGeneral        = "general knowledge"
	SourceRAG            = "rag backend"
)

// Response is the externally visible result of resolving one question.
type Response struct {
	Answer           string   `json:"answer"`
	Confidence       int      `json:"confidence"`
	Sources          []string `json:"sources"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	Reasoning        []string `json:"reasoning"`
	IsFromCache      bool     `json:"is_from_cache"`
}

// Copy returns a copy of the response whose slices do not alias the original.
func (r *Response) Copy() *Response {
	if r == nil {
		return nil
	}
	out := *r
	out.Sources = append([]string(nil), r.Sources...)
	out.Reasoning = append([]string(nil), r.Reasoning...)
	return &out
}

// NormalizeQuery trims and case-folds a question. Cache keys and keyword
// matching both use this form.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// ClampConfidence bounds a confidence score to [0,100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
