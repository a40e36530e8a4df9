package domain

// DirectAnswer is a synthesized answer returned by the RAG backend.
type DirectAnswer struct {
	Answer string
	// Confidence is in [0,1]. Nil when the backend did not report one.
	Confidence *float64
	Sources    []string
}

// DefaultRAGConfidence is used when the backend omits a confidence.
const DefaultRAGConfidence = 0.8

// Score rescales the backend confidence to the 0-100 output range.
func (a *DirectAnswer) Score() int {
	c := DefaultRAGConfidence
	if a.Confidence != nil {
		c = *a.Confidence
	}
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return int(c*100 + 0.5)
}

// Snippet is one normalized search result used to build generation context.
type Snippet struct {
	Title            string  `json:"title"`
	Content          string  `json:"content"`
	URL              string  `json:"url"`
	Source           string  `json:"source"`
	SourceConfidence float64 `json:"source_confidence"`
	IsRealTime       bool    `json:"is_real_time"`
}

// Synthesis is what the answer synthesizer hands back to the resolver.
type Synthesis struct {
	Answer     string
	Confidence int
	Sources    []string
	// Generated is false when the deterministic fallback produced the answer.
	Generated bool
	// FallbackReason explains why generation was skipped or failed.
	FallbackReason string
}
