package domain

import "strings"

// KnowledgeEntry is one static topic of the local knowledge base.
type KnowledgeEntry struct {
	ID             string
	Keywords       []string
	Payload        any
	BaseConfidence ConfidenceTier
}

// NewKnowledgeEntry creates a new KnowledgeEntry instance
func NewKnowledgeEntry(id string, keywords []string, payload any, tier ConfidenceTier) *KnowledgeEntry {
	return &KnowledgeEntry{
		ID:             id,
		Keywords:       keywords,
		Payload:        payload,
		BaseConfidence: tier,
	}
}

// Validate checks the entry can take part in scoring. Payload shape is not
// checked; that is the consumer's concern.
func (e *KnowledgeEntry) Validate() error {
	if e.ID == "" {
		return NewDomainError(ErrCodeValidation, "knowledge entry id is required")
	}
	if len(e.Keywords) == 0 {
		return NewDomainError(ErrCodeValidation, "knowledge entry "+e.ID+" has no keywords")
	}
	// A blank keyword is contained in every token and would match any query.
	for _, kw := range e.Keywords {
		if strings.TrimSpace(kw) == "" {
			return NewDomainError(ErrCodeValidation, "knowledge entry "+e.ID+" has a blank keyword")
		}
	}
	if !e.BaseConfidence.IsValid() {
		return ErrInvalidConfidenceTier
	}
	return nil
}

// ScoredMatch pairs an entry with its relevance for one query.
type ScoredMatch struct {
	Entry     *KnowledgeEntry
	Relevance float64
}
