// Package knowledge scores questions against the static local knowledge base.
package knowledge

import (
	"sort"
	"strings"

	"github.com/descubra-ms/guata/internal/domain"
)

const (
	// HitWeight is added for every keyword/token containment hit.
	HitWeight = 0.3
	// MinRelevance is the exclusive inclusion threshold.
	MinRelevance = 0.3
)

// Scorer computes the relevance of an entry's keywords for a set of query
// tokens. Results must be in [0,1].
type Scorer func(tokens []string, keywords []string) float64

// ContainmentScorer adds HitWeight for every keyword/token pair where either
// contains the other, clamped to 1.
func ContainmentScorer(tokens []string, keywords []string) float64 {
	score := 0.0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, tok := range tokens {
			if strings.Contains(tok, kw) || strings.Contains(kw, tok) {
				score += HitWeight
			}
		}
	}
	if score > 1 {
		return 1
	}
	return score
}

// Index is an immutable, ordered set of knowledge entries.
type Index struct {
	entries []*domain.KnowledgeEntry
	byID    map[string]*domain.KnowledgeEntry
	scorer  Scorer
}

// Option configures an Index.
type Option func(*Index)

// WithScorer replaces the default containment scorer.
func WithScorer(s Scorer) Option {
	return func(i *Index) {
		if s != nil {
			i.scorer = s
		}
	}
}

// NewIndex validates entries and builds an index preserving their order.
func NewIndex(entries []*domain.KnowledgeEntry, opts ...Option) (*Index, error) {
	idx := &Index{
		entries: make([]*domain.KnowledgeEntry, 0, len(entries)),
		byID:    make(map[string]*domain.KnowledgeEntry, len(entries)),
		scorer:  ContainmentScorer,
	}
	for _, opt := range opts {
		opt(idx)
	}

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := idx.byID[e.ID]; dup {
			return nil, domain.NewDomainError(domain.ErrCodeConflict, "duplicate knowledge entry "+e.ID)
		}
		idx.entries = append(idx.entries, e)
		idx.byID[e.ID] = e
	}
	return idx, nil
}

// Search returns entries whose relevance for query is above MinRelevance,
// most relevant first. Ties keep declaration order.
func (i *Index) Search(query string) []domain.ScoredMatch {
	tokens := strings.Fields(domain.NormalizeQuery(query))
	if len(tokens) == 0 {
		return nil
	}

	var matches []domain.ScoredMatch
	for _, e := range i.entries {
		rel := i.scorer(tokens, e.Keywords)
		if rel > MinRelevance {
			matches = append(matches, domain.ScoredMatch{Entry: e, Relevance: rel})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Relevance > matches[b].Relevance
	})
	return matches
}

// Entries returns the entries in declaration order.
func (i *Index) Entries() []*domain.KnowledgeEntry {
	return append([]*domain.KnowledgeEntry(nil), i.entries...)
}

// Get looks up an entry by ID.
func (i *Index) Get(id string) (*domain.KnowledgeEntry, error) {
	e, ok := i.byID[id]
	if !ok {
		return nil, domain.ErrKnowledgeEntryNotFound
	}
	return e, nil
}

// Len reports the number of entries.
func (i *Index) Len() int {
	return len(i.entries)
}
