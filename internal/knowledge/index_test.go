package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descubra-ms/guata/internal/domain"
)

func defaultIndex(t *testing.T) *Index {
	t.Helper()
	entries, err := Default()
	require.NoError(t, err)
	idx, err := NewIndex(entries)
	require.NoError(t, err)
	return idx
}

func ids(matches []domain.ScoredMatch) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Entry.ID)
	}
	return out
}

func TestContainmentScorer(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		keywords []string
		want     float64
	}{
		{name: "no hits", tokens: []string{"praia"}, keywords: []string{"bonito"}, want: 0},
		{name: "exact hit", tokens: []string{"hotel"}, keywords: []string{"hotel"}, want: 0.3},
		{name: "token inside keyword", tokens: []string{"lago"}, keywords: []string{"lago azul"}, want: 0.3},
		{name: "keyword inside token", tokens: []string{"hotelaria"}, keywords: []string{"hotel"}, want: 0.3},
		{name: "two hits", tokens: []string{"hotel", "aeroporto"}, keywords: []string{"hotel", "aeroporto"}, want: 0.6},
		{name: "clamped", tokens: []string{"a", "b", "c", "d"}, keywords: []string{"abcd"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ContainmentScorer(tt.tokens, tt.keywords), 1e-9)
		})
	}
}

func TestIndex_Search_AirportHotels(t *testing.T) {
	idx := defaultIndex(t)

	matches := idx.Search("hotel perto do aeroporto")

	require.Len(t, matches, 1)
	assert.Equal(t, "hotels_airport", matches[0].Entry.ID)
	assert.InDelta(t, 0.6, matches[0].Relevance, 1e-9)
	assert.Equal(t, domain.ConfidenceHigh, matches[0].Entry.BaseConfidence)
}

func TestIndex_Search_Normalizes(t *testing.T) {
	idx := defaultIndex(t)

	upper := idx.Search("  HOTEL perto do AEROPORTO ")
	lower := idx.Search("hotel perto do aeroporto")
	assert.Equal(t, ids(lower), ids(upper))
}

func TestIndex_Search_ClampsToOne(t *testing.T) {
	idx := defaultIndex(t)

	matches := idx.Search("gruta lago azul bonito")
	require.NotEmpty(t, matches)
	assert.Equal(t, "bonito_info", matches[0].Entry.ID)
	assert.InDelta(t, 1.0, matches[0].Relevance, 1e-9)
}

func TestIndex_Search_SingleHitExcluded(t *testing.T) {
	idx := defaultIndex(t)

	// One hit scores exactly the threshold, which is not enough.
	assert.Empty(t, idx.Search("pantanal"))
}

func TestIndex_Search_EmptyQuery(t *testing.T) {
	idx := defaultIndex(t)

	assert.Empty(t, idx.Search(""))
	assert.Empty(t, idx.Search("   "))
}

func TestIndex_Search_OrderAndTies(t *testing.T) {
	entries := []*domain.KnowledgeEntry{
		domain.NewKnowledgeEntry("first", []string{"alpha", "beta"}, nil, domain.ConfidenceLow),
		domain.NewKnowledgeEntry("second", []string{"alpha", "beta", "gamma"}, nil, domain.ConfidenceLow),
		domain.NewKnowledgeEntry("third", []string{"alpha", "beta"}, nil, domain.ConfidenceLow),
		domain.NewKnowledgeEntry("unrelated", []string{"zeta"}, nil, domain.ConfidenceLow),
	}
	idx, err := NewIndex(entries)
	require.NoError(t, err)

	matches := idx.Search("alpha beta gamma")

	assert.Equal(t, []string{"second", "first", "third"}, ids(matches))
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Relevance, matches[i].Relevance)
	}
}

func TestIndex_Search_MalformedPayloadReturnedAsIs(t *testing.T) {
	payload := []int{1, 2, 3}
	idx, err := NewIndex([]*domain.KnowledgeEntry{
		domain.NewKnowledgeEntry("odd", []string{"odd", "thing"}, payload, domain.ConfidenceMedium),
	})
	require.NoError(t, err)

	matches := idx.Search("odd thing")
	require.Len(t, matches, 1)
	assert.Equal(t, payload, matches[0].Entry.Payload)
}

func TestIndex_WithScorer(t *testing.T) {
	entries, err := Default()
	require.NoError(t, err)

	always := func(tokens, keywords []string) float64 { return 0.5 }
	idx, err := NewIndex(entries, WithScorer(always))
	require.NoError(t, err)

	matches := idx.Search("qualquer coisa")
	assert.Len(t, matches, len(entries))
	assert.Equal(t, "hotels_airport", matches[0].Entry.ID)
}

func TestNewIndex_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entries []*domain.KnowledgeEntry
		errMsg  string
	}{
		{
			name: "duplicate id",
			entries: []*domain.KnowledgeEntry{
				domain.NewKnowledgeEntry("a", []string{"x"}, nil, domain.ConfidenceLow),
				domain.NewKnowledgeEntry("a", []string{"y"}, nil, domain.ConfidenceLow),
			},
			errMsg: "duplicate",
		},
		{
			name: "no keywords",
			entries: []*domain.KnowledgeEntry{
				domain.NewKnowledgeEntry("a", nil, nil, domain.ConfidenceLow),
			},
			errMsg: "keywords",
		},
		{
			name: "blank keyword",
			entries: []*domain.KnowledgeEntry{
				domain.NewKnowledgeEntry("hotels", []string{"hotel", ""}, nil, domain.ConfidenceMedium),
			},
			errMsg: "blank keyword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndex(tt.entries)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_RejectsBlankKeyword(t *testing.T) {
	entries, err := Parse([]byte(`entries:
  - id: hotels
    keywords: [hotel, ""]
    confidence: medium
`))
	require.NoError(t, err)

	_, err = NewIndex(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blank keyword")
}

func TestIndex_Get(t *testing.T) {
	idx := defaultIndex(t)

	e, err := idx.Get("pantanal_info")
	require.NoError(t, err)
	assert.Contains(t, e.Keywords, "onça")

	_, err = idx.Get("missing")
	assert.ErrorIs(t, err, domain.ErrKnowledgeEntryNotFound)
}
