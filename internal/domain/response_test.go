package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceTier_Score(t *testing.T) {
	assert.Equal(t, 95, ConfidenceHigh.Score())
	assert.Equal(t, 80, ConfidenceMedium.Score())
	assert.Equal(t, 65, ConfidenceLow.Score())
	assert.Equal(t, 65, ConfidenceTier("unknown").Score())

	assert.Greater(t, ConfidenceHigh.Score(), ConfidenceMedium.Score())
	assert.Greater(t, ConfidenceMedium.Score(), ConfidenceLow.Score())
}

func TestParseConfidenceTier(t *testing.T) {
	tests := []struct {
		in      string
		want    ConfidenceTier
		wantErr bool
	}{
		{in: "high", want: ConfidenceHigh},
		{in: " MEDIUM ", want: ConfidenceMedium},
		{in: "Low", want: ConfidenceLow},
		{in: "certain", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConfidenceTier(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrInvalidConfidenceTier, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResponse_Copy(t *testing.T) {
	orig := &Response{
		Answer:     "answer",
		Confidence: 80,
		Sources:    []string{"local knowledge"},
		Reasoning:  []string{"cache: miss"},
	}

	cp := orig.Copy()
	cp.IsFromCache = true
	cp.Reasoning = append(cp.Reasoning, "cache: hit")
	cp.Sources[0] = "changed"

	assert.False(t, orig.IsFromCache)
	assert.Equal(t, []string{"cache: miss"}, orig.Reasoning)
	assert.Equal(t, []string{"local knowledge"}, orig.Sources)
	assert.Nil(t, (*Response)(nil).Copy())
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "hotel perto do aeroporto", NormalizeQuery("  Hotel PERTO do Aeroporto \n"))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0, ClampConfidence(-5))
	assert.Equal(t, 100, ClampConfidence(140))
	assert.Equal(t, 80, ClampConfidence(80))
}

func TestDirectAnswer_Score(t *testing.T) {
	high := 0.92
	over := 1.7
	neg := -0.2

	assert.Equal(t, 80, (&DirectAnswer{Answer: "a"}).Score())
	assert.Equal(t, 92, (&DirectAnswer{Answer: "a", Confidence: &high}).Score())
	assert.Equal(t, 100, (&DirectAnswer{Answer: "a", Confidence: &over}).Score())
	assert.Equal(t, 0, (&DirectAnswer{Answer: "a", Confidence: &neg}).Score())
}
