package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		wantErr bool
	}{
		{name: "single tap", pattern: Pattern{0}},
		{name: "full grid", pattern: Pattern{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}},
		{name: "empty", pattern: Pattern{}, wantErr: true},
		{name: "nil", pattern: nil, wantErr: true},
		{name: "negative cell", pattern: Pattern{0, -1}, wantErr: true},
		{name: "cell past grid", pattern: Pattern{16}, wantErr: true},
		{name: "repeated cell", pattern: Pattern{3, 4, 3}, wantErr: true},
		{name: "too long", pattern: make(Pattern, 17), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePattern(tt.pattern, 16)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPattern)
				assert.Equal(t, KindInvalidInput, KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPatternClone(t *testing.T) {
	p := Pattern{1, 2, 3}
	c := p.Clone()
	c[0] = 9

	assert.Equal(t, Pattern{1, 2, 3}, p)
	assert.Nil(t, Pattern(nil).Clone())
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity(Pattern{0, 1, 2}, Pattern{0, 1, 2}), 1e-9)
	assert.InDelta(t, 0.0, Similarity(Pattern{0, 1}, Pattern{2, 3}), 1e-9)
	assert.InDelta(t, 2.0/3.0, Similarity(Pattern{0, 1, 2}, Pattern{0, 1}), 1e-9)
	assert.InDelta(t, 1.0, Similarity(Pattern{}, nil), 1e-9)
	assert.InDelta(t, 0.0, Similarity(Pattern{5}, Pattern{}), 1e-9)

	last := MaxGridSize*MaxGridSize - 1
	assert.InDelta(t, 0.0, Similarity(Pattern{last}, Pattern{last - 1}), 1e-9)
}

func TestSuspicionScores(t *testing.T) {
	patterns := map[string]Pattern{
		"a": {0, 1, 2, 3},
		"b": {0, 1, 2, 3},
		"c": {12, 13, 14, 15},
	}

	scores := SuspicionScores([]string{"a", "b", "c"}, patterns)
	require.Len(t, scores, 3)
	assert.InDelta(t, 0.5, scores["a"], 1e-9)
	assert.InDelta(t, 0.5, scores["b"], 1e-9)
	assert.InDelta(t, 0.0, scores["c"], 1e-9)

	scores = SuspicionScores([]string{"a"}, patterns)
	assert.Equal(t, map[string]float64{"a": 0}, scores)
}
