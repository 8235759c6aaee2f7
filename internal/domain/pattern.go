package domain

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// Pattern is the sequence of grid cells a player tapped
type Pattern []int

// Clone returns a copy that does not share the backing array
func (p Pattern) Clone() Pattern {
	if p == nil {
		return nil
	}
	out := make(Pattern, len(p))
	copy(out, p)
	return out
}

// ValidatePattern checks the shape of a submitted pattern: 1..cells taps,
// every tap inside the grid, no cell tapped twice.
func ValidatePattern(p Pattern, cells int) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPattern)
	}
	if len(p) > cells {
		return fmt.Errorf("%w: %d taps on a %d cell grid", ErrInvalidPattern, len(p), cells)
	}

	seen := make(map[int]struct{}, len(p))
	for _, cell := range p {
		if cell < 0 || cell >= cells {
			return fmt.Errorf("%w: cell %d out of range", ErrInvalidPattern, cell)
		}
		if _, dup := seen[cell]; dup {
			return fmt.Errorf("%w: cell %d tapped twice", ErrInvalidPattern, cell)
		}
		seen[cell] = struct{}{}
	}
	return nil
}

// key maps a pattern onto a string, one rune per cell, so edit distance can
// be computed with the levenshtein package.
func (p Pattern) key() string {
	runes := make([]rune, len(p))
	for i, cell := range p {
		runes[i] = 'A' + rune(cell)
	}
	return string(runes)
}

// Similarity is 1 - editDistance/maxLen, in [0, 1]. Two empty patterns are
// identical.
func Similarity(a, b Pattern) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a.key(), b.key())
	return 1 - float64(dist)/float64(maxLen)
}

// SuspicionScores gives each id the mean similarity of its pattern to every
// other listed pattern. Mirrors copying someone tend to score high.
func SuspicionScores(ids []string, patterns map[string]Pattern) map[string]float64 {
	scores := make(map[string]float64, len(ids))
	if len(ids) < 2 {
		for _, id := range ids {
			scores[id] = 0
		}
		return scores
	}

	for _, id := range ids {
		total := 0.0
		for _, other := range ids {
			if other == id {
				continue
			}
			total += Similarity(patterns[id], patterns[other])
		}
		scores[id] = total / float64(len(ids)-1)
	}
	return scores
}
