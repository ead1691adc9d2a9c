package matching

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// DefaultAcceptanceThreshold is the minimum score for a fuzzy match to
	// resolve to an existing supplier.
	DefaultAcceptanceThreshold = 0.85
	// DefaultSuspicionThreshold is the minimum score for two suppliers to be
	// reported as probable duplicates.
	DefaultSuspicionThreshold = 0.80

	scoreTolerance = 1e-9
)

// Similarity returns 1 - levenshtein(a,b)/max(len(a),len(b)) in [0,1].
// Lengths are counted in runes. Two empty strings score 0.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	if a == b {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	score := 1 - float64(distance)/float64(longest)
	if score < 0 {
		return 0
	}
	return score
}

// BestScore returns the highest similarity between input and any of the
// candidates. Empty candidates are skipped.
func BestScore(input string, candidates ...string) float64 {
	best := 0.0
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if s := Similarity(input, c); s > best {
			best = s
		}
	}
	return best
}

// MeetsThreshold compares a score against a threshold with a small tolerance
// so that ratios such as 17/20 are not lost to floating point rounding.
func MeetsThreshold(score, threshold float64) bool {
	return score+scoreTolerance >= threshold
}
