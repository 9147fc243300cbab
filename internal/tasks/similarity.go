package tasks

import (
	"regexp"
	"strings"
)

// SimilarityThreshold is the minimum normalized similarity for two titles to match.
const SimilarityThreshold = 0.7

var (
	parenthetical = regexp.MustCompile(`\(.*?\)`)
	bracketed     = regexp.MustCompile(`\[.*?\]`)
	featuring     = regexp.MustCompile(`(?i)feat\..*$`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// NormalizeTitle lower-cases s and strips parenthetical, bracketed and "feat." content.
func NormalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = parenthetical.ReplaceAllString(s, "")
	s = bracketed.ReplaceAllString(s, "")
	s = featuring.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsSimilar reports whether a and b name the same song or artist after normalization.
func IsSimilar(a, b string) bool {
	return Similarity(a, b) >= SimilarityThreshold
}

// Similarity scores normalized a and b in [0, 1] as 1 - distance/maxLength.
func Similarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == nb {
		return 1
	}

	ra, rb := []rune(na), []rune(nb)
	maxLen := max(len(ra), len(rb))
	return 1 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// Levenshtein returns the edit distance between a and b, counting runes.
func Levenshtein(a, b string) int {
	return levenshtein([]rune(a), []rune(b))
}

// levenshtein fills the full (len(b)+1) x (len(a)+1) matrix, seeding the first row and column with their indices.
func levenshtein(a, b []rune) int {
	matrix := make([][]int, len(b)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(a)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(b); i++ {
		for j := 1; j <= len(a); j++ {
			if b[i-1] == a[j-1] {
				matrix[i][j] = matrix[i-1][j-1]
				continue
			}
			matrix[i][j] = min(
				matrix[i-1][j-1]+1, // substitution
				matrix[i][j-1]+1,   // insertion
				matrix[i-1][j]+1,   // deletion
			)
		}
	}

	return matrix[len(b)][len(a)]
}
