// Package similarity holds the pure comparison signals used by identity
// resolution.
package similarity

import "strings"

// Tokens lower-cases text and splits it on whitespace into a set.
func Tokens(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// TokenJaccard returns |A∩B| / |A∪B| over the whitespace token sets of a and b.
// It returns 0 when either side has no tokens.
func TokenJaccard(a, b string) float64 {
	setA := Tokens(a)
	setB := Tokens(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// ExactFieldMatch is case-sensitive equality where empty values never match.
func ExactFieldMatch(a, b string) bool {
	return a != "" && b != "" && a == b
}
