// Package identity decides whether two platform profiles denote the same
// creator.
package identity

import (
	"math"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/core/similarity"
)

// Thresholds and weights of the probabilistic tier.
type Policy struct {
	MatchThreshold      float64 // Scores above this are probabilistic matches
	SuggestionThreshold float64 // Scores above this (up to MatchThreshold) need review
	BioWeight           float64
	NameWeight          float64
}

func DefaultPolicy() Policy {
	return Policy{
		MatchThreshold:      0.85,
		SuggestionThreshold: 0.5,
		BioWeight:           0.8,
		NameWeight:          0.2,
	}
}

type Resolver struct {
	Policy Policy
}

func NewResolver(policy Policy) *Resolver {
	return &Resolver{Policy: policy}
}

// Resolve compares source and target. The first applicable tier wins:
// verified identical handles, then the fused bio/name score.
// Missing fields only lower the score; Resolve never fails.
func (r *Resolver) Resolve(source, target model.ProfileRecord) model.MatchVerdict {
	if IsDeterministicPair(source, target) {
		return model.MatchVerdict{
			IsMatch:   true,
			MatchType: model.MatchDeterministic,
			Score:     1.0,
			Reason:    model.ReasonVerifiedHandle,
		}
	}

	return r.Classify(r.FusedScore(source, target))
}

// IsDeterministicPair reports verified profiles sharing the same non-empty handle.
func IsDeterministicPair(a, b model.ProfileRecord) bool {
	return a.Verified && b.Verified && similarity.ExactFieldMatch(a.Handle, b.Handle)
}

// FusedScore is the weighted sum of bio token overlap and name equality.
func (r *Resolver) FusedScore(a, b model.ProfileRecord) float64 {
	score := similarity.TokenJaccard(a.Bio, b.Bio) * r.Policy.BioWeight
	if similarity.ExactFieldMatch(a.Name, b.Name) {
		score += r.Policy.NameWeight
	}
	return score
}

// scoreEpsilon absorbs rounding in the weighted sum, so a fused score that is
// mathematically equal to a threshold does not clear it.
const scoreEpsilon = 1e-9

// Classify maps a fused score to a verdict. Both thresholds are exclusive
// lower bounds.
func (r *Resolver) Classify(score float64) model.MatchVerdict {
	switch {
	case score > r.Policy.MatchThreshold+scoreEpsilon:
		return model.MatchVerdict{
			IsMatch:   true,
			MatchType: model.MatchProbabilistic,
			Score:     Round2(score),
			Reason:    model.ReasonHighConfidence,
		}
	case score > r.Policy.SuggestionThreshold+scoreEpsilon:
		return model.MatchVerdict{
			IsMatch:   false,
			MatchType: model.MatchSuggestion,
			Score:     Round2(score),
			Reason:    model.ReasonNeedsReview,
		}
	default:
		return model.NoMatch()
	}
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
