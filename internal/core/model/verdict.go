package model

type MatchType string

const (
	MatchDeterministic MatchType = "deterministic"
	MatchProbabilistic MatchType = "probabilistic"
	MatchSuggestion    MatchType = "suggestion"
	MatchNone          MatchType = "none"
)

type Reason string

const (
	ReasonVerifiedHandle Reason = "verified_handle_match"
	ReasonHighConfidence Reason = "high_confidence_signals"
	ReasonNeedsReview    Reason = "needs_review"
	ReasonAbsent         Reason = "absent"
	// ReasonAnchorConflict marks an accepted edge whose merge was refused
	// because both sides were anchored to different verified handles. It is
	// kept as an advisory edge for manual review.
	ReasonAnchorConflict Reason = "conflicting_verified_handles"
)

// MatchVerdict is the outcome of comparing two profiles.
type MatchVerdict struct {
	IsMatch   bool      `json:"match"`
	MatchType MatchType `json:"type"`
	Score     float64   `json:"score"`
	Reason    Reason    `json:"reason"`
}

// NoMatch is the verdict for pairs with no usable signal.
func NoMatch() MatchVerdict {
	return MatchVerdict{MatchType: MatchNone, Score: 0.0, Reason: ReasonAbsent}
}
