package rerank

import (
	"context"
	"strings"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/core/similarity"
)

// KeywordBoost adds Amount when the candidate bio contains one of Keywords
// (case-sensitive substring). With MatchQueryTerms the lower-cased query
// tokens count as keywords too.
type KeywordBoost struct {
	Keywords        []string
	Amount          float64
	MatchQueryTerms bool
}

func (k KeywordBoost) Boost(query string, c model.RawCandidate) float64 {
	bio := c.Bio()
	if bio == "" {
		return 0.0
	}
	for _, kw := range k.Keywords {
		if kw != "" && strings.Contains(bio, kw) {
			return k.Amount
		}
	}
	if k.MatchQueryTerms {
		bioTokens := similarity.Tokens(bio)
		for tok := range similarity.Tokens(query) {
			if _, ok := bioTokens[tok]; ok {
				return k.Amount
			}
		}
	}
	return 0.0
}

func (k KeywordBoost) Signal(context.Context, string, []model.RawCandidate) BoostSignal {
	return k
}

// StaticBoost is a precomputed boost per candidate ID.
type StaticBoost map[string]float64

func (s StaticBoost) Boost(_ string, c model.RawCandidate) float64 {
	return s[c.ID]
}
