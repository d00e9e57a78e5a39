package cluster

import (
	"sort"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/core/similarity"
)

// Pair indexes two records of the slice handed to a PairGenerator, I < J.
type Pair struct {
	I, J int
}

// PairGenerator chooses which record pairs are compared.
type PairGenerator interface {
	Pairs(records []model.ProfileRecord) []Pair
}

// AllPairs compares every pair of records.
type AllPairs struct{}

func (AllPairs) Pairs(records []model.ProfileRecord) []Pair {
	n := len(records)
	pairs := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, Pair{I: i, J: j})
		}
	}
	return pairs
}

// TokenBlocking only compares records that share a handle, an exact name or
// at least one bio token. Every pair it skips has a fused score of zero and
// cannot be a deterministic match, so no plausible pair is lost.
type TokenBlocking struct{}

func (TokenBlocking) Pairs(records []model.ProfileRecord) []Pair {
	blocks := make(map[string][]int)
	add := func(key string, idx int) {
		blocks[key] = append(blocks[key], idx)
	}

	for i, r := range records {
		if r.Handle != "" {
			add("h\x00"+r.Handle, i)
		}
		if r.Name != "" {
			add("n\x00"+r.Name, i)
		}
		for tok := range similarity.Tokens(r.Bio) {
			add("b\x00"+tok, i)
		}
	}

	seen := make(map[Pair]struct{})
	for _, members := range blocks {
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				p := Pair{I: members[x], J: members[y]}
				if p.I > p.J {
					p.I, p.J = p.J, p.I
				}
				seen[p] = struct{}{}
			}
		}
	}

	pairs := make([]Pair, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].I != pairs[b].I {
			return pairs[a].I < pairs[b].I
		}
		return pairs[a].J < pairs[b].J
	})
	return pairs
}

// NewPairGenerator returns the generator registered under name. Unknown
// names fall back to TokenBlocking.
func NewPairGenerator(name string) PairGenerator {
	if name == "all" {
		return AllPairs{}
	}
	return TokenBlocking{}
}
