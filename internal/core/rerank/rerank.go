// Package rerank fuses retrieval scores with a relevance boost and collapses
// candidates that belong to the same identity cluster.
package rerank

import (
	"context"
	"sort"

	"github.com/agenthands/creatorgraph/internal/core/model"
)

// BoostSignal scores the topical relevance of one candidate for a query.
type BoostSignal interface {
	Boost(query string, c model.RawCandidate) float64
}

// SignalSource produces the boost signal for a single query. Sources that
// need I/O (an LLM judge) do it here, so Rerank itself stays pure.
type SignalSource interface {
	Signal(ctx context.Context, query string, candidates []model.RawCandidate) BoostSignal
}

// ClusterLookup resolves a candidate ID to its identity cluster.
type ClusterLookup interface {
	ClusterOf(key string) (string, bool)
}

type Reranker struct {
	Signal BoostSignal
}

func NewReranker(signal BoostSignal) *Reranker {
	return &Reranker{Signal: signal}
}

// Rerank computes finalScore = retrieval score + boost, keeps the best
// candidate of each cluster and orders the survivors by finalScore,
// preserving retrieval order on ties. A nil clusters lookup treats every
// candidate as its own entity.
func (r *Reranker) Rerank(query string, candidates []model.RawCandidate, clusters ClusterLookup) []model.RankedCandidate {
	return r.rerank(query, candidates, clusters, r.Signal)
}

// RerankWith is Rerank using signal instead of the configured one.
func (r *Reranker) RerankWith(query string, candidates []model.RawCandidate, clusters ClusterLookup, signal BoostSignal) []model.RankedCandidate {
	return r.rerank(query, candidates, clusters, signal)
}

func (r *Reranker) rerank(query string, candidates []model.RawCandidate, clusters ClusterLookup, signal BoostSignal) []model.RankedCandidate {
	if len(candidates) == 0 {
		return []model.RankedCandidate{}
	}

	type entry struct {
		rc  model.RankedCandidate
		pos int // Retrieval position
	}

	best := make(map[string]int) // entity key -> index into kept
	var kept []entry

	for pos, c := range candidates {
		boost := 0.0
		if signal != nil {
			boost = signal.Boost(query, c)
		}
		rc := model.RankedCandidate{
			ID:         c.ID,
			Score:      c.Score,
			Boost:      boost,
			FinalScore: c.Score + boost,
			Metadata:   c.Metadata,
		}

		entity := "id\x00" + c.ID
		if clusters != nil {
			if cid, ok := clusters.ClusterOf(c.ID); ok {
				rc.ClusterID = cid
				entity = "cluster\x00" + cid
			}
		}

		i, seen := best[entity]
		if !seen {
			best[entity] = len(kept)
			kept = append(kept, entry{rc: rc, pos: pos})
			continue
		}

		current := kept[i].rc
		if rc.FinalScore > current.FinalScore {
			rc.MergedIDs = append(current.MergedIDs, current.ID)
			kept[i] = entry{rc: rc, pos: pos}
		} else {
			kept[i].rc.MergedIDs = append(kept[i].rc.MergedIDs, rc.ID)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].rc.FinalScore != kept[j].rc.FinalScore {
			return kept[i].rc.FinalScore > kept[j].rc.FinalScore
		}
		return kept[i].pos < kept[j].pos
	})

	ranked := make([]model.RankedCandidate, len(kept))
	for i, e := range kept {
		ranked[i] = e.rc
	}
	return ranked
}
