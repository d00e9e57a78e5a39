// Package cluster groups platform profiles into identity clusters: connected
// components of accepted identity edges.
package cluster

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/creatorgraph/internal/core/identity"
	"github.com/agenthands/creatorgraph/internal/core/model"
)

var (
	clusterNamespace = uuid.MustParse("b0e3f4a2-5c7d-4e41-8d0b-7f2a61c9e4d5")
	edgeNamespace    = uuid.MustParse("1d6a8c3e-9b2f-4a70-b5e1-04c7d3f8a926")
)

const pairsPerTask = 256

// Result is the outcome of one build.
type Result struct {
	Clusters    []model.IdentityCluster `json:"clusters"`
	Suggestions []model.IdentityEdge    `json:"suggestions"`
	Conflicts   []model.ClusterConflict `json:"conflicts"`
	Compared    int                     `json:"compared"`
	Malformed   int                     `json:"malformed"`
}

// Index returns the record key to cluster UUID lookup for the result.
func (r *Result) Index() model.ClusterIndex {
	return model.NewClusterIndex(r.Clusters)
}

type Builder struct {
	Resolver *identity.Resolver
	Workers  int
	Logger   *slog.Logger
}

func NewBuilder(resolver *identity.Resolver, workers int, logger *slog.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		Resolver: resolver,
		Workers:  workers,
		Logger:   logger,
	}
}

// Build resolves the pairs chosen by gen and merges accepted edges into
// clusters. Pair evaluation runs on up to Workers goroutines; merging is
// single-writer and follows a canonical edge order, so the output does not
// depend on the order of records.
func (b *Builder) Build(records []model.ProfileRecord, gen PairGenerator) (*Result, error) {
	sorted, err := sortRecords(records)
	if err != nil {
		return nil, err
	}

	malformed := 0
	for _, r := range sorted {
		if r.IsMalformed() {
			malformed++
			b.Logger.Debug("profile has no comparable fields", "key", r.Key())
		}
	}

	pairs := gen.Pairs(sorted)
	verdicts := make([]model.MatchVerdict, len(pairs))

	var g errgroup.Group
	g.SetLimit(b.Workers)
	for start := 0; start < len(pairs); start += pairsPerTask {
		end := min(start+pairsPerTask, len(pairs))
		g.Go(func() error {
			for k := start; k < end; k++ {
				p := pairs[k]
				verdicts[k] = b.Resolver.Resolve(sorted[p.I], sorted[p.J])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var edges []model.IdentityEdge
	for k, v := range verdicts {
		if v.MatchType == model.MatchNone {
			continue
		}
		p := pairs[k]
		edges = append(edges, NewEdge(sorted[p.I], sorted[p.J], v))
	}

	res := Merge(sorted, edges)
	res.Compared = len(pairs)
	res.Malformed = malformed

	for _, c := range res.Conflicts {
		b.Logger.Warn("refused identity merge",
			"error", c.Err(),
			"left_anchor", c.LeftAnchor,
			"right_anchor", c.RightAnchor,
			"source", c.Edge.SourceKey,
			"target", c.Edge.TargetKey,
		)
	}
	b.Logger.Info("identity graph built",
		"records", len(sorted),
		"compared", res.Compared,
		"clusters", len(res.Clusters),
		"suggestions", len(res.Suggestions),
		"conflicts", len(res.Conflicts),
	)

	return res, nil
}

// NewEdge orients the verdict between a and b by key and gives it a stable ID.
func NewEdge(a, b model.ProfileRecord, v model.MatchVerdict) model.IdentityEdge {
	src, dst := a.Key(), b.Key()
	if dst < src {
		src, dst = dst, src
	}
	e := model.IdentityEdge{
		UUID:      uuid.NewSHA1(edgeNamespace, []byte(src+"\x00"+dst)).String(),
		SourceKey: src,
		TargetKey: dst,
		Verdict:   v,
	}
	if v.MatchType == model.MatchDeterministic {
		e.Handle = a.Handle
	}
	return e
}

// Merge unions the accepted edges over records, which must have unique keys.
// Deterministic edges are applied first, then probabilistic edges by
// descending score and key, so the partition is the same for any permutation
// of edges. Suggestions, including edges refused by an anchor conflict, are
// attached to the clusters they touch and never merge anything.
func Merge(records []model.ProfileRecord, edges []model.IdentityEdge) *Result {
	records = sortedCopy(records)
	index := make(map[string]int, len(records))
	for i, r := range records {
		index[r.Key()] = i
	}

	ordered := make([]model.IdentityEdge, 0, len(edges))
	for _, e := range edges {
		if e.Verdict.MatchType == model.MatchNone {
			continue
		}
		if _, ok := index[e.SourceKey]; !ok {
			continue
		}
		if _, ok := index[e.TargetKey]; !ok {
			continue
		}
		ordered = append(ordered, e)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return edgeLess(ordered[i], ordered[j])
	})

	ds := NewDisjointSet(len(records))
	res := &Result{}
	var accepted []model.IdentityEdge

	for _, e := range ordered {
		si, ti := index[e.SourceKey], index[e.TargetKey]
		if !e.Verdict.IsMatch {
			res.Suggestions = append(res.Suggestions, e)
			continue
		}

		merged, la, lb := ds.Union(si, ti)
		if !merged {
			res.Conflicts = append(res.Conflicts, model.ClusterConflict{
				Edge:         e,
				LeftCluster:  memberKeys(records, ds, si),
				RightCluster: memberKeys(records, ds, ti),
				LeftAnchor:   la,
				RightAnchor:  lb,
			})
			res.Suggestions = append(res.Suggestions, advisory(e))
			continue
		}
		if e.Verdict.MatchType == model.MatchDeterministic && e.Handle != "" {
			ds.SetAnchor(si, e.Handle)
		}
		accepted = append(accepted, e)
	}

	groups := ds.Groups(2)
	byRoot := make(map[int]int, len(groups))
	for gi, members := range groups {
		keys := make([]string, len(members))
		c := model.IdentityCluster{
			Members: make([]model.ProfileRecord, len(members)),
			Anchor:  ds.Anchor(members[0]),
		}
		for k, idx := range members {
			c.Members[k] = records[idx]
			keys[k] = records[idx].Key()
		}
		c.UUID = ClusterID(keys)
		res.Clusters = append(res.Clusters, c)
		byRoot[ds.Find(members[0])] = gi
	}

	for _, e := range accepted {
		gi := byRoot[ds.Find(index[e.SourceKey])]
		res.Clusters[gi].Edges = append(res.Clusters[gi].Edges, e)
	}
	for _, e := range res.Suggestions {
		si, ok1 := byRoot[ds.Find(index[e.SourceKey])]
		ti, ok2 := byRoot[ds.Find(index[e.TargetKey])]
		if ok1 {
			res.Clusters[si].Suggestions = append(res.Clusters[si].Suggestions, e)
		}
		if ok2 && (!ok1 || ti != si) {
			res.Clusters[ti].Suggestions = append(res.Clusters[ti].Suggestions, e)
		}
	}

	return res
}

// advisory demotes a refused edge to a non-merging suggestion so it is
// persisted next to the clusters it would have joined.
func advisory(e model.IdentityEdge) model.IdentityEdge {
	e.Verdict = model.MatchVerdict{
		IsMatch:   false,
		MatchType: model.MatchSuggestion,
		Score:     e.Verdict.Score,
		Reason:    model.ReasonAnchorConflict,
	}
	e.Handle = ""
	return e
}

// ClusterID derives the cluster UUID from its sorted member keys.
func ClusterID(sortedKeys []string) string {
	return uuid.NewSHA1(clusterNamespace, []byte(strings.Join(sortedKeys, "\n"))).String()
}

func edgeLess(a, b model.IdentityEdge) bool {
	ad := a.Verdict.MatchType == model.MatchDeterministic
	bd := b.Verdict.MatchType == model.MatchDeterministic
	if ad != bd {
		return ad
	}
	if a.Verdict.Score != b.Verdict.Score {
		return a.Verdict.Score > b.Verdict.Score
	}
	if a.SourceKey != b.SourceKey {
		return a.SourceKey < b.SourceKey
	}
	return a.TargetKey < b.TargetKey
}

func memberKeys(records []model.ProfileRecord, ds *DisjointSet, x int) []string {
	root := ds.Find(x)
	var keys []string
	for i := range records {
		if ds.Find(i) == root {
			keys = append(keys, records[i].Key())
		}
	}
	return keys
}

func sortedCopy(records []model.ProfileRecord) []model.ProfileRecord {
	sorted := make([]model.ProfileRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key() < sorted[j].Key()
	})
	return sorted
}

func sortRecords(records []model.ProfileRecord) ([]model.ProfileRecord, error) {
	sorted := sortedCopy(records)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key() == sorted[i-1].Key() {
			return nil, fmt.Errorf("%w: duplicate profile key %q", model.ErrInvalidRecord, sorted[i].Key())
		}
	}
	return sorted, nil
}
