package resilience

import (
	"context"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/llm"
	"github.com/agenthands/creatorgraph/internal/store"
	"github.com/agenthands/creatorgraph/internal/vector"
)

type Embedder struct {
	Next    llm.EmbedderClient
	Breaker *Breaker
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return call(e.Breaker, func() ([][]float32, error) {
		return e.Next.Embed(ctx, texts)
	})
}

type Ranker struct {
	Next    llm.RerankerClient
	Breaker *Breaker
}

func (r *Ranker) Rank(ctx context.Context, query string, documents []string) ([]int, error) {
	return call(r.Breaker, func() ([]int, error) {
		return r.Next.Rank(ctx, query, documents)
	})
}

type Index struct {
	Next    vector.Index
	Breaker *Breaker
}

func (i *Index) EnsureIndex(ctx context.Context) error {
	return run(i.Breaker, func() error {
		return i.Next.EnsureIndex(ctx)
	})
}

func (i *Index) Upsert(ctx context.Context, namespace string, records []model.VectorRecord) error {
	return run(i.Breaker, func() error {
		return i.Next.Upsert(ctx, namespace, records)
	})
}

func (i *Index) Delete(ctx context.Context, namespace string, ids []string) error {
	return run(i.Breaker, func() error {
		return i.Next.Delete(ctx, namespace, ids)
	})
}

func (i *Index) Query(ctx context.Context, v []float32, topK int, namespace string, filter map[string]any) ([]model.RawCandidate, error) {
	return call(i.Breaker, func() ([]model.RawCandidate, error) {
		return i.Next.Query(ctx, v, topK, namespace, filter)
	})
}

type Store struct {
	Next    store.ProfileStore
	Breaker *Breaker
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return run(s.Breaker, func() error {
		return s.Next.EnsureSchema(ctx)
	})
}

func (s *Store) UpsertProfile(ctx context.Context, p model.ProfileRecord) error {
	return run(s.Breaker, func() error {
		return s.Next.UpsertProfile(ctx, p)
	})
}

func (s *Store) GetProfile(ctx context.Context, key string) (model.ProfileRecord, bool, error) {
	type found struct {
		p  model.ProfileRecord
		ok bool
	}
	res, err := call(s.Breaker, func() (found, error) {
		p, ok, err := s.Next.GetProfile(ctx, key)
		return found{p, ok}, err
	})
	return res.p, res.ok, err
}

func (s *Store) ListProfiles(ctx context.Context) ([]model.ProfileRecord, error) {
	return call(s.Breaker, func() ([]model.ProfileRecord, error) {
		return s.Next.ListProfiles(ctx)
	})
}

func (s *Store) SaveIdentities(ctx context.Context, clusters []model.IdentityCluster, suggestions []model.IdentityEdge) error {
	return run(s.Breaker, func() error {
		return s.Next.SaveIdentities(ctx, clusters, suggestions)
	})
}

func (s *Store) ListClusters(ctx context.Context) ([]model.IdentityCluster, error) {
	return call(s.Breaker, func() ([]model.IdentityCluster, error) {
		return s.Next.ListClusters(ctx)
	})
}

func (s *Store) ClusterIndex(ctx context.Context) (model.ClusterIndex, error) {
	return call(s.Breaker, func() (model.ClusterIndex, error) {
		return s.Next.ClusterIndex(ctx)
	})
}
