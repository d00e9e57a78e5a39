package store

import (
	"context"
	"sort"
	"sync"

	"github.com/agenthands/creatorgraph/internal/core/model"
)

// MemoryStore keeps everything in process. It backs tests and the offline
// configuration.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]model.ProfileRecord
	clusters []model.IdentityCluster
	edges    []model.IdentityEdge
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]model.ProfileRecord)}
}

func (s *MemoryStore) EnsureSchema(context.Context) error {
	return nil
}

func (s *MemoryStore) UpsertProfile(_ context.Context, p model.ProfileRecord) error {
	if err := validateProfile(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if hk, ok := p.HandleKey(); ok {
		if old, found := s.profiles[hk]; found && old.ID == "" {
			delete(s.profiles, hk)
		}
	}
	s.profiles[p.Key()] = p
	return nil
}

func (s *MemoryStore) GetProfile(_ context.Context, key string) (model.ProfileRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[key]
	return p, ok, nil
}

// ListProfiles returns profiles ordered by key.
func (s *MemoryStore) ListProfiles(context.Context) ([]model.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ProfileRecord, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (s *MemoryStore) SaveIdentities(_ context.Context, clusters []model.IdentityCluster, suggestions []model.IdentityEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clusters = append([]model.IdentityCluster(nil), clusters...)
	s.edges = s.edges[:0]
	for _, c := range clusters {
		s.edges = append(s.edges, c.Edges...)
	}
	s.edges = append(s.edges, suggestions...)
	return nil
}

func (s *MemoryStore) ListClusters(context.Context) ([]model.IdentityCluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.IdentityCluster(nil), s.clusters...), nil
}

func (s *MemoryStore) ClusterIndex(context.Context) (model.ClusterIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.NewClusterIndex(s.clusters), nil
}

// Edges returns every stored identity edge, accepted and advisory.
func (s *MemoryStore) Edges() []model.IdentityEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.IdentityEdge(nil), s.edges...)
}
