package vector

import (
	"context"
	"math"
	"reflect"
	"sort"
	"sync"

	"github.com/agenthands/creatorgraph/internal/core/model"
)

// MemoryIndex is an exact cosine-similarity index held in process.
type MemoryIndex struct {
	Dimension int

	mu         sync.RWMutex
	namespaces map[string]map[string]model.VectorRecord
}

func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{
		Dimension:  dimension,
		namespaces: make(map[string]map[string]model.VectorRecord),
	}
}

func (m *MemoryIndex) EnsureIndex(context.Context) error {
	return nil
}

func (m *MemoryIndex) Upsert(_ context.Context, namespace string, records []model.VectorRecord) error {
	for _, r := range records {
		if err := checkDimension(m.Dimension, r.Values, r.ID); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]model.VectorRecord)
		m.namespaces[namespace] = ns
	}
	for _, r := range records {
		ns[r.ID] = r
	}
	return nil
}

func (m *MemoryIndex) Delete(_ context.Context, namespace string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns := m.namespaces[namespace]
	for _, id := range ids {
		delete(ns, id)
	}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, vector []float32, topK int, namespace string, filter map[string]any) ([]model.RawCandidate, error) {
	if err := checkDimension(m.Dimension, vector, "query"); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []model.RawCandidate{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.RawCandidate, 0)
	for _, r := range m.namespaces[namespace] {
		if !matches(r.Metadata, filter) {
			continue
		}
		out = append(out, model.RawCandidate{
			ID:       r.ID,
			Score:    Cosine(vector, r.Values),
			Metadata: r.Metadata,
		})
	}

	return best(out, topK), nil
}

// best orders candidates by score, then ID, and keeps the first topK.
func best(out []model.RawCandidate, topK int) []model.RawCandidate {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// Len reports the number of vectors stored in namespace.
func (m *MemoryIndex) Len(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace])
}

func matches(md map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		if got, ok := md[k]; !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of a and b, 0 for zero vectors.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
