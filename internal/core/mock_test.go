package core

import (
	"context"
	"sync"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/core/rerank"
)

type MockEmbedder struct {
	Dimension int
	Err       error

	mu      sync.Mutex
	Batches [][]string
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.Batches = append(m.Batches, texts)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, m.Dimension)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

// MockSignals boosts fixed candidate IDs and records the query it saw.
type MockSignals struct {
	Boosts rerank.StaticBoost
	Query  string
}

func (m *MockSignals) Signal(ctx context.Context, query string, candidates []model.RawCandidate) rerank.BoostSignal {
	m.Query = query
	return m.Boosts
}
