package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/creatorgraph/internal/config"
	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/store"
	"github.com/agenthands/creatorgraph/internal/vector"
)

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		MaxRequests:  1,
		Interval:     config.Duration{Duration: time.Minute},
		Timeout:      config.Duration{Duration: time.Hour},
		FailureRatio: 0.5,
		MinRequests:  2,
	}
}

type flakyEmbedder struct {
	err   error
	calls int
}

func (f *flakyEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func TestEmbedder_PassesThrough(t *testing.T) {
	e := &Embedder{Next: &flakyEmbedder{}, Breaker: NewBreaker("embedder", testBreakerConfig(), nil)}

	out, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0}, {1}}, out)
}

func TestEmbedder_WrapsFailures(t *testing.T) {
	cause := errors.New("503 service unavailable")
	e := &Embedder{Next: &flakyEmbedder{err: cause}, Breaker: NewBreaker("embedder", testBreakerConfig(), nil)}

	_, err := e.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCollaboratorUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "embedder")
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	next := &flakyEmbedder{err: errors.New("timeout")}
	b := NewBreaker("embedder", testBreakerConfig(), nil)
	e := &Embedder{Next: next, Breaker: b}

	for i := 0; i < 2; i++ {
		_, err := e.Embed(context.Background(), []string{"a"})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, model.ErrCollaboratorUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.calls, "open breaker must not call through")
}

func TestBreaker_InvalidRecordDoesNotTrip(t *testing.T) {
	b := NewBreaker("index", testBreakerConfig(), nil)
	idx := &Index{Next: vector.NewMemoryIndex(2), Breaker: b}

	for i := 0; i < 5; i++ {
		err := idx.Upsert(context.Background(), "prod", []model.VectorRecord{{ID: fmt.Sprint(i), Values: []float32{1}}})
		assert.ErrorIs(t, err, model.ErrInvalidRecord)
		assert.NotErrorIs(t, err, model.ErrCollaboratorUnavailable)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestIndex_RoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := &Index{Next: vector.NewMemoryIndex(2), Breaker: NewBreaker("index", testBreakerConfig(), nil)}

	require.NoError(t, idx.EnsureIndex(ctx))
	require.NoError(t, idx.Upsert(ctx, "prod", []model.VectorRecord{{ID: "a", Values: []float32{1, 0}}}))

	res, err := idx.Query(ctx, []float32{1, 0}, 5, "prod", nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "a", res[0].ID)

	require.NoError(t, idx.Delete(ctx, "prod", []string{"a"}))
	res, err = idx.Query(ctx, []float32{1, 0}, 5, "prod", nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := &Store{Next: store.NewMemoryStore(), Breaker: NewBreaker("store", testBreakerConfig(), nil)}

	require.NoError(t, s.EnsureSchema(ctx))
	p := model.ProfileRecord{Platform: "youtube", Handle: "@x"}
	require.NoError(t, s.UpsertProfile(ctx, p))

	got, ok, err := s.GetProfile(ctx, p.Key())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, p, got)

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)

	clusters := []model.IdentityCluster{{UUID: "c1", Members: []model.ProfileRecord{p}}}
	require.NoError(t, s.SaveIdentities(ctx, clusters, nil))

	listed, err := s.ListClusters(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	idx, err := s.ClusterIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c1", idx[p.Key()])
}

type failingRanker struct{}

func (failingRanker) Rank(context.Context, string, []string) ([]int, error) {
	return nil, errors.New("quota exceeded")
}

func TestRanker_WrapsFailures(t *testing.T) {
	r := &Ranker{Next: failingRanker{}, Breaker: NewBreaker("ranker", testBreakerConfig(), nil)}

	_, err := r.Rank(context.Background(), "q", []string{"a"})
	assert.ErrorIs(t, err, model.ErrCollaboratorUnavailable)
}
