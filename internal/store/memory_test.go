package store

import (
	"context"
	"testing"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p := model.ProfileRecord{Platform: "youtube", ID: "UC1", Handle: "@guru", Bio: "gadgets"}
	require.NoError(t, s.UpsertProfile(ctx, p))
	p.Bio = "gadgets and phones"
	require.NoError(t, s.UpsertProfile(ctx, p))

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "gadgets and phones", profiles[0].Bio)

	got, ok, err := s.GetProfile(ctx, "youtube:UC1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "@guru", got.Handle)

	_, ok, err = s.GetProfile(ctx, "youtube:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_PlatformIDReplacesHandleRecord(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.UpsertProfile(ctx, model.ProfileRecord{Platform: "youtube", Handle: "@guru", Bio: "gadgets"}))
	require.NoError(t, s.UpsertProfile(ctx, model.ProfileRecord{Platform: "youtube", ID: "UC1", Handle: "@guru", Bio: "gadgets"}))

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "youtube:UC1", profiles[0].Key())

	_, ok, err := s.GetProfile(ctx, "youtube:@guru")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_RejectsInvalidProfiles(t *testing.T) {
	s := NewMemoryStore()

	err := s.UpsertProfile(context.Background(), model.ProfileRecord{Handle: "@guru"})
	assert.ErrorIs(t, err, model.ErrInvalidRecord)

	err = s.UpsertProfile(context.Background(), model.ProfileRecord{Platform: "youtube", Name: "Guru"})
	assert.ErrorIs(t, err, model.ErrInvalidRecord)
}

func TestMemoryStore_ListProfilesSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, h := range []string{"@c", "@a", "@b"} {
		require.NoError(t, s.UpsertProfile(ctx, model.ProfileRecord{Platform: "tiktok", Handle: h}))
	}

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "@a", profiles[0].Handle)
	assert.Equal(t, "@c", profiles[2].Handle)
}

func TestMemoryStore_SaveIdentitiesReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a := model.ProfileRecord{Platform: "youtube", Handle: "@x"}
	b := model.ProfileRecord{Platform: "instagram", Handle: "@x"}
	edge := model.IdentityEdge{SourceKey: a.Key(), TargetKey: b.Key(), Verdict: model.MatchVerdict{IsMatch: true, MatchType: model.MatchDeterministic, Score: 1}}
	suggestion := model.IdentityEdge{SourceKey: a.Key(), TargetKey: "tiktok:@y", Verdict: model.MatchVerdict{MatchType: model.MatchSuggestion, Score: 0.6}}
	clusters := []model.IdentityCluster{{UUID: "c1", Members: []model.ProfileRecord{b, a}, Edges: []model.IdentityEdge{edge}}}

	require.NoError(t, s.SaveIdentities(ctx, clusters, []model.IdentityEdge{suggestion}))

	idx, err := s.ClusterIndex(ctx)
	require.NoError(t, err)
	id, ok := idx.ClusterOf(a.Key())
	assert.True(t, ok)
	assert.Equal(t, "c1", id)
	assert.Len(t, s.Edges(), 2)

	require.NoError(t, s.SaveIdentities(ctx, nil, nil))
	listed, err := s.ListClusters(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.Empty(t, s.Edges())
}
