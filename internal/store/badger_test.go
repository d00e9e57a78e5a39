package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/creatorgraph/internal/core/model"
)

func newBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestBadgerStore_ProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newBadgerStore(t)

	p := model.ProfileRecord{Platform: "youtube", ID: "UC1", Handle: "@guru", Verified: true, Bio: "gadgets"}
	require.NoError(t, s.UpsertProfile(ctx, p))
	p.Bio = "gadgets and phones"
	require.NoError(t, s.UpsertProfile(ctx, p))

	got, ok, err := s.GetProfile(ctx, "youtube:UC1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, got)

	_, ok, err = s.GetProfile(ctx, "youtube:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.UpsertProfile(ctx, model.ProfileRecord{Handle: "@x"}), model.ErrInvalidRecord)
}

func TestBadgerStore_PlatformIDReplacesHandleRecord(t *testing.T) {
	ctx := context.Background()
	s := newBadgerStore(t)

	require.NoError(t, s.UpsertProfile(ctx, model.ProfileRecord{Platform: "youtube", Handle: "@guru", Bio: "gadgets"}))
	require.NoError(t, s.UpsertProfile(ctx, model.ProfileRecord{Platform: "youtube", ID: "UC1", Handle: "@guru", Bio: "gadgets"}))

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "youtube:UC1", profiles[0].Key())

	// A profile whose platform ID equals another's handle is left alone.
	require.NoError(t, s.UpsertProfile(ctx, model.ProfileRecord{Platform: "tiktok", ID: "@chef", Bio: "recipes"}))
	require.NoError(t, s.UpsertProfile(ctx, model.ProfileRecord{Platform: "tiktok", ID: "T9", Handle: "@chef", Bio: "recipes"}))
	_, ok, err := s.GetProfile(ctx, "tiktok:@chef")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBadgerStore_ListProfilesSorted(t *testing.T) {
	ctx := context.Background()
	s := newBadgerStore(t)
	for _, h := range []string{"@c", "@a", "@b"} {
		require.NoError(t, s.UpsertProfile(ctx, model.ProfileRecord{Platform: "tiktok", Handle: h}))
	}

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "@a", profiles[0].Handle)
	assert.Equal(t, "@c", profiles[2].Handle)
}

func TestBadgerStore_SaveIdentitiesReplaces(t *testing.T) {
	ctx := context.Background()
	s := newBadgerStore(t)

	clusters, err := s.ListClusters(ctx)
	require.NoError(t, err)
	assert.Empty(t, clusters)

	a := model.ProfileRecord{Platform: "youtube", Handle: "@x"}
	b := model.ProfileRecord{Platform: "instagram", Handle: "@x"}
	edge := model.IdentityEdge{SourceKey: a.Key(), TargetKey: b.Key(), Verdict: model.MatchVerdict{IsMatch: true, MatchType: model.MatchDeterministic, Score: 1}}
	suggestion := model.IdentityEdge{SourceKey: a.Key(), TargetKey: "tiktok:@y", Verdict: model.MatchVerdict{MatchType: model.MatchSuggestion, Score: 0.6}}
	saved := []model.IdentityCluster{{UUID: "c1", Members: []model.ProfileRecord{b, a}, Edges: []model.IdentityEdge{edge}}}

	require.NoError(t, s.SaveIdentities(ctx, saved, []model.IdentityEdge{suggestion}))

	clusters, err = s.ListClusters(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, clusters)

	idx, err := s.ClusterIndex(ctx)
	require.NoError(t, err)
	id, ok := idx.ClusterOf(b.Key())
	assert.True(t, ok)
	assert.Equal(t, "c1", id)

	suggestions, err := s.Suggestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.IdentityEdge{suggestion}, suggestions)

	require.NoError(t, s.SaveIdentities(ctx, nil, nil))
	clusters, err = s.ListClusters(ctx)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestBadgerStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenBadgerStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.UpsertProfile(ctx, model.ProfileRecord{Platform: "tiktok", Handle: "@chef"}))
	require.NoError(t, s.Close(ctx))

	s, err = OpenBadgerStore(dir, nil)
	require.NoError(t, err)
	defer s.Close(ctx)

	_, ok, err := s.GetProfile(ctx, "tiktok:@chef")
	require.NoError(t, err)
	assert.True(t, ok)
}
