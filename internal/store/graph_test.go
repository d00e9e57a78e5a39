package store

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/driver"
)

func TestGraphStore_UpsertProfile(t *testing.T) {
	d := &MockDriver{}
	s := NewGraphStore(d, nil)

	p := model.ProfileRecord{Platform: "youtube", Handle: "@guru", Verified: true, Name: "Guru", Bio: "gadgets"}
	require.NoError(t, s.UpsertProfile(context.Background(), p))

	require.Len(t, d.Executed, 1)
	assert.Equal(t, driver.UpsertCreatorQuery, d.Executed[0].Query)
	params := d.Executed[0].Params
	assert.Equal(t, "youtube:@guru", params["key"])
	assert.Equal(t, "youtube", params["platform"])
	assert.Equal(t, "@guru", params["platform_id"])
	assert.Equal(t, true, params["verified"])
}

func TestGraphStore_UpsertProfileWithIDReplacesHandleRecord(t *testing.T) {
	d := &MockDriver{}
	s := NewGraphStore(d, nil)

	p := model.ProfileRecord{Platform: "youtube", ID: "UC1", Handle: "@guru", Bio: "gadgets"}
	require.NoError(t, s.UpsertProfile(context.Background(), p))

	assert.Equal(t, []string{driver.DeleteHandleOnlyCreatorQuery, driver.UpsertCreatorQuery}, d.queries())
	assert.Equal(t, d.queries(), d.Committed)
	assert.Equal(t, "youtube:@guru", d.Executed[0].Params["key"])
	assert.Equal(t, "youtube:UC1", d.Executed[1].Params["key"])

	d.Executed, d.Committed = nil, nil
	d.FailOn = map[string]error{driver.UpsertCreatorQuery: errors.New("constraint violated")}
	err := s.UpsertProfile(context.Background(), p)
	assert.ErrorContains(t, err, "failed to upsert creator youtube:UC1")
	assert.Empty(t, d.Committed, "the handle record survives a failed upsert")
}

func TestGraphStore_UpsertProfileErrors(t *testing.T) {
	d := &MockDriver{}
	s := NewGraphStore(d, nil)

	err := s.UpsertProfile(context.Background(), model.ProfileRecord{Handle: "@guru"})
	assert.ErrorIs(t, err, model.ErrInvalidRecord)
	assert.Empty(t, d.Executed)

	d.Err = errors.New("connection refused")
	err = s.UpsertProfile(context.Background(), model.ProfileRecord{Platform: "youtube", Handle: "@guru"})
	assert.Error(t, err)
}

func TestGraphStore_ListProfiles(t *testing.T) {
	d := &MockDriver{
		Results: map[string]neo4j.EagerResult{
			driver.ListCreatorsQuery: {
				Records: []*neo4j.Record{
					{
						Keys:   []string{"id", "platform", "handle", "verified", "name", "bio"},
						Values: []interface{}{"UC1", "youtube", "@guru", true, "Guru", "gadgets"},
					},
					{
						Keys:   []string{"id", "platform", "handle", "verified", "name", "bio"},
						Values: []interface{}{"", "tiktok", "@chef", nil, nil, "cooking"},
					},
				},
			},
		},
	}
	s := NewGraphStore(d, nil)

	profiles, err := s.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, model.ProfileRecord{ID: "UC1", Platform: "youtube", Handle: "@guru", Verified: true, Name: "Guru", Bio: "gadgets"}, profiles[0])
	assert.Equal(t, "tiktok:@chef", profiles[1].Key())
	assert.False(t, profiles[1].Verified)
}

func TestGraphStore_SaveIdentities(t *testing.T) {
	d := &MockDriver{}
	s := NewGraphStore(d, nil)

	a := model.ProfileRecord{Platform: "instagram", Handle: "@x"}
	b := model.ProfileRecord{Platform: "youtube", Handle: "@x"}
	edge := model.IdentityEdge{
		UUID: "e1", SourceKey: a.Key(), TargetKey: b.Key(), Handle: "@x",
		Verdict: model.MatchVerdict{IsMatch: true, MatchType: model.MatchDeterministic, Score: 1, Reason: model.ReasonVerifiedHandle},
	}
	suggestion := model.IdentityEdge{
		UUID: "e2", SourceKey: a.Key(), TargetKey: "tiktok:@y",
		Verdict: model.MatchVerdict{MatchType: model.MatchSuggestion, Score: 0.6, Reason: model.ReasonNeedsReview},
	}
	clusters := []model.IdentityCluster{{UUID: "c1", Members: []model.ProfileRecord{a, b}, Edges: []model.IdentityEdge{edge}, Anchor: "@x"}}

	require.NoError(t, s.SaveIdentities(context.Background(), clusters, []model.IdentityEdge{suggestion}))

	assert.Equal(t, []string{
		driver.ClearIdentityEdgesQuery,
		driver.ClearClustersQuery,
		driver.SaveClusterQuery,
		driver.SaveIdentityEdgeQuery,
		driver.SaveIdentityEdgeQuery,
	}, d.queries())
	assert.Equal(t, d.queries(), d.Committed)

	clusterParams := d.Executed[2].Params
	assert.Equal(t, []string{"instagram:@x", "youtube:@x"}, clusterParams["member_keys"])
	assert.Equal(t, "@x", clusterParams["anchor"])

	edgeParams := d.Executed[3].Params
	assert.Equal(t, 1.0, edgeParams["confidence_score"])
	assert.Equal(t, "deterministic", edgeParams["match_type"])
	assert.Equal(t, "verified_handle_match", edgeParams["reason"])

	suggestionParams := d.Executed[4].Params
	assert.Equal(t, "suggestion", suggestionParams["match_type"])
	assert.Equal(t, false, suggestionParams["is_match"])
}

func TestGraphStore_SaveIdentitiesIsAtomic(t *testing.T) {
	d := &MockDriver{FailOn: map[string]error{driver.SaveClusterQuery: errors.New("connection reset")}}
	s := NewGraphStore(d, nil)

	a := model.ProfileRecord{Platform: "instagram", Handle: "@x"}
	b := model.ProfileRecord{Platform: "youtube", Handle: "@x"}
	clusters := []model.IdentityCluster{{UUID: "c1", Members: []model.ProfileRecord{a, b}}}

	err := s.SaveIdentities(context.Background(), clusters, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save cluster c1")

	assert.Equal(t, []string{
		driver.ClearIdentityEdgesQuery,
		driver.ClearClustersQuery,
		driver.SaveClusterQuery,
	}, d.queries())
	assert.Empty(t, d.Committed, "clears must roll back with the failed write")
}

func TestGraphStore_ListClusters(t *testing.T) {
	memberKeys := []string{"cluster_uuid", "anchor", "id", "platform", "handle", "verified", "name", "bio"}
	edgeKeys := []string{"uuid", "source_key", "target_key", "confidence_score", "match_type", "reason", "is_match", "handle"}
	d := &MockDriver{
		Results: map[string]neo4j.EagerResult{
			driver.ListClusterMembersQuery: {
				Records: []*neo4j.Record{
					{Keys: memberKeys, Values: []interface{}{"c1", "@x", "", "instagram", "@x", true, "X", "bio"}},
					{Keys: memberKeys, Values: []interface{}{"c1", "@x", "", "youtube", "@x", true, "X", "bio"}},
				},
			},
			driver.ListIdentityEdgesQuery: {
				Records: []*neo4j.Record{
					{Keys: edgeKeys, Values: []interface{}{"e1", "instagram:@x", "youtube:@x", 1.0, "deterministic", "verified_handle_match", true, "@x"}},
					{Keys: edgeKeys, Values: []interface{}{"e2", "tiktok:@y", "youtube:@x", 0.6, "suggestion", "needs_review", false, ""}},
				},
			},
		},
	}
	s := NewGraphStore(d, nil)

	clusters, err := s.ListClusters(context.Background())
	require.NoError(t, err)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, "c1", c.UUID)
	assert.Equal(t, "@x", c.Anchor)
	assert.Equal(t, []string{"instagram:@x", "youtube:@x"}, c.MemberKeys())
	require.Len(t, c.Edges, 1)
	assert.Equal(t, model.MatchDeterministic, c.Edges[0].Verdict.MatchType)
	require.Len(t, c.Suggestions, 1)
	assert.Equal(t, 0.6, c.Suggestions[0].Verdict.Score)
}

func TestGraphStore_ClusterIndex(t *testing.T) {
	d := &MockDriver{
		Results: map[string]neo4j.EagerResult{
			driver.GetClusterIndexQuery: {
				Records: []*neo4j.Record{
					{Keys: []string{"key", "cluster_uuid"}, Values: []interface{}{"youtube:@x", "c1"}},
				},
			},
		},
	}
	s := NewGraphStore(d, nil)

	idx, err := s.ClusterIndex(context.Background())
	require.NoError(t, err)
	id, ok := idx.ClusterOf("youtube:@x")
	assert.True(t, ok)
	assert.Equal(t, "c1", id)
}

func TestGraphStore_EnsureSchema(t *testing.T) {
	d := &MockDriver{}
	require.NoError(t, NewGraphStore(d, nil).EnsureSchema(context.Background()))
	assert.True(t, d.IndicesBuilt)
}
