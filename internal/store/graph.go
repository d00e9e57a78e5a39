package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/driver"
)

// GraphStore keeps creators as :Creator nodes, identity edges as :IDENTITY
// relationships and clusters as :IdentityCluster nodes in Memgraph.
type GraphStore struct {
	Driver driver.GraphDriver
	Logger *slog.Logger
}

func NewGraphStore(d driver.GraphDriver, logger *slog.Logger) *GraphStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphStore{Driver: d, Logger: logger}
}

func (s *GraphStore) EnsureSchema(ctx context.Context) error {
	return s.Driver.BuildIndices(ctx)
}

func (s *GraphStore) UpsertProfile(ctx context.Context, p model.ProfileRecord) error {
	if err := validateProfile(p); err != nil {
		return err
	}

	params := map[string]any{
		"key":         p.Key(),
		"platform":    p.Platform,
		"platform_id": platformID(p),
		"id":          p.ID,
		"handle":      p.Handle,
		"verified":    p.Verified,
		"name":        p.Name,
		"bio":         p.Bio,
		"updated_at":  time.Now().UTC(),
	}
	hk, supersedes := p.HandleKey()
	if !supersedes {
		if _, err := s.Driver.ExecuteQuery(ctx, driver.UpsertCreatorQuery, params); err != nil {
			return fmt.Errorf("failed to upsert creator %s: %w", p.Key(), err)
		}
		return nil
	}

	err := s.Driver.ExecuteWrite(ctx, func(tx driver.Tx) error {
		if err := tx.Run(ctx, driver.DeleteHandleOnlyCreatorQuery, map[string]any{"key": hk}); err != nil {
			return fmt.Errorf("failed to replace creator %s: %w", hk, err)
		}
		return tx.Run(ctx, driver.UpsertCreatorQuery, params)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert creator %s: %w", p.Key(), err)
	}
	return nil
}

func (s *GraphStore) GetProfile(ctx context.Context, key string) (model.ProfileRecord, bool, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.GetCreatorQuery, map[string]any{"key": key})
	if err != nil {
		return model.ProfileRecord{}, false, fmt.Errorf("failed to get creator %s: %w", key, err)
	}
	if len(res.Records) == 0 {
		return model.ProfileRecord{}, false, nil
	}
	return profileFromRecord(res.Records[0]), true, nil
}

func (s *GraphStore) ListProfiles(ctx context.Context) ([]model.ProfileRecord, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.ListCreatorsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}

	profiles := make([]model.ProfileRecord, 0, len(res.Records))
	for _, rec := range res.Records {
		profiles = append(profiles, profileFromRecord(rec))
	}
	return profiles, nil
}

// SaveIdentities replaces the identity graph in one write transaction, so a
// failure leaves the previous clusters in place.
func (s *GraphStore) SaveIdentities(ctx context.Context, clusters []model.IdentityCluster, suggestions []model.IdentityEdge) error {
	now := time.Now().UTC()
	err := s.Driver.ExecuteWrite(ctx, func(tx driver.Tx) error {
		if err := tx.Run(ctx, driver.ClearIdentityEdgesQuery, nil); err != nil {
			return fmt.Errorf("failed to clear identity edges: %w", err)
		}
		if err := tx.Run(ctx, driver.ClearClustersQuery, nil); err != nil {
			return fmt.Errorf("failed to clear clusters: %w", err)
		}

		for _, c := range clusters {
			params := map[string]any{
				"uuid":        c.UUID,
				"anchor":      c.Anchor,
				"size":        len(c.Members),
				"member_keys": c.MemberKeys(),
				"created_at":  now,
			}
			if err := tx.Run(ctx, driver.SaveClusterQuery, params); err != nil {
				return fmt.Errorf("failed to save cluster %s: %w", c.UUID, err)
			}
			for _, e := range c.Edges {
				if err := saveEdge(ctx, tx, e, now); err != nil {
					return err
				}
			}
		}

		for _, e := range suggestions {
			if err := saveEdge(ctx, tx, e, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.InfoContext(ctx, "identity graph saved", "clusters", len(clusters), "suggestions", len(suggestions))
	return nil
}

func saveEdge(ctx context.Context, tx driver.Tx, e model.IdentityEdge, now time.Time) error {
	params := map[string]any{
		"uuid":             e.UUID,
		"source_key":       e.SourceKey,
		"target_key":       e.TargetKey,
		"confidence_score": e.Verdict.Score,
		"match_type":       string(e.Verdict.MatchType),
		"reason":           string(e.Verdict.Reason),
		"is_match":         e.Verdict.IsMatch,
		"handle":           e.Handle,
		"created_at":       now,
	}
	if err := tx.Run(ctx, driver.SaveIdentityEdgeQuery, params); err != nil {
		return fmt.Errorf("failed to save identity edge %s-%s: %w", e.SourceKey, e.TargetKey, err)
	}
	return nil
}

// ListClusters returns clusters ordered by UUID with members ordered by key.
// Accepted edges are attached to the cluster of their source, suggestions to
// every cluster touching either end.
func (s *GraphStore) ListClusters(ctx context.Context) ([]model.IdentityCluster, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.ListClusterMembersQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}

	byID := make(map[string]*model.IdentityCluster)
	var order []string
	for _, rec := range res.Records {
		id := stringValue(rec, "cluster_uuid")
		c, ok := byID[id]
		if !ok {
			c = &model.IdentityCluster{UUID: id, Anchor: stringValue(rec, "anchor")}
			byID[id] = c
			order = append(order, id)
		}
		c.Members = append(c.Members, profileFromRecord(rec))
	}

	index := make(model.ClusterIndex)
	for id, c := range byID {
		for _, m := range c.Members {
			index[m.Key()] = id
		}
	}

	edges, err := s.Driver.ExecuteQuery(ctx, driver.ListIdentityEdgesQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list identity edges: %w", err)
	}
	for _, rec := range edges.Records {
		e := edgeFromRecord(rec)
		if e.Verdict.IsMatch {
			if id, ok := index.ClusterOf(e.SourceKey); ok {
				byID[id].Edges = append(byID[id].Edges, e)
			}
			continue
		}
		src, _ := index.ClusterOf(e.SourceKey)
		dst, _ := index.ClusterOf(e.TargetKey)
		if src != "" {
			byID[src].Suggestions = append(byID[src].Suggestions, e)
		}
		if dst != "" && dst != src {
			byID[dst].Suggestions = append(byID[dst].Suggestions, e)
		}
	}

	sort.Strings(order)
	clusters := make([]model.IdentityCluster, 0, len(order))
	for _, id := range order {
		clusters = append(clusters, *byID[id])
	}
	return clusters, nil
}

func (s *GraphStore) ClusterIndex(ctx context.Context) (model.ClusterIndex, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.GetClusterIndexQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster index: %w", err)
	}

	idx := make(model.ClusterIndex, len(res.Records))
	for _, rec := range res.Records {
		idx[stringValue(rec, "key")] = stringValue(rec, "cluster_uuid")
	}
	return idx, nil
}

func profileFromRecord(rec *neo4j.Record) model.ProfileRecord {
	verified, _ := valueOf(rec, "verified").(bool)
	return model.ProfileRecord{
		ID:       stringValue(rec, "id"),
		Platform: stringValue(rec, "platform"),
		Handle:   stringValue(rec, "handle"),
		Verified: verified,
		Name:     stringValue(rec, "name"),
		Bio:      stringValue(rec, "bio"),
	}
}

func edgeFromRecord(rec *neo4j.Record) model.IdentityEdge {
	score, _ := valueOf(rec, "confidence_score").(float64)
	isMatch, _ := valueOf(rec, "is_match").(bool)
	return model.IdentityEdge{
		UUID:      stringValue(rec, "uuid"),
		SourceKey: stringValue(rec, "source_key"),
		TargetKey: stringValue(rec, "target_key"),
		Handle:    stringValue(rec, "handle"),
		Verdict: model.MatchVerdict{
			IsMatch:   isMatch,
			MatchType: model.MatchType(stringValue(rec, "match_type")),
			Score:     score,
			Reason:    model.Reason(stringValue(rec, "reason")),
		},
	}
}

func valueOf(rec *neo4j.Record, key string) any {
	v, ok := rec.Get(key)
	if !ok {
		return nil
	}
	return v
}

func stringValue(rec *neo4j.Record, key string) string {
	s, _ := valueOf(rec, key).(string)
	return s
}
