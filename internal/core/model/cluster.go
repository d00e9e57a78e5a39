package model

import (
	"fmt"
	"strings"
)

// IdentityEdge is a verdict between two records, oriented so that
// SourceKey < TargetKey.
type IdentityEdge struct {
	UUID      string       `json:"uuid"`
	SourceKey string       `json:"source_key"`
	TargetKey string       `json:"target_key"`
	Verdict   MatchVerdict `json:"verdict"`
	Handle    string       `json:"handle,omitempty"` // Set on deterministic edges
}

// IdentityCluster is a connected component of accepted identity edges.
type IdentityCluster struct {
	UUID        string          `json:"uuid"`
	Members     []ProfileRecord `json:"members"`
	Edges       []IdentityEdge  `json:"edges"`
	Suggestions []IdentityEdge  `json:"suggestions,omitempty"` // Advisory only, never merged
	Anchor      string          `json:"anchor,omitempty"`      // Verified handle established by a deterministic edge
}

// MemberKeys returns the keys of the cluster members in member order.
func (c IdentityCluster) MemberKeys() []string {
	keys := make([]string, len(c.Members))
	for i, m := range c.Members {
		keys[i] = m.Key()
	}
	return keys
}

// ClusterConflict records a union that was refused because the two sides
// were anchored to different verified handles.
type ClusterConflict struct {
	Edge         IdentityEdge `json:"edge"`
	LeftCluster  []string     `json:"left_cluster"`
	RightCluster []string     `json:"right_cluster"`
	LeftAnchor   string       `json:"left_anchor"`
	RightAnchor  string       `json:"right_anchor"`
}

// Err describes the conflict as an ErrInconsistentCluster error.
func (c ClusterConflict) Err() error {
	return fmt.Errorf("%w: edge %s-%s would join handles %q [%s] and %q [%s]",
		ErrInconsistentCluster,
		c.Edge.SourceKey, c.Edge.TargetKey,
		c.LeftAnchor, strings.Join(c.LeftCluster, ","),
		c.RightAnchor, strings.Join(c.RightCluster, ","),
	)
}

// ClusterIndex maps record keys to the UUID of the cluster they belong to.
// Records absent from the index are singletons.
type ClusterIndex map[string]string

func (ci ClusterIndex) ClusterOf(key string) (string, bool) {
	id, ok := ci[key]
	return id, ok
}

// NewClusterIndex builds the lookup for a set of clusters.
func NewClusterIndex(clusters []IdentityCluster) ClusterIndex {
	idx := make(ClusterIndex)
	for _, c := range clusters {
		for _, m := range c.Members {
			idx[m.Key()] = c.UUID
		}
	}
	return idx
}
