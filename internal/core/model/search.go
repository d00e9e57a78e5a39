package model

// VectorRecord is one row written to the vector index.
type VectorRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RawCandidate is a match returned by the vector index.
type RawCandidate struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Bio returns the candidate's bio text from its metadata, if any.
func (c RawCandidate) Bio() string {
	return c.metadataString("bio")
}

func (c RawCandidate) Handle() string {
	return c.metadataString("handle")
}

func (c RawCandidate) metadataString(key string) string {
	if c.Metadata == nil {
		return ""
	}
	if s, ok := c.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// RankedCandidate is a reranked result representing one entity.
type RankedCandidate struct {
	ID         string         `json:"id"`
	Score      float64        `json:"score"` // Retrieval score
	Boost      float64        `json:"boost"`
	FinalScore float64        `json:"final_score"`
	ClusterID  string         `json:"cluster_id,omitempty"`
	MergedIDs  []string       `json:"merged_ids,omitempty"` // Other candidates of the same cluster folded into this one
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SearchRequest describes a discovery query.
type SearchRequest struct {
	Query     string         `json:"query"`
	TopK      int            `json:"top_k,omitempty"`
	Namespace string         `json:"namespace,omitempty"`
	Filter    map[string]any `json:"filter,omitempty"`
}
