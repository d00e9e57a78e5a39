package vector

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/driver"
)

const (
	defaultCapacity  = 100000
	defaultOverfetch = 4
)

var nonIdentifier = regexp.MustCompile(`[^A-Za-z0-9_]`)

// MemgraphIndex stores embeddings on :CreatorEmbedding nodes and queries them
// through the MAGE vector_search module. One physical index serves every
// namespace; namespace and metadata filters apply to an over-fetched
// neighbour set.
type MemgraphIndex struct {
	Driver    driver.GraphDriver
	Name      string
	Dimension int
	Metric    string
	Capacity  int
	Overfetch int
	Logger    *slog.Logger
}

func NewMemgraphIndex(d driver.GraphDriver, name string, dimension int, metric string, logger *slog.Logger) *MemgraphIndex {
	if logger == nil {
		logger = slog.Default()
	}
	if metric == "" {
		metric = "cos"
	}
	return &MemgraphIndex{
		Driver:    d,
		Name:      IndexName(name),
		Dimension: dimension,
		Metric:    metric,
		Capacity:  defaultCapacity,
		Overfetch: defaultOverfetch,
		Logger:    logger,
	}
}

// IndexName turns a configured name such as "increator-prod" into a valid
// Memgraph identifier.
func IndexName(name string) string {
	s := nonIdentifier.ReplaceAllString(name, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "idx_" + s
	}
	return s
}

func (m *MemgraphIndex) EnsureIndex(ctx context.Context) error {
	res, err := m.Driver.ExecuteQuery(ctx, driver.ShowVectorIndexesQuery, nil)
	if err != nil {
		return fmt.Errorf("failed to list vector indexes: %w", err)
	}
	for _, rec := range res.Records {
		if name, _ := rec.Get("index_name"); name == m.Name {
			return nil
		}
	}

	q := fmt.Sprintf(driver.CreateVectorIndexQuery, m.Name, m.Dimension, m.Capacity, m.Metric)
	if _, err := m.Driver.ExecuteQuery(ctx, q, nil); err != nil {
		return fmt.Errorf("failed to create vector index %s: %w", m.Name, err)
	}
	m.Logger.InfoContext(ctx, "vector index created", "index", m.Name, "dimension", m.Dimension, "metric", m.Metric)
	return nil
}

func (m *MemgraphIndex) Upsert(ctx context.Context, namespace string, records []model.VectorRecord) error {
	now := time.Now().UTC()
	for _, r := range records {
		if err := checkDimension(m.Dimension, r.Values, r.ID); err != nil {
			return err
		}
		params := map[string]any{
			"id":         r.ID,
			"namespace":  namespace,
			"embedding":  toFloat64(r.Values),
			"metadata":   r.Metadata,
			"updated_at": now,
		}
		if _, err := m.Driver.ExecuteQuery(ctx, driver.UpsertEmbeddingQuery, params); err != nil {
			return fmt.Errorf("failed to upsert vector %s: %w", r.ID, err)
		}
	}
	return nil
}

func (m *MemgraphIndex) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	params := map[string]any{"namespace": namespace, "ids": ids}
	if _, err := m.Driver.ExecuteQuery(ctx, driver.DeleteEmbeddingsQuery, params); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

func (m *MemgraphIndex) Query(ctx context.Context, vector []float32, topK int, namespace string, filter map[string]any) ([]model.RawCandidate, error) {
	if err := checkDimension(m.Dimension, vector, "query"); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []model.RawCandidate{}, nil
	}

	overfetch := m.Overfetch
	if overfetch < 1 {
		overfetch = 1
	}
	params := map[string]any{
		"index_name": m.Name,
		"limit":      topK * overfetch,
		"vector":     toFloat64(vector),
		"namespace":  namespace,
		"top_k":      topK,
	}

	var q strings.Builder
	q.WriteString(driver.SearchEmbeddingsQuery)
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		p := fmt.Sprintf("f_%d", i)
		fmt.Fprintf(&q, "\t\tAND node.metadata.%s = $%s\n", k, p)
		params[p] = filter[k]
	}
	q.WriteString("\t\tRETURN node.id AS id, similarity AS score, node.metadata AS metadata\n")
	q.WriteString("\t\tORDER BY score DESC, id\n")
	q.WriteString("\t\tLIMIT $top_k\n")

	res, err := m.Driver.ExecuteQuery(ctx, q.String(), params)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	out := make([]model.RawCandidate, 0, len(res.Records))
	for _, rec := range res.Records {
		id, _ := rec.Get("id")
		score, _ := rec.Get("score")
		md, _ := rec.Get("metadata")

		c := model.RawCandidate{}
		c.ID, _ = id.(string)
		c.Score, _ = score.(float64)
		c.Metadata, _ = md.(map[string]any)
		out = append(out, c)
	}
	return out, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
