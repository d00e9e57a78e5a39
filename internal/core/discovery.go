package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/creatorgraph/internal/config"
	"github.com/agenthands/creatorgraph/internal/core/cluster"
	"github.com/agenthands/creatorgraph/internal/core/identity"
	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/core/rerank"
	"github.com/agenthands/creatorgraph/internal/llm"
	"github.com/agenthands/creatorgraph/internal/store"
	"github.com/agenthands/creatorgraph/internal/vector"
)

// ErrNoEmbedder is returned when the configured provider cannot embed text.
var ErrNoEmbedder = errors.New("no embedding provider configured")

// Engine ties profile storage, the vector index, identity resolution and
// reranking together.
type Engine struct {
	Store    store.ProfileStore
	Index    vector.Index
	Embedder llm.EmbedderClient
	Resolver *identity.Resolver
	Builder  *cluster.Builder
	Pairs    cluster.PairGenerator
	Reranker *rerank.Reranker
	// Signals, when set, produces a per-query boost (the LLM judge) in place
	// of Reranker.Signal.
	Signals rerank.SignalSource

	Namespace    string
	TopK         int
	BatchSize    int
	EmbedWorkers int
	Logger       *slog.Logger

	mu      sync.RWMutex
	last    *cluster.Result
	closers []func(context.Context) error
}

func NewEngine(s store.ProfileStore, idx vector.Index, embedder llm.EmbedderClient, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	resolver := identity.NewResolver(identity.Policy{
		MatchThreshold:      cfg.Resolution.MatchThreshold,
		SuggestionThreshold: cfg.Resolution.SuggestionThreshold,
		BioWeight:           cfg.Resolution.BioWeight,
		NameWeight:          cfg.Resolution.NameWeight,
	})

	return &Engine{
		Store:    s,
		Index:    idx,
		Embedder: embedder,
		Resolver: resolver,
		Builder:  cluster.NewBuilder(resolver, cfg.Concurrency.ResolveWorkers, logger),
		Pairs:    cluster.NewPairGenerator(cfg.Resolution.Blocking),
		Reranker: rerank.NewReranker(rerank.KeywordBoost{
			Keywords:        cfg.Rerank.Keywords,
			Amount:          cfg.Rerank.Boost,
			MatchQueryTerms: cfg.Rerank.MatchQueryTerms,
		}),
		Namespace:    cfg.Vector.Namespace,
		TopK:         cfg.Vector.TopK,
		BatchSize:    cfg.Vector.BatchSize,
		EmbedWorkers: cfg.Concurrency.EmbedWorkers,
		Logger:       logger,
	}
}

// IngestResult counts what IngestProfiles wrote.
type IngestResult struct {
	Stored  int `json:"stored"`
	Indexed int `json:"indexed"`
}

// IngestProfiles upserts profiles into the store and indexes their
// embeddings. Re-ingesting a profile overwrites it, and a profile that now
// carries its platform ID replaces the one ingested earlier by handle.
func (e *Engine) IngestProfiles(ctx context.Context, profiles []model.ProfileRecord) (IngestResult, error) {
	var res IngestResult
	keys := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		if err := e.Store.UpsertProfile(ctx, p); err != nil {
			return res, fmt.Errorf("failed to store profile: %w", err)
		}
		res.Stored++
		keys[p.Key()] = true
	}
	var stale []string
	for _, p := range profiles {
		if hk, ok := p.HandleKey(); ok && !keys[hk] {
			stale = append(stale, hk)
		}
	}

	indexed, err := e.IndexProfiles(ctx, profiles)
	res.Indexed = indexed
	if err != nil {
		return res, err
	}
	if len(stale) > 0 {
		if err := e.Index.Delete(ctx, e.Namespace, stale); err != nil {
			return res, fmt.Errorf("failed to drop superseded vectors: %w", err)
		}
	}

	e.Logger.InfoContext(ctx, "profiles ingested", "stored", res.Stored, "indexed", res.Indexed)
	return res, nil
}

// IndexProfiles embeds "handle bio" for each profile in batches and upserts
// the vectors under the profile key. Profiles without text are skipped.
func (e *Engine) IndexProfiles(ctx context.Context, profiles []model.ProfileRecord) (int, error) {
	if e.Embedder == nil {
		return 0, ErrNoEmbedder
	}

	var jobs []model.ProfileRecord
	for _, p := range profiles {
		if p.EmbeddingText() == "" {
			e.Logger.DebugContext(ctx, "profile has no text to embed", "key", p.Key())
			continue
		}
		jobs = append(jobs, p)
	}

	batchSize := max(e.BatchSize, 1)
	var batches [][]model.ProfileRecord
	for start := 0; start < len(jobs); start += batchSize {
		batches = append(batches, jobs[start:min(start+batchSize, len(jobs))])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.EmbedWorkers, 1))
	for _, batch := range batches {
		g.Go(func() error {
			return e.indexBatch(gctx, batch)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(jobs), nil
}

func (e *Engine) indexBatch(ctx context.Context, batch []model.ProfileRecord) error {
	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.EmbeddingText()
	}

	vecs, err := e.Embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed profiles: %w", err)
	}
	if len(vecs) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d profiles", len(vecs), len(batch))
	}

	records := make([]model.VectorRecord, len(batch))
	for i, p := range batch {
		records[i] = model.VectorRecord{
			ID:       p.Key(),
			Values:   vecs[i],
			Metadata: p.Metadata(),
		}
	}
	if err := e.Index.Upsert(ctx, e.Namespace, records); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// ResolveIdentities rebuilds the identity graph over every stored profile
// and persists clusters and advisory edges.
func (e *Engine) ResolveIdentities(ctx context.Context) (*cluster.Result, error) {
	profiles, err := e.Store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	res, err := e.Builder.Build(profiles, e.Pairs)
	if err != nil {
		return nil, err
	}

	if err := e.Store.SaveIdentities(ctx, res.Clusters, res.Suggestions); err != nil {
		return nil, fmt.Errorf("failed to save identity graph: %w", err)
	}

	e.mu.Lock()
	e.last = res
	e.mu.Unlock()
	return res, nil
}

// Clusters returns the persisted identity clusters.
func (e *Engine) Clusters(ctx context.Context) ([]model.IdentityCluster, error) {
	return e.Store.ListClusters(ctx)
}

// LastResolution returns the result of the most recent ResolveIdentities
// call made by this engine, if any.
func (e *Engine) LastResolution() (*cluster.Result, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last, e.last != nil
}

// Compare resolves a single pair of profiles.
func (e *Engine) Compare(a, b model.ProfileRecord) model.MatchVerdict {
	return e.Resolver.Resolve(a, b)
}

// Search embeds the query, retrieves the nearest profiles and reranks them,
// collapsing profiles of the same identity cluster.
func (e *Engine) Search(ctx context.Context, req model.SearchRequest) ([]model.RankedCandidate, error) {
	if e.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	topK := req.TopK
	if topK <= 0 {
		topK = e.TopK
	}
	namespace := req.Namespace
	if namespace == "" {
		namespace = e.Namespace
	}

	vecs, err := e.Embedder.Embed(ctx, []string{req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}

	candidates, err := e.Index.Query(ctx, vecs[0], topK, namespace, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	clusters, err := e.Store.ClusterIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load clusters: %w", err)
	}

	signal := e.Reranker.Signal
	if e.Signals != nil {
		signal = e.Signals.Signal(ctx, req.Query, candidates)
	}
	ranked := e.Reranker.RerankWith(req.Query, candidates, clusters, signal)

	e.Logger.DebugContext(ctx, "search served",
		"query", req.Query,
		"namespace", namespace,
		"retrieved", len(candidates),
		"returned", len(ranked),
	)
	return ranked, nil
}

// EnsureSchema provisions the store schema and the vector index.
func (e *Engine) EnsureSchema(ctx context.Context) error {
	if err := e.Store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to provision store schema: %w", err)
	}
	if err := e.Index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("failed to provision vector index: %w", err)
	}
	return nil
}

// Close releases the resources opened by NewEngineFromConfig.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c(ctx))
	}
	return errors.Join(errs...)
}
