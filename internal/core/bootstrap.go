package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/agenthands/creatorgraph/internal/config"
	"github.com/agenthands/creatorgraph/internal/core/rerank"
	"github.com/agenthands/creatorgraph/internal/driver"
	"github.com/agenthands/creatorgraph/internal/llm"
	"github.com/agenthands/creatorgraph/internal/resilience"
	"github.com/agenthands/creatorgraph/internal/store"
	"github.com/agenthands/creatorgraph/internal/vector"
)

// NewEngineFromConfig connects the configured backends and wraps every
// external collaborator in a circuit breaker.
func NewEngineFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var closers []func(context.Context) error
	ready := false
	defer func() {
		if ready {
			return
		}
		for _, c := range closers {
			if err := c(ctx); err != nil {
				logger.Warn("failed to release resource after setup error", "error", err)
			}
		}
	}()

	var graph driver.GraphDriver
	if cfg.Store.Backend == "memgraph" || cfg.Vector.Backend == "memgraph" {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to memgraph: %w", err)
		}
		graph = d
		closers = append(closers, d.Close)
	}

	var profiles store.ProfileStore
	switch cfg.Store.Backend {
	case "memgraph":
		profiles = store.NewGraphStore(graph, logger)
	case "badger":
		b, err := store.OpenBadgerStore(cfg.Store.Path, logger)
		if err != nil {
			return nil, err
		}
		profiles = b
		closers = append(closers, b.Close)
	case "memory", "":
		profiles = store.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}

	var index vector.Index
	switch cfg.Vector.Backend {
	case "memgraph":
		index = vector.NewMemgraphIndex(graph, cfg.Vector.IndexName, cfg.Vector.Dimension, cfg.Vector.Metric, logger)
	case "badger":
		b, err := vector.OpenBadgerIndex(cfg.Vector.Path, cfg.Vector.Dimension, logger)
		if err != nil {
			return nil, err
		}
		index = b
		closers = append(closers, b.Close)
	case "memory", "":
		index = vector.NewMemoryIndex(cfg.Vector.Dimension)
	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.Vector.Backend)
	}

	llmCfg := cfg.LLM
	if llmCfg.Dimension == 0 {
		llmCfg.Dimension = cfg.Vector.Dimension
	}
	gen, embedder, err := llm.NewClient(ctx, llmCfg)
	if err != nil {
		return nil, err
	}
	if c, ok := gen.(io.Closer); ok {
		closers = append(closers, func(context.Context) error { return c.Close() })
	}

	breaker := func(name string) *resilience.Breaker {
		return resilience.NewBreaker(name, cfg.CircuitBreaker, logger)
	}
	if embedder != nil {
		embedder = &resilience.Embedder{Next: embedder, Breaker: breaker("embedder")}
	}

	e := NewEngine(
		&resilience.Store{Next: profiles, Breaker: breaker("store")},
		&resilience.Index{Next: index, Breaker: breaker("vector_index")},
		embedder,
		cfg,
		logger,
	)
	e.closers = closers

	if cfg.Rerank.LLM && gen != nil {
		e.Signals = &rerank.LLMBoost{
			Ranker:   &resilience.Ranker{Next: llm.NewSimpleLLMReranker(gen, ""), Breaker: breaker("llm_ranker")},
			Amount:   cfg.Rerank.Boost,
			TopN:     cfg.Rerank.LLMTopN,
			Fallback: e.Reranker.Signal,
			Logger:   logger,
		}
	}

	ready = true
	logger.Info("engine ready",
		"store", cfg.Store.Backend,
		"vector", cfg.Vector.Backend,
		"llm_provider", cfg.LLM.Provider,
		"llm_boost", e.Signals != nil,
	)
	return e, nil
}
