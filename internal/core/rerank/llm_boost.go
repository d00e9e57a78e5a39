package rerank

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agenthands/creatorgraph/internal/core/model"
	"github.com/agenthands/creatorgraph/internal/llm"
)

// LLMBoost asks a ranking model which candidates fit the query and boosts
// the first TopN it returns. When the model fails, Fallback is used.
type LLMBoost struct {
	Ranker   llm.RerankerClient
	Amount   float64
	TopN     int
	Fallback BoostSignal
	Logger   *slog.Logger
}

func (b *LLMBoost) Signal(ctx context.Context, query string, candidates []model.RawCandidate) BoostSignal {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(candidates) == 0 {
		return StaticBoost{}
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = fmt.Sprintf("%s: %s", c.Handle(), c.Bio())
	}

	order, err := b.Ranker.Rank(ctx, query, docs)
	if err != nil {
		logger.WarnContext(ctx, "llm rerank failed, using fallback boost", "error", err)
		if b.Fallback != nil {
			return b.Fallback
		}
		return StaticBoost{}
	}

	topN := b.TopN
	if topN <= 0 {
		topN = len(candidates)
	}

	boosts := make(StaticBoost)
	for _, idx := range order {
		if len(boosts) >= topN {
			break
		}
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		boosts[candidates[idx].ID] = b.Amount
	}
	return boosts
}
