package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agenthands/creatorgraph/internal/core/common"
)

const defaultRankPrompt = `You are a creator discovery relevance system.
Query: %s

Creators:
%s

Rank the creators above by how well their profile matches the query.
Return a JSON object listing the indices of relevant creators, most relevant first.
Example: {"ranked": [0, 2, 1]}
Leave out creators that are not relevant.`

type rankResponse struct {
	Ranked []int `json:"ranked"`
}

// SimpleLLMReranker asks an LLM to order documents by relevance.
type SimpleLLMReranker struct {
	LLM    LLMClient
	Prompt string // Format string taking the query and the document list
}

func NewSimpleLLMReranker(client LLMClient, prompt string) *SimpleLLMReranker {
	if prompt == "" {
		prompt = defaultRankPrompt
	}
	return &SimpleLLMReranker{LLM: client, Prompt: prompt}
}

func (r *SimpleLLMReranker) Rank(ctx context.Context, query string, docs []string) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) == 1 {
		return []int{0}, nil
	}

	var docList strings.Builder
	for i, d := range docs {
		// Truncate very long docs
		content := d
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Fprintf(&docList, "[%d] %s\n", i, content)
	}

	resp, err := r.LLM.Generate(ctx, fmt.Sprintf(r.Prompt, query, docList.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate ranking: %w", err)
	}

	if parsed, err := common.ParseJSON[rankResponse](resp); err == nil {
		return parsed.Ranked, nil
	}
	return parseIndices(resp), nil
}

var indexPattern = regexp.MustCompile(`\d+`)

func parseIndices(s string) []int {
	var indices []int
	for _, m := range indexPattern.FindAllString(s, -1) {
		if i, err := strconv.Atoi(m); err == nil {
			indices = append(indices, i)
		}
	}
	return indices
}
