package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/creatorgraph/internal/config"
)

type MockLLM struct {
	Response string
	Err      error
	Prompt   string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompt = prompt
	return m.Response, m.Err
}

func TestSimpleLLMReranker_ParsesJSON(t *testing.T) {
	mock := &MockLLM{Response: "Sure:\n```json\n{\"ranked\": [2, 0]}\n```"}
	r := NewSimpleLLMReranker(mock, "")

	order, err := r.Rank(context.Background(), "tech reviewers", []string{"@chef: cooking", "@travel: trips", "@guru: AI gadgets"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, order)
	assert.Contains(t, mock.Prompt, "Query: tech reviewers")
	assert.Contains(t, mock.Prompt, "[2] @guru: AI gadgets")
}

func TestSimpleLLMReranker_FallsBackToIndices(t *testing.T) {
	r := NewSimpleLLMReranker(&MockLLM{Response: "1, 0"}, "")

	order, err := r.Rank(context.Background(), "q", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, order)
}

func TestSimpleLLMReranker_ReturnsErrors(t *testing.T) {
	r := NewSimpleLLMReranker(&MockLLM{Err: errors.New("rate limited")}, "")

	_, err := r.Rank(context.Background(), "q", []string{"a", "b"})
	assert.Error(t, err)
}

func TestSimpleLLMReranker_TrivialInputs(t *testing.T) {
	mock := &MockLLM{}
	r := NewSimpleLLMReranker(mock, "")

	order, err := r.Rank(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, order)

	order, err = r.Rank(context.Background(), "q", []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, order)
	assert.Empty(t, mock.Prompt, "single document needs no model call")
}

func TestSimpleLLMReranker_TruncatesLongDocs(t *testing.T) {
	mock := &MockLLM{Response: `{"ranked": [0]}`}
	r := NewSimpleLLMReranker(mock, "")

	_, err := r.Rank(context.Background(), "q", []string{strings.Repeat("x", 500), "short"})
	require.NoError(t, err)
	assert.NotContains(t, mock.Prompt, strings.Repeat("x", 201))
}

func TestHashEmbedder(t *testing.T) {
	h := NewHashEmbedder(64)

	vecs, err := h.Embed(context.Background(), []string{"AI gadgets reviews", "ai GADGETS reviews", "cooking recipes", ""})
	require.NoError(t, err)
	require.Len(t, vecs, 4)
	for _, v := range vecs {
		assert.Len(t, v, 64)
	}
	assert.Equal(t, vecs[0], vecs[1], "embedding is case-insensitive")
	assert.NotEqual(t, vecs[0], vecs[2])

	var norm float32
	for _, x := range vecs[0] {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
	assert.Equal(t, make([]float32, 64), vecs[3])
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	gen, emb, err := NewClient(ctx, config.LLMConfig{Provider: "hash", Dimension: 8})
	require.NoError(t, err)
	assert.Nil(t, gen)
	assert.IsType(t, &HashEmbedder{}, emb)

	gen, emb, err = NewClient(ctx, config.LLMConfig{Provider: "OpenAI", APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, gen)
	assert.IsType(t, &OpenAIClient{}, emb)

	gen, emb, err = NewClient(ctx, config.LLMConfig{Provider: "claude", APIKey: "k", Model: "claude-3-haiku"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, gen)
	assert.Nil(t, emb)

	gen, _, err = NewClient(ctx, config.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1", gen.(*OpenAIClient).baseURL)

	_, _, err = NewClient(ctx, config.LLMConfig{Provider: "unknown"})
	assert.Error(t, err)
}

func TestClaudeClient_NoEmbeddings(t *testing.T) {
	_, err := NewClaudeClient("k", "m", "").Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrEmbeddingsUnsupported)
}
