package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// ClaudeClient only generates text; it is used as the judge behind the
// LLM rerank boost.
type ClaudeClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// The judge answers with a short JSON list of indices.
const claudeMaxTokens = 512

func NewClaudeClient(apiKey string, model string, baseURL string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return &ClaudeClient{
		client:    anthropic.NewClient(apiKey, opts...),
		model:     model,
		maxTokens: claudeMaxTokens,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	for _, block := range resp.Content {
		if block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", fmt.Errorf("claude: no text in response")
}

func (c *ClaudeClient) Embed(context.Context, []string) ([][]float32, error) {
	return nil, ErrEmbeddingsUnsupported
}
