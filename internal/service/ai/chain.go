package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ChainClient answers questions through a compiled eino chain. The template
// carries only the current question; no history or system prompt is sent.
type ChainClient struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChainClient compiles a template → model chain around chatModel.
func NewChainClient(ctx context.Context, chatModel model.BaseChatModel) (*ChainClient, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChainClient{chain: runnable}, nil
}

// Complete runs the chain once for question.
func (c *ChainClient) Complete(ctx context.Context, question string) (string, error) {
	response, err := c.chain.Invoke(ctx, map[string]any{"query": question})
	if err != nil {
		return "", fmt.Errorf("%w: run chain: %w", ErrCompletionFailed, err)
	}
	if response == nil || response.Content == "" {
		return "", completionError("chain returned empty content")
	}

	log.Printf("[ai] chain answered, length=%d", len(response.Content))
	return response.Content, nil
}
