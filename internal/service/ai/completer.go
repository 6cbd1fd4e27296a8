package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexa-ai/nexa-chat/internal/config"
)

// ErrCompletionFailed is the single failure kind surfaced by every Completer.
// Transport errors, non-2xx statuses and malformed bodies all wrap it.
var ErrCompletionFailed = errors.New("completion failed")

// Completer turns one question into one answer.
type Completer interface {
	Complete(ctx context.Context, question string) (string, error)
}

// NewCompleter builds the Completer selected by cfg.Completion.Provider.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	switch cfg.Completion.Provider {
	case config.ProviderGemini, "":
		return NewGeminiClient(cfg.Completion, nil), nil
	case config.ProviderArk:
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewChainClient(ctx, chatModel)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Completion.Provider)
	}
}

func completionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCompletionFailed, fmt.Sprintf(format, args...))
}
