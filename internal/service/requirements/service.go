package requirements

import (
	"context"
	"fmt"

	"github.com/feichai0017/smart-sdlc/config"
	"github.com/feichai0017/smart-sdlc/internal/agent"
	"github.com/feichai0017/smart-sdlc/internal/agent/llm"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

// CompletionClient is a Completer that holds network resources.
type CompletionClient interface {
	llm.Completer
	Close() error
}

// NewCompletionClient creates the backend selected by cfg.Provider.
func NewCompletionClient(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (CompletionClient, error) {
	switch cfg.Provider {
	case config.ProviderVertex:
		client, err := llm.NewVertexClient(ctx, cfg.VertexClientConfig(), log)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderGroq, "":
		client, err := llm.NewClient(cfg.ClientConfig(), log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

// GetPipeline wires the production pipeline: document processors, the remote
// classifier and the heuristic fallback. The returned client is shared with
// the assistant endpoints.
func GetPipeline(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (*Pipeline, CompletionClient, error) {
	client, err := NewCompletionClient(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	factory := agent.NewProcessorFactory(log)
	remote := llm.NewClassifier(client, log)
	return NewPipeline(factory, remote, log), client, nil
}
