package llm

import (
	"context"
	"errors"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

// ErrNoProvider is returned when every tier in a chain failed.
var ErrNoProvider = errors.New("all providers failed")

// CompletionChain tries completion backends in a fixed priority order.
// Adding a third tier or reordering is a constructor change only.
type CompletionChain struct {
	clients []out.CompletionClient
}

func NewCompletionChain(clients ...out.CompletionClient) *CompletionChain {
	return &CompletionChain{clients: clients}
}

func (c *CompletionChain) Name() string {
	return "chain"
}

func (c *CompletionChain) Complete(ctx context.Context, prompt string, opts *out.CompletionOptions) (string, error) {
	var lastErr error
	for _, client := range c.clients {
		result, err := client.Complete(ctx, prompt, opts)
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Warn("completion provider %s failed, trying next tier: %v", client.Name(), err)
	}
	if lastErr == nil {
		lastErr = ErrNoProvider
	}
	return "", lastErr
}

func (c *CompletionChain) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts *out.CompletionOptions) (string, error) {
	var lastErr error
	for _, client := range c.clients {
		result, err := client.CompleteWithSystem(ctx, systemPrompt, userPrompt, opts)
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Warn("completion provider %s failed, trying next tier: %v", client.Name(), err)
	}
	if lastErr == nil {
		lastErr = ErrNoProvider
	}
	return "", lastErr
}

// EmbeddingChain tries embedding backends in a fixed priority order.
type EmbeddingChain struct {
	clients []out.EmbeddingClient
}

func NewEmbeddingChain(clients ...out.EmbeddingClient) *EmbeddingChain {
	return &EmbeddingChain{clients: clients}
}

func (c *EmbeddingChain) Name() string {
	return "chain"
}

func (c *EmbeddingChain) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for _, client := range c.clients {
		vec, err := client.Embed(ctx, text)
		if err == nil && len(vec) > 0 {
			return vec, nil
		}
		if err != nil {
			lastErr = err
			logger.Warn("embedding provider %s failed, trying next tier: %v", client.Name(), err)
		}
	}
	if lastErr == nil {
		lastErr = ErrNoProvider
	}
	return nil, lastErr
}
