// Package out defines outbound ports (driven ports) for the application.
// These interfaces represent dependencies that the application needs.
package out

import "context"

// CompletionOptions tune a single generation call.
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
}

// CompletionClient is one generative backend. Implementations: OpenAI
// (primary cloud), Ollama (secondary local). Chains of clients are tried
// in a fixed priority order by the llm package.
type CompletionClient interface {
	Name() string
	Complete(ctx context.Context, prompt string, opts *CompletionOptions) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts *CompletionOptions) (string, error)
}

// EmbeddingClient is one embedding backend, with the same two-tier
// fallback as CompletionClient.
type EmbeddingClient interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// FineTuner launches a fine-tuning cycle over an accumulated dataset file.
// A no-op implementation is used when training is disabled.
type FineTuner interface {
	StartFineTune(ctx context.Context, datasetPath string) (jobID string, err error)
}
