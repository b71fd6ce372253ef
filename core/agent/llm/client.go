package llm

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

const DefaultModel = "gpt-4o-mini"

// Client is the primary cloud provider, backed by the OpenAI API.
// It implements both out.CompletionClient and out.EmbeddingClient.
type Client struct {
	client         *openai.Client
	model          string
	embeddingModel openai.EmbeddingModel
	maxTokens      int
	temperature    float32
	timeout        time.Duration
}

type ClientConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float64
	Timeout        time.Duration
}

func NewClient(apiKey string) *Client {
	return NewClientWithConfig(ClientConfig{APIKey: apiKey})
}

func NewClientWithConfig(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	embeddingModel := openai.EmbeddingModel(cfg.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = openai.AdaEmbeddingV2
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		client:         openai.NewClient(cfg.APIKey),
		model:          model,
		embeddingModel: embeddingModel,
		maxTokens:      maxTokens,
		temperature:    float32(temperature),
		timeout:        timeout,
	}
}

func (c *Client) Name() string {
	return "openai"
}

func (c *Client) Complete(ctx context.Context, prompt string, opts *out.CompletionOptions) (string, error) {
	return c.chat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, opts)
}

func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts *out.CompletionOptions) (string, error) {
	return c.chat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}, opts)
}

func (c *Client) chat(ctx context.Context, messages []openai.ChatCompletionMessage, opts *out.CompletionOptions) (string, error) {
	temperature := c.temperature
	maxTokens := c.maxTokens
	if opts != nil {
		if opts.Temperature != 0 {
			temperature = opts.Temperature
		}
		if opts.MaxTokens != 0 {
			maxTokens = opts.MaxTokens
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: c.embeddingModel,
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, nil
	}

	return resp.Data[0].Embedding, nil
}
