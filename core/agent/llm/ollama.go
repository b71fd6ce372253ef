package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

// OllamaClient is the secondary local provider, talking to an Ollama
// instance over HTTP. It implements both out.CompletionClient and
// out.EmbeddingClient and is tried when the cloud provider fails.
type OllamaClient struct {
	baseURL        string
	model          string
	embeddingModel string
	httpClient     *http.Client
}

type OllamaConfig struct {
	BaseURL        string
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
}

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	model := cfg.Model
	if model == "" {
		model = "llama3.1"
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "nomic-embed-text"
	}
	return &OllamaClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		model:          model,
		embeddingModel: embeddingModel,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

func (c *OllamaClient) Name() string {
	return "ollama"
}

// IsRunning returns true if the Ollama server responds to GET /api/tags.
func (c *OllamaClient) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string, opts *out.CompletionOptions) (string, error) {
	return c.chat(ctx, []ollamaChatMessage{{Role: "user", Content: prompt}}, opts)
}

func (c *OllamaClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts *out.CompletionOptions) (string, error) {
	return c.chat(ctx, []ollamaChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, opts)
}

func (c *OllamaClient) chat(ctx context.Context, messages []ollamaChatMessage, opts *out.CompletionOptions) (string, error) {
	reqBody := ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	}
	if opts != nil {
		options := make(map[string]any)
		if opts.Temperature != 0 {
			options["temperature"] = opts.Temperature
		}
		if opts.MaxTokens != 0 {
			options["num_predict"] = opts.MaxTokens
		}
		if len(options) > 0 {
			reqBody.Options = options
		}
	}

	var chatResp ollamaChatResponse
	if err := c.post(ctx, "/api/chat", reqBody, &chatResp); err != nil {
		return "", err
	}
	return chatResp.Message.Content, nil
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var embResp ollamaEmbeddingResponse
	err := c.post(ctx, "/api/embeddings", ollamaEmbeddingRequest{
		Model:  c.embeddingModel,
		Prompt: text,
	}, &embResp)
	if err != nil {
		return nil, err
	}
	return embResp.Embedding, nil
}

func (c *OllamaClient) post(ctx context.Context, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
