// Package ollama implements the Embedding Provider and Generator
// contracts against a local Ollama daemon.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

const providerName = "ollama"

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultEmbedModel = "nomic-embed-text"
	DefaultChatModel  = "llama3.2:3b"
	DefaultTimeout    = 120 * time.Second
)

// Compile-time checks against the provider contracts.
var (
	_ domain.Embedder      = (*Client)(nil)
	_ domain.Generator     = (*Client)(nil)
	_ domain.ModelUnloader = (*Client)(nil)
)

// Config holds Ollama connection and generation settings.
type Config struct {
	BaseURL     string
	EmbedModel  string
	ChatModel   string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Client talks to an Ollama daemon over its HTTP API. A single client
// serves both embedding and generation so model unloading can release
// both models in one place.
type Client struct {
	http        *http.Client
	baseURL     string
	embedModel  string
	chatModel   string
	temperature float64
	topP        float64
	maxTokens   int
	logger      *zap.Logger
}

// embedRequest is the Ollama /api/embeddings request format.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the Ollama /api/embeddings response format.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// generateRequest is the Ollama /api/generate request format.
// A KeepAlive of "0" asks the daemon to evict the model immediately.
type generateRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt,omitempty"`
	Stream    bool     `json:"stream"`
	KeepAlive *string  `json:"keep_alive,omitempty"`
	Options   *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// New creates an Ollama client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		embedModel:  cfg.EmbedModel,
		chatModel:   cfg.ChatModel,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
}

// Model returns the embedding model identifier.
func (c *Client) Model() string { return c.embedModel }

// Embed implements domain.Embedder via /api/embeddings.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()

	var resp embedResponse
	err := c.post(ctx, "/api/embeddings", embedRequest{Model: c.embedModel, Prompt: text}, &resp)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, c.embedModel, "error").Inc()
		return domain.EmbeddingResult{}, err
	}
	if len(resp.Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, c.embedModel, "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrProviderFailure)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, c.embedModel, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, c.embedModel).Observe(duration.Seconds())

	return domain.EmbeddingResult{Embedding: resp.Embedding}, nil
}

// Complete implements domain.Generator via /api/generate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Model:  c.chatModel,
		Prompt: prompt,
		Stream: false,
		Options: &options{
			NumPredict:  c.maxTokens,
			Temperature: c.temperature,
			TopP:        c.topP,
		},
	}

	start := time.Now()

	var resp generateResponse
	err := c.post(ctx, "/api/generate", req, &resp)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, c.chatModel, "error").Inc()
		return "", err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerName, c.chatModel, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(providerName, c.chatModel).Observe(duration.Seconds())

	return resp.Response, nil
}

// Unload asks the daemon to evict both models by issuing empty
// generate requests with keep_alive 0. Failures on one model do not
// stop the other from being released.
func (c *Client) Unload(ctx context.Context) error {
	zero := "0"

	var firstErr error
	for _, model := range []string{c.chatModel, c.embedModel} {
		req := generateRequest{Model: model, Stream: false, KeepAlive: &zero}
		var resp generateResponse
		if err := c.post(ctx, "/api/generate", req, &resp); err != nil {
			c.logger.Warn("failed to unload model", zap.String("model", model), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("unload %s: %w", model, err)
			}
		}
	}
	return firstErr
}

// HealthCheck verifies daemon availability via the version endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

// post sends a JSON request and decodes the JSON response. Non-2xx
// statuses and transport failures are wrapped with domain.ErrProviderFailure.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", domain.ErrProviderFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ollama returned status %d: %s: %w", resp.StatusCode, detail, domain.ErrProviderFailure)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", domain.ErrProviderFailure)
	}
	return nil
}
