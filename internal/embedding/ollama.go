package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaConfig configures a local Ollama server as the embedding backend.
type OllamaConfig struct {
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// OllamaProvider generates embeddings through the Ollama API.
type OllamaProvider struct {
	cfg    OllamaConfig
	client *ollama.Client
}

// NewOllamaProvider constructs an OllamaProvider.
func NewOllamaProvider(cfg OllamaConfig) (*OllamaProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimension
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}
	return &OllamaProvider{
		cfg:    cfg,
		client: ollama.NewClient(base, &http.Client{Timeout: timeout}),
	}, nil
}

// Name identifies the provider implementation.
func (p *OllamaProvider) Name() string { return "ollama" }

// Dimension reports the configured vector length.
func (p *OllamaProvider) Dimension() int { return p.cfg.Dimensions }

// Warm pings the server once so the model is resident before first use.
func (p *OllamaProvider) Warm(ctx context.Context) error {
	if err := p.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama heartbeat: %w", err)
	}
	// An empty-string embed forces the model into memory.
	_, err := p.client.Embed(ctx, &ollama.EmbedRequest{Model: p.cfg.Model, Input: "warmup"})
	return err
}

// Embed returns one vector per input text, in input order.
func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.Embed(ctx, &ollama.EmbedRequest{
		Model: p.cfg.Model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
