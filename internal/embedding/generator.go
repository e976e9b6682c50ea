// Package embedding converts document and query text into fixed-dimension
// vectors sharing a single embedding space across indexing and search.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"careercoach-backend/internal/shared/telemetry"
)

const (
	// DefaultDimension matches the multilingual MiniLM sentence model.
	DefaultDimension = 384
	// maxSequenceTokens is the model's token budget; input is truncated by
	// a ~4 chars/token estimate before it is sent to the provider.
	maxSequenceTokens = 512
	charsPerToken     = 4
	maxInputChars     = maxSequenceTokens * charsPerToken
)

var (
	// ErrEmptyInput indicates text that is empty after preprocessing.
	ErrEmptyInput = errors.New("text cannot be empty")
	// ErrDimensionMismatch indicates the provider returned a vector of the
	// wrong dimensionality. This is an internal fault, never reshaped away.
	ErrDimensionMismatch = errors.New("unexpected embedding dimension")
)

// Provider produces raw embedding vectors for batches of preprocessed text.
type Provider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension reports the vector length this provider produces.
	Dimension() int
	// Name identifies the provider implementation.
	Name() string
}

// Warmer is implemented by providers whose backing model benefits from an
// explicit one-time load before serving traffic.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Generator wraps a Provider with preprocessing, validation, normalization
// and bounded concurrency. One Generator instance is shared process-wide.
type Generator struct {
	provider  Provider
	dimension int
	normalize bool

	warmOnce sync.Once
	warmErr  error

	// sem bounds in-flight provider calls so embedding work cannot occupy
	// every request goroutine at once.
	sem chan struct{}
}

// Option customizes a Generator.
type Option func(*Generator)

// WithoutNormalization disables L2 normalization of returned vectors.
func WithoutNormalization() Option {
	return func(g *Generator) { g.normalize = false }
}

// WithMaxInFlight bounds concurrent provider calls.
func WithMaxInFlight(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.sem = make(chan struct{}, n)
		}
	}
}

// NewGenerator constructs a Generator over the given provider.
func NewGenerator(provider Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:  provider,
		dimension: provider.Dimension(),
		normalize: true,
		sem:       make(chan struct{}, 4),
	}
	if g.dimension <= 0 {
		g.dimension = DefaultDimension
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dimension reports the vector length this generator produces.
func (g *Generator) Dimension() int { return g.dimension }

// ProviderName identifies the configured provider.
func (g *Generator) ProviderName() string { return g.provider.Name() }

// Preprocess collapses whitespace, trims, and silently truncates the text to
// the model's approximate input budget, always keeping the prefix.
func Preprocess(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}
	return text
}

// Generate returns the embedding vector for a single text.
func (g *Generator) Generate(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	cleaned := Preprocess(text)
	if cleaned == "" {
		return nil, ErrEmptyInput
	}

	vectors, err := g.embed(ctx, []string{cleaned})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GenerateBatch returns embeddings for multiple texts in input order. Texts
// that are empty after preprocessing are dropped from the batch; the call
// fails only if every input is empty.
func (g *Generator) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		if c := Preprocess(t); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: all texts empty after preprocessing", ErrEmptyInput)
	}

	return g.embed(ctx, cleaned)
}

func (g *Generator) embed(ctx context.Context, texts []string) ([][]float32, error) {
	select {
	case g.sem <- struct{}{}:
		defer func() { <-g.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := g.warm(ctx); err != nil {
		return nil, fmt.Errorf("embedding provider warm-up: %w", err)
	}

	vectors, err := g.provider.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding provider %s: %w", g.provider.Name(), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding provider %s: got %d vectors for %d texts",
			g.provider.Name(), len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if len(vec) != g.dimension {
			return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), g.dimension)
		}
		if g.normalize {
			vectors[i] = Normalize(vec)
		}
	}
	return vectors, nil
}

// warm performs one-time provider initialization. Model loading is expensive
// and must not repeat per call, so the first caller pays it under a Once.
func (g *Generator) warm(ctx context.Context) error {
	g.warmOnce.Do(func() {
		warmer, ok := g.provider.(Warmer)
		if !ok {
			return
		}
		telemetry.Info("embedding.warmup", map[string]any{"provider": g.provider.Name()})
		g.warmErr = warmer.Warm(ctx)
	})
	return g.warmErr
}

// Normalize returns the L2-normalized copy of a vector. Zero vectors are
// returned unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// CosineSimilarity computes cosine similarity in [-1, 1] between two vectors
// of any magnitude. Degenerate inputs (zero norm, length mismatch) return 0.0
// rather than an error: this is a pure numeric utility.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
