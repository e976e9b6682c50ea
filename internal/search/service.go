package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"careercoach-backend/internal/ranking"
	"careercoach-backend/internal/shared/telemetry"
	"careercoach-backend/internal/vecstore"
)

const (
	// DefaultLimit caps search results when the caller does not choose one.
	DefaultLimit = 10
	// DefaultSimilarLimit caps similar-document recommendations.
	DefaultSimilarLimit = 5
	// DefaultThreshold is the inclusive similarity floor for all searches.
	DefaultThreshold = 0.3

	previewLength = 200
)

// QueryEmbedder turns a query into a vector. Satisfied by
// *embedding.Generator.
type QueryEmbedder interface {
	Generate(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ProviderName() string
}

type Service struct {
	Store    vecstore.Store
	Embedder QueryEmbedder
	Ranker   *ranking.Service
}

func NewService(store vecstore.Store, embedder QueryEmbedder, ranker *ranking.Service) *Service {
	return &Service{Store: store, Embedder: embedder, Ranker: ranker}
}

// Options tunes one search call. Zero values fall back to defaults.
type Options struct {
	Limit        int
	Threshold    float64
	DocumentType *vecstore.DocumentType
}

func (o Options) normalized() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	return o
}

// SemanticSearch embeds the query and returns ranked, enriched matches from
// the caller's documents. Results never cross the user boundary; the scope
// filter runs inside the store query, not as a post-filter.
func (s *Service) SemanticSearch(ctx context.Context, userID int64, query string, opts Options) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	opts = opts.normalized()

	vector, err := s.Embedder.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.Store.Search(ctx, vecstore.SearchQuery{
		Vector:       vector,
		Threshold:    opts.Threshold,
		Limit:        opts.Limit,
		UserID:       &userID,
		DocumentType: opts.DocumentType,
	})
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	hits := s.enrich(s.Ranker.Rank(matches))
	telemetry.Info("search.completed", map[string]any{
		"user_id":   userID,
		"results":   len(hits),
		"threshold": opts.Threshold,
	})
	return hits, nil
}

// SearchByDocumentType searches the caller's documents of one type. The type
// is validated before the query is embedded so a typo fails fast and cheap.
func (s *Service) SearchByDocumentType(ctx context.Context, userID int64, query, documentType string, opts Options) ([]Hit, error) {
	docType, ok := vecstore.ParseDocumentType(documentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q, must be one of %v", ErrInvalidDocumentType, documentType, vecstore.DocumentTypes())
	}
	opts.DocumentType = &docType
	return s.SemanticSearch(ctx, userID, query, opts)
}

// GetSimilarDocuments recommends documents similar to a reference document
// the caller owns, using the stored embedding so no re-embedding happens.
// The reference document itself is excluded from the results.
func (s *Service) GetSimilarDocuments(ctx context.Context, userID int64, documentID string, opts Options) ([]Hit, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSimilarLimit
	}
	opts = opts.normalized()

	rec, err := s.Store.Get(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, vecstore.ErrNotFound) {
			return nil, ErrNotFoundOrDenied
		}
		return nil, fmt.Errorf("load reference document: %w", err)
	}
	if !rec.IsActive || len(rec.ContentEmbedding) == 0 {
		return nil, ErrNotFoundOrDenied
	}

	// Fetch one extra so the reference document can be dropped without
	// shrinking the page.
	matches, err := s.Store.Search(ctx, vecstore.SearchQuery{
		Vector:    rec.ContentEmbedding,
		Threshold: opts.Threshold,
		Limit:     opts.Limit + 1,
		UserID:    &userID,
	})
	if err != nil {
		return nil, fmt.Errorf("search similar documents: %w", err)
	}

	filtered := matches[:0]
	for _, m := range matches {
		if m.DocumentID != documentID {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}
	return s.enrich(s.Ranker.Rank(filtered)), nil
}

// GetSearchStatistics aggregates indexed document counts, for one user or
// globally when userID is nil.
func (s *Service) GetSearchStatistics(ctx context.Context, userID *int64) (vecstore.Stats, error) {
	stats, err := s.Store.Stats(ctx, userID)
	if err != nil {
		return vecstore.Stats{}, fmt.Errorf("load statistics: %w", err)
	}
	return stats, nil
}

// Info describes the search backend for the /info endpoint.
func (s *Service) Info() ServiceInfo {
	return ServiceInfo{
		EmbeddingProvider:  s.Embedder.ProviderName(),
		EmbeddingDimension: s.Embedder.Dimension(),
		SupportedTypes:     vecstore.DocumentTypes(),
		RankingWeights:     s.Ranker.Weights(),
		DefaultThreshold:   DefaultThreshold,
		DefaultLimit:       DefaultLimit,
	}
}

func (s *Service) enrich(ranked []ranking.RankedMatch) []Hit {
	hits := make([]Hit, 0, len(ranked))
	for _, r := range ranked {
		hits = append(hits, Hit{
			DocumentID:           r.DocumentID,
			Filename:             r.Filename,
			OriginalFilename:     r.OriginalFilename,
			DocumentType:         r.DocumentType,
			UserID:               r.UserID,
			SimilarityScore:      round4(r.Similarity),
			SimilarityPercentage: round2(r.Similarity * 100),
			ContentPreview:       makePreview(r.ContentText),
			FileSize:             r.FileSize,
			FileSizeMB:           round2(float64(r.FileSize) / (1024 * 1024)),
			MimeType:             r.MimeType,
			Description:          r.Description,
			DownloadURL:          fmt.Sprintf("/api/documents/%s/download", r.DocumentID),
			ViewURL:              fmt.Sprintf("/api/documents/%s/view", r.DocumentID),
			CreatedAt:            formatTime(r.CreatedAt),
			FinalScore:           r.FinalScore,
			RankingScores:        r.Factors,
		})
	}
	return hits
}

func makePreview(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > previewLength {
		return strings.TrimSpace(string(runes[:previewLength])) + "..."
	}
	return text
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
