package search

import (
	"careercoach-backend/internal/ranking"
	"careercoach-backend/internal/vecstore"
)

// Hit is one enriched, ranked search result.
type Hit struct {
	DocumentID           string                `json:"document_id"`
	Filename             string                `json:"filename"`
	OriginalFilename     string                `json:"original_filename"`
	DocumentType         vecstore.DocumentType `json:"document_type"`
	UserID               int64                 `json:"user_id"`
	SimilarityScore      float64               `json:"similarity_score"`
	SimilarityPercentage float64               `json:"similarity_percentage"`
	ContentPreview       string                `json:"content_preview"`
	FileSize             int64                 `json:"file_size"`
	FileSizeMB           float64               `json:"file_size_mb"`
	MimeType             string                `json:"mime_type,omitempty"`
	Description          string                `json:"description"`
	DownloadURL          string                `json:"download_url"`
	ViewURL              string                `json:"view_url"`
	CreatedAt            string                `json:"created_at,omitempty"`
	FinalScore           float64               `json:"final_score"`
	RankingScores        ranking.FactorScores  `json:"ranking_scores"`
}

// SearchRequest is the body for POST /search.
type SearchRequest struct {
	Query               string  `json:"query" binding:"required"`
	DocumentType        string  `json:"documentType"`
	Limit               int     `json:"limit"`
	SimilarityThreshold float64 `json:"similarityThreshold"`
}

// SearchResponse wraps a completed search.
type SearchResponse struct {
	Success      bool         `json:"success"`
	Query        string       `json:"query"`
	TotalResults int          `json:"total_results"`
	Results      []Hit        `json:"results"`
	SearchParams SearchParams `json:"search_params"`
}

// SearchParams echoes the effective parameters of a search.
type SearchParams struct {
	UserID              int64   `json:"user_id"`
	DocumentType        string  `json:"document_type,omitempty"`
	Limit               int     `json:"limit"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// SimilarResponse wraps a similar-documents lookup.
type SimilarResponse struct {
	Success           bool   `json:"success"`
	ReferenceDocument string `json:"reference_document_id"`
	TotalResults      int    `json:"total_results"`
	Results           []Hit  `json:"results"`
}

// ServiceInfo describes the search backend configuration.
type ServiceInfo struct {
	EmbeddingProvider  string                  `json:"embedding_provider"`
	EmbeddingDimension int                     `json:"embedding_dimension"`
	SupportedTypes     []vecstore.DocumentType `json:"supported_document_types"`
	RankingWeights     ranking.Weights         `json:"ranking_weights"`
	DefaultThreshold   float64                 `json:"default_threshold"`
	DefaultLimit       int                     `json:"default_limit"`
}
