package indexing

import "errors"

var (
	// ErrInsufficientContent indicates extracted text too short to embed
	// meaningfully. Nothing is persisted when this is returned.
	ErrInsufficientContent = errors.New("document contains insufficient text for analysis")
	// ErrNotFound indicates no embedding row for the (user, document) pair.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a malformed processing request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbedding wraps failures from the embedding provider.
	ErrEmbedding = errors.New("embedding generation failed")
)

const (
	ErrorCodeInsufficientContent = "insufficient_content"
	ErrorCodeUnsupportedFormat   = "unsupported_format"
	ErrorCodeNotFound            = "not_found"
	ErrorCodeEmbedding           = "embedding_error"
	ErrorCodeExtraction          = "extraction_error"
	ErrorCodeStorage             = "storage_error"
	ErrorCodeValidation          = "validation_error"
)
