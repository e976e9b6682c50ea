package vecstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no matching document embedding row.
var ErrNotFound = errors.New("document embedding not found")

// SearchQuery describes one nearest-neighbor query. Filters scope the
// candidate set inside the store, not as a post-filter, so scoping also
// bounds what similarity information can leak.
type SearchQuery struct {
	Vector       Vector
	Threshold    float64 // inclusive similarity floor
	Limit        int
	UserID       *int64
	DocumentType *DocumentType
}

// Match is one raw similarity hit, pre-ranking.
type Match struct {
	DocumentID       string
	UserID           int64
	Filename         string
	OriginalFilename string
	DocumentType     DocumentType
	Similarity       float64
	ContentText      string
	FileSize         int64
	MimeType         string
	Description      string
	CreatedAt        time.Time // zero when unknown
}

// Stats aggregates indexed documents, optionally for one user.
type Stats struct {
	TotalDocuments   int64 `json:"total_documents"`
	CVCount          int64 `json:"cv_count"`
	CoverLetterCount int64 `json:"cover_letter_count"`
	CertificateCount int64 `json:"certificate_count"`
	OtherCount       int64 `json:"other_count"`
	TotalSizeBytes   int64 `json:"total_size_bytes"`
	ProcessedCount   int64 `json:"processed_count"`
	PendingCount     int64 `json:"pending_count"`
	FailedCount      int64 `json:"failed_count"`
}

// Store defines persistence operations for document embeddings.
type Store interface {
	// Upsert inserts or replaces the row keyed by (UserID, DocumentID)
	// atomically; reprocessing the same document never duplicates rows.
	Upsert(ctx context.Context, rec Record) error
	// SoftDelete marks the row inactive. It reports false when no active
	// row existed, without erroring.
	SoftDelete(ctx context.Context, userID int64, documentID string) (bool, error)
	// Get fetches the row (active or not) including its embedding.
	Get(ctx context.Context, userID int64, documentID string) (Record, error)
	// Search runs a similarity query over active rows only.
	Search(ctx context.Context, q SearchQuery) ([]Match, error)
	// Stats aggregates active rows, scoped to one user when userID is set.
	Stats(ctx context.Context, userID *int64) (Stats, error)
}
