// Package vecstore persists document embeddings alongside their relational
// metadata and serves nearest-neighbor queries over them. All mutations flow
// through the indexing service; search and ranking only read.
package vecstore

import "time"

// DocumentType is the closed set of supported document categories.
type DocumentType string

const (
	TypeCV          DocumentType = "cv"
	TypeCoverLetter DocumentType = "cover_letter"
	TypeCertificate DocumentType = "certificate"
	TypeOther       DocumentType = "other"
)

// ParseDocumentType validates a raw document type string.
func ParseDocumentType(raw string) (DocumentType, bool) {
	switch DocumentType(raw) {
	case TypeCV, TypeCoverLetter, TypeCertificate, TypeOther:
		return DocumentType(raw), true
	default:
		return "", false
	}
}

// DocumentTypes lists all valid document types.
func DocumentTypes() []DocumentType {
	return []DocumentType{TypeCV, TypeCoverLetter, TypeCertificate, TypeOther}
}

// ProcessingStatus tracks a document's indexing lifecycle.
type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusProcessed ProcessingStatus = "processed"
	StatusFailed    ProcessingStatus = "failed"
)

// Record is one stored document embedding row. Exactly one row exists per
// (UserID, DocumentID) pair; soft deletion flips IsActive instead of
// removing the row.
type Record struct {
	ID               int64
	UserID           int64
	DocumentID       string
	Filename         string
	OriginalFilename string
	DocumentType     DocumentType
	IsPrimaryCV      bool
	ContentText      string
	ContentEmbedding Vector
	FileSize         int64
	MimeType         string
	FileHash         string
	Description      string
	IsActive         bool
	ProcessingStatus ProcessingStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
