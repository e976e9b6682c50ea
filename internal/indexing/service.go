package indexing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"careercoach-backend/internal/extract"
	"careercoach-backend/internal/shared/telemetry"
	"careercoach-backend/internal/shared/util"
	"careercoach-backend/internal/vecstore"
)

// MinContentLength is the minimum number of extracted characters required
// before a document is considered worth embedding.
const MinContentLength = 50

// Embedder turns one text into a vector. Satisfied by *embedding.Generator.
type Embedder interface {
	Generate(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

type Service struct {
	Store    vecstore.Store
	Embedder Embedder
}

func NewService(store vecstore.Store, embedder Embedder) *Service {
	return &Service{Store: store, Embedder: embedder}
}

// ProcessInput describes one uploaded file to index.
type ProcessInput struct {
	UserID           int64
	DocumentID       string // generated when empty
	FilePath         string
	Filename         string
	OriginalFilename string
	DocumentType     vecstore.DocumentType
	Description      string
	FileSize         int64 // stat'd from FilePath when zero
	MimeType         string
}

// Result reports what was indexed for a successfully processed document.
type Result struct {
	DocumentID         string `json:"documentId"`
	TextLength         int    `json:"textLength"`
	EmbeddingDimension int    `json:"embeddingDimension"`
	IsPrimaryCV        bool   `json:"isPrimaryCv"`
	FileHash           string `json:"fileHash,omitempty"`
}

// StatusInfo reports the stored indexing state of a document.
type StatusInfo struct {
	DocumentID       string                   `json:"documentId"`
	ProcessingStatus vecstore.ProcessingStatus `json:"processingStatus"`
	DocumentType     vecstore.DocumentType    `json:"documentType"`
	IsPrimaryCV      bool                     `json:"isPrimaryCv"`
	IsActive         bool                     `json:"isActive"`
	TextLength       int                      `json:"textLength"`
	CreatedAt        string                   `json:"createdAt"`
	UpdatedAt        string                   `json:"updatedAt"`
}

// ProcessDocument extracts text from the file, embeds it, and upserts the
// embedding row for (user, document). A document shorter than
// MinContentLength characters is rejected without persisting anything.
func (s *Service) ProcessDocument(ctx context.Context, in ProcessInput) (Result, error) {
	if in.UserID <= 0 {
		return Result{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.FilePath) == "" {
		return Result{}, fmt.Errorf("%w: file path required", ErrInvalidInput)
	}
	if _, ok := vecstore.ParseDocumentType(string(in.DocumentType)); !ok {
		return Result{}, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, in.DocumentType)
	}
	if in.DocumentID == "" {
		in.DocumentID = uuid.NewString()
	}
	if in.Filename == "" {
		in.Filename = filepathBase(in.FilePath)
	}
	name, err := util.SanitizeFileName(in.Filename)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in.Filename = name
	if orig, err := util.SanitizeFileName(in.OriginalFilename); err == nil {
		in.OriginalFilename = orig
	} else {
		in.OriginalFilename = name
	}

	text, err := extract.ExtractText(in.FilePath)
	if err != nil {
		return Result{}, fmt.Errorf("extract text: %w", err)
	}
	if len(text) < MinContentLength {
		return Result{}, ErrInsufficientContent
	}

	vector, err := s.Embedder.Generate(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	// Hash and size are best effort; the embedding row is still useful
	// without them.
	fileHash, err := util.HashFile(in.FilePath)
	if err != nil {
		telemetry.Warn("indexing.hash_failed", map[string]any{
			"document_id": in.DocumentID,
			"error":       err.Error(),
		})
		fileHash = ""
	}
	fileSize := in.FileSize
	if fileSize == 0 {
		if info, statErr := os.Stat(in.FilePath); statErr == nil {
			fileSize = info.Size()
		}
	}

	rec := vecstore.Record{
		UserID:           in.UserID,
		DocumentID:       in.DocumentID,
		Filename:         in.Filename,
		OriginalFilename: in.OriginalFilename,
		DocumentType:     in.DocumentType,
		IsPrimaryCV:      in.DocumentType == vecstore.TypeCV,
		ContentText:      text,
		ContentEmbedding: vector,
		FileSize:         fileSize,
		MimeType:         in.MimeType,
		FileHash:         fileHash,
		Description:      in.Description,
		IsActive:         true,
		ProcessingStatus: vecstore.StatusProcessed,
	}
	if err := s.Store.Upsert(ctx, rec); err != nil {
		return Result{}, fmt.Errorf("store embedding: %w", err)
	}

	telemetry.Info("indexing.document_processed", map[string]any{
		"user_id":     in.UserID,
		"document_id": in.DocumentID,
		"type":        string(in.DocumentType),
		"text_length": len(text),
	})
	return Result{
		DocumentID:         in.DocumentID,
		TextLength:         len(text),
		EmbeddingDimension: s.Embedder.Dimension(),
		IsPrimaryCV:        rec.IsPrimaryCV,
		FileHash:           fileHash,
	}, nil
}

// ReprocessDocument re-extracts and re-embeds a document that was indexed
// before, reusing the stored metadata. The file must still exist on disk.
func (s *Service) ReprocessDocument(ctx context.Context, userID int64, documentID, filePath string) (Result, error) {
	rec, err := s.Store.Get(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, vecstore.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("load document: %w", err)
	}
	return s.ProcessDocument(ctx, ProcessInput{
		UserID:           userID,
		DocumentID:       documentID,
		FilePath:         filePath,
		Filename:         rec.Filename,
		OriginalFilename: rec.OriginalFilename,
		DocumentType:     rec.DocumentType,
		Description:      rec.Description,
		MimeType:         rec.MimeType,
	})
}

// DeleteDocumentEmbedding deactivates a document's embedding row. Deleting a
// document that is already gone is reported via ErrNotFound rather than
// failing the caller's flow.
func (s *Service) DeleteDocumentEmbedding(ctx context.Context, userID int64, documentID string) error {
	found, err := s.Store.SoftDelete(ctx, userID, documentID)
	if err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	telemetry.Info("indexing.document_deleted", map[string]any{
		"user_id":     userID,
		"document_id": documentID,
	})
	return nil
}

// GetEmbeddingStatus reports the stored indexing state for a document.
func (s *Service) GetEmbeddingStatus(ctx context.Context, userID int64, documentID string) (StatusInfo, error) {
	rec, err := s.Store.Get(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, vecstore.ErrNotFound) {
			return StatusInfo{}, ErrNotFound
		}
		return StatusInfo{}, fmt.Errorf("load document: %w", err)
	}
	return StatusInfo{
		DocumentID:       rec.DocumentID,
		ProcessingStatus: rec.ProcessingStatus,
		DocumentType:     rec.DocumentType,
		IsPrimaryCV:      rec.IsPrimaryCV,
		IsActive:         rec.IsActive,
		TextLength:       len(rec.ContentText),
		CreatedAt:        rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:        rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

func filepathBase(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
