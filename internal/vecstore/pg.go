package vecstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGStore implements Store on Postgres with the pgvector extension.
type PGStore struct {
	DB *sql.DB
}

// Upsert inserts or replaces the row keyed by (user_id, document_id). The
// single-statement ON CONFLICT keeps concurrent reprocessing of the same
// document last-writer-wins without duplicate rows.
func (s *PGStore) Upsert(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO document_embeddings (
    user_id, document_id, filename, original_filename, document_type,
    is_primary_cv, content_text, content_embedding, file_size, mime_type,
    file_hash, description, is_active, processing_status
) VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8::vector, $9, $10,
    $11, $12, $13, $14
)
ON CONFLICT (user_id, document_id)
DO UPDATE SET
    filename = EXCLUDED.filename,
    original_filename = EXCLUDED.original_filename,
    document_type = EXCLUDED.document_type,
    is_primary_cv = EXCLUDED.is_primary_cv,
    content_text = EXCLUDED.content_text,
    content_embedding = EXCLUDED.content_embedding,
    file_size = EXCLUDED.file_size,
    mime_type = EXCLUDED.mime_type,
    file_hash = EXCLUDED.file_hash,
    description = EXCLUDED.description,
    is_active = EXCLUDED.is_active,
    processing_status = EXCLUDED.processing_status,
    updated_at = now()`

	_, err := s.DB.ExecContext(ctx, query,
		rec.UserID,
		rec.DocumentID,
		rec.Filename,
		rec.OriginalFilename,
		string(rec.DocumentType),
		rec.IsPrimaryCV,
		nullString(rec.ContentText),
		nullVector(rec.ContentEmbedding),
		rec.FileSize,
		nullString(rec.MimeType),
		nullString(rec.FileHash),
		nullString(rec.Description),
		rec.IsActive,
		string(rec.ProcessingStatus),
	)
	if err != nil {
		return fmt.Errorf("upsert document embedding: %w", err)
	}
	return nil
}

// SoftDelete flips is_active off, keeping the row (and its embedding) for
// audit and cheap undelete.
func (s *PGStore) SoftDelete(ctx context.Context, userID int64, documentID string) (bool, error) {
	const query = `
UPDATE document_embeddings
SET is_active = FALSE, updated_at = now()
WHERE user_id = $1 AND document_id = $2 AND is_active = TRUE
RETURNING id`

	var id int64
	err := s.DB.QueryRowContext(ctx, query, userID, documentID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("soft delete document embedding: %w", err)
	}
	return true, nil
}

// Get fetches the row including its embedding, active or not.
func (s *PGStore) Get(ctx context.Context, userID int64, documentID string) (Record, error) {
	const query = `
SELECT id, user_id, document_id, filename, original_filename, document_type,
       is_primary_cv, content_text, content_embedding::text, file_size, mime_type,
       file_hash, description, is_active, processing_status, created_at, updated_at
FROM document_embeddings
WHERE user_id = $1 AND document_id = $2`

	var (
		rec       Record
		text      sql.NullString
		embedding sql.NullString
		fileSize  sql.NullInt64
		mimeType  sql.NullString
		fileHash  sql.NullString
		descr     sql.NullString
		docType   string
		status    string
	)
	err := s.DB.QueryRowContext(ctx, query, userID, documentID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.DocumentID,
		&rec.Filename,
		&rec.OriginalFilename,
		&docType,
		&rec.IsPrimaryCV,
		&text,
		&embedding,
		&fileSize,
		&mimeType,
		&fileHash,
		&descr,
		&rec.IsActive,
		&status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get document embedding: %w", err)
	}

	rec.DocumentType = DocumentType(docType)
	rec.ProcessingStatus = ProcessingStatus(status)
	rec.ContentText = text.String
	rec.MimeType = mimeType.String
	rec.FileHash = fileHash.String
	rec.Description = descr.String
	rec.FileSize = fileSize.Int64
	if embedding.Valid {
		vec, err := ParseVector(embedding.String)
		if err != nil {
			return Record{}, fmt.Errorf("decode stored embedding: %w", err)
		}
		rec.ContentEmbedding = vec
	}
	return rec, nil
}

// Search runs a cosine nearest-neighbor query over active rows. User and
// type filters live in the WHERE clause so the candidate set is scoped at
// query stage.
func (s *PGStore) Search(ctx context.Context, q SearchQuery) ([]Match, error) {
	const query = `
SELECT document_id, user_id, filename, original_filename, document_type,
       content_text, file_size, mime_type, description, created_at,
       1 - (content_embedding <=> $1::vector) AS similarity
FROM document_embeddings
WHERE is_active = TRUE
  AND content_embedding IS NOT NULL
  AND ($2::bigint IS NULL OR user_id = $2)
  AND ($3::varchar IS NULL OR document_type = $3)
  AND 1 - (content_embedding <=> $1::vector) >= $4
ORDER BY content_embedding <=> $1::vector
LIMIT $5`

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	var userID sql.NullInt64
	if q.UserID != nil {
		userID = sql.NullInt64{Int64: *q.UserID, Valid: true}
	}
	var docType sql.NullString
	if q.DocumentType != nil {
		docType = sql.NullString{String: string(*q.DocumentType), Valid: true}
	}

	rows, err := s.DB.QueryContext(ctx, query, q.Vector.String(), userID, docType, q.Threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var (
			m        Match
			text     sql.NullString
			fileSize sql.NullInt64
			mimeType sql.NullString
			descr    sql.NullString
			docType  string
			created  sql.NullTime
		)
		if err := rows.Scan(
			&m.DocumentID,
			&m.UserID,
			&m.Filename,
			&m.OriginalFilename,
			&docType,
			&text,
			&fileSize,
			&mimeType,
			&descr,
			&created,
			&m.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		m.DocumentType = DocumentType(docType)
		m.ContentText = text.String
		m.FileSize = fileSize.Int64
		m.MimeType = mimeType.String
		m.Description = descr.String
		if created.Valid {
			m.CreatedAt = created.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Stats aggregates active rows, scoped to one user when userID is set.
func (s *PGStore) Stats(ctx context.Context, userID *int64) (Stats, error) {
	const query = `
SELECT count(*),
       count(*) FILTER (WHERE document_type = 'cv'),
       count(*) FILTER (WHERE document_type = 'cover_letter'),
       count(*) FILTER (WHERE document_type = 'certificate'),
       count(*) FILTER (WHERE document_type = 'other'),
       COALESCE(sum(file_size), 0),
       count(*) FILTER (WHERE processing_status = 'processed'),
       count(*) FILTER (WHERE processing_status = 'pending'),
       count(*) FILTER (WHERE processing_status = 'failed')
FROM document_embeddings
WHERE is_active = TRUE
  AND ($1::bigint IS NULL OR user_id = $1)`

	var scoped sql.NullInt64
	if userID != nil {
		scoped = sql.NullInt64{Int64: *userID, Valid: true}
	}

	var st Stats
	err := s.DB.QueryRowContext(ctx, query, scoped).Scan(
		&st.TotalDocuments,
		&st.CVCount,
		&st.CoverLetterCount,
		&st.CertificateCount,
		&st.OtherCount,
		&st.TotalSizeBytes,
		&st.ProcessedCount,
		&st.PendingCount,
		&st.FailedCount,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("document statistics: %w", err)
	}
	return st, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullVector(v Vector) sql.NullString {
	if len(v) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

var _ Store = (*PGStore)(nil)
