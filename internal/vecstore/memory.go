package vecstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"careercoach-backend/internal/embedding"
)

// MemoryStore is an in-memory Store using brute-force cosine similarity.
// It backs development environments without a database and the test suite;
// its filter and threshold semantics mirror PGStore exactly.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[memoryKey]Record
	seq  int64
}

type memoryKey struct {
	userID     int64
	documentID string
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[memoryKey]Record)}
}

// Upsert inserts or replaces the row keyed by (UserID, DocumentID).
func (s *MemoryStore) Upsert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{userID: rec.UserID, documentID: rec.DocumentID}
	now := time.Now().UTC()
	if existing, ok := s.rows[key]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		s.seq++
		rec.ID = s.seq
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.rows[key] = rec
	return nil
}

// SoftDelete marks the row inactive, reporting whether an active row existed.
func (s *MemoryStore) SoftDelete(ctx context.Context, userID int64, documentID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{userID: userID, documentID: documentID}
	rec, ok := s.rows[key]
	if !ok || !rec.IsActive {
		return false, nil
	}
	rec.IsActive = false
	rec.UpdatedAt = time.Now().UTC()
	s.rows[key] = rec
	return true, nil
}

// Get fetches the row including its embedding, active or not.
func (s *MemoryStore) Get(ctx context.Context, userID int64, documentID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rows[memoryKey{userID: userID, documentID: documentID}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Search runs a brute-force cosine similarity query over active rows.
func (s *MemoryStore) Search(ctx context.Context, q SearchQuery) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Match
	for _, rec := range s.rows {
		if !rec.IsActive || len(rec.ContentEmbedding) == 0 {
			continue
		}
		if q.UserID != nil && rec.UserID != *q.UserID {
			continue
		}
		if q.DocumentType != nil && rec.DocumentType != *q.DocumentType {
			continue
		}
		similarity := embedding.CosineSimilarity(q.Vector, rec.ContentEmbedding)
		if similarity < q.Threshold {
			continue
		}
		out = append(out, Match{
			DocumentID:       rec.DocumentID,
			UserID:           rec.UserID,
			Filename:         rec.Filename,
			OriginalFilename: rec.OriginalFilename,
			DocumentType:     rec.DocumentType,
			Similarity:       similarity,
			ContentText:      rec.ContentText,
			FileSize:         rec.FileSize,
			MimeType:         rec.MimeType,
			Description:      rec.Description,
			CreatedAt:        rec.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats aggregates active rows, scoped to one user when userID is set.
func (s *MemoryStore) Stats(ctx context.Context, userID *int64) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	for _, rec := range s.rows {
		if !rec.IsActive {
			continue
		}
		if userID != nil && rec.UserID != *userID {
			continue
		}
		st.TotalDocuments++
		st.TotalSizeBytes += rec.FileSize
		switch rec.DocumentType {
		case TypeCV:
			st.CVCount++
		case TypeCoverLetter:
			st.CoverLetterCount++
		case TypeCertificate:
			st.CertificateCount++
		default:
			st.OtherCount++
		}
		switch rec.ProcessingStatus {
		case StatusProcessed:
			st.ProcessedCount++
		case StatusPending:
			st.PendingCount++
		case StatusFailed:
			st.FailedCount++
		}
	}
	return st, nil
}

var _ Store = (*MemoryStore)(nil)
