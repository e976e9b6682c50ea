package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"careercoach-backend/internal/embedding"
	"careercoach-backend/internal/ranking"
	"careercoach-backend/internal/vecstore"
)

func newTestService(store vecstore.Store) *Service {
	gen := embedding.NewGenerator(embedding.NewHashProvider(embedding.DefaultDimension))
	return NewService(store, gen, ranking.NewService(ranking.DefaultWeights()))
}

func indexDoc(t *testing.T, store vecstore.Store, gen *embedding.Generator, userID int64, docID, text string, docType vecstore.DocumentType) {
	t.Helper()
	vec, err := gen.Generate(context.Background(), text)
	if err != nil {
		t.Fatalf("embed fixture %s: %v", docID, err)
	}
	err = store.Upsert(context.Background(), vecstore.Record{
		UserID:           userID,
		DocumentID:       docID,
		Filename:         docID + ".txt",
		OriginalFilename: docID + ".txt",
		DocumentType:     docType,
		ContentText:      text,
		ContentEmbedding: vec,
		FileSize:         int64(len(text)),
		IsActive:         true,
		ProcessingStatus: vecstore.StatusProcessed,
	})
	if err != nil {
		t.Fatalf("upsert fixture %s: %v", docID, err)
	}
}

func testGenerator() *embedding.Generator {
	return embedding.NewGenerator(embedding.NewHashProvider(embedding.DefaultDimension))
}

func TestSemanticSearchFindsRelevantDocument(t *testing.T) {
	store := vecstore.NewMemoryStore()
	gen := testGenerator()
	svc := newTestService(store)

	indexDoc(t, store, gen, 1, "go-dev",
		"Senior Go developer with experience building backend services and PostgreSQL databases", vecstore.TypeCV)
	indexDoc(t, store, gen, 1, "chef",
		"Professional chef specializing in French pastry and dessert menus", vecstore.TypeCV)

	hits, err := svc.SemanticSearch(context.Background(), 1,
		"Go developer backend services PostgreSQL", Options{Threshold: 0.1})
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].DocumentID != "go-dev" {
		t.Errorf("top hit = %s, want go-dev", hits[0].DocumentID)
	}
	top := hits[0]
	if top.SimilarityScore <= 0 {
		t.Errorf("similarity score = %v, want > 0", top.SimilarityScore)
	}
	if top.SimilarityPercentage <= 0 || top.SimilarityPercentage > 100 {
		t.Errorf("similarity percentage = %v, want in (0, 100]", top.SimilarityPercentage)
	}
	if top.DownloadURL != "/api/documents/go-dev/download" {
		t.Errorf("download url = %q", top.DownloadURL)
	}
	if top.ViewURL != "/api/documents/go-dev/view" {
		t.Errorf("view url = %q", top.ViewURL)
	}
	if top.FinalScore <= 0 {
		t.Errorf("final score = %v, want > 0", top.FinalScore)
	}
}

func TestSemanticSearchIsolatesUsers(t *testing.T) {
	store := vecstore.NewMemoryStore()
	gen := testGenerator()
	svc := newTestService(store)

	indexDoc(t, store, gen, 1, "mine",
		"Backend engineer resume with Go and Kubernetes experience", vecstore.TypeCV)
	indexDoc(t, store, gen, 2, "theirs",
		"Backend engineer resume with Go and Kubernetes experience", vecstore.TypeCV)

	hits, err := svc.SemanticSearch(context.Background(), 1,
		"backend engineer Go Kubernetes", Options{Threshold: 0.0001})
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}
	for _, h := range hits {
		if h.UserID != 1 {
			t.Errorf("hit %s belongs to user %d, search must stay inside user 1", h.DocumentID, h.UserID)
		}
	}
}

func TestSemanticSearchEmptyQuery(t *testing.T) {
	svc := newTestService(vecstore.NewMemoryStore())
	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := svc.SemanticSearch(context.Background(), 1, q, Options{}); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("query %q: err = %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestSemanticSearchExcludesInactive(t *testing.T) {
	store := vecstore.NewMemoryStore()
	gen := testGenerator()
	svc := newTestService(store)

	indexDoc(t, store, gen, 1, "deleted",
		"Project manager resume with agile and scrum background", vecstore.TypeCV)
	if _, err := store.SoftDelete(context.Background(), 1, "deleted"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	hits, err := svc.SemanticSearch(context.Background(), 1,
		"project manager agile scrum", Options{Threshold: 0.0001})
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}
	for _, h := range hits {
		if h.DocumentID == "deleted" {
			t.Error("soft-deleted document must not appear in results")
		}
	}
}

func TestSearchByDocumentTypeValidatesBeforeEmbedding(t *testing.T) {
	store := vecstore.NewMemoryStore()
	svc := NewService(store, explodingEmbedder{}, ranking.NewService(ranking.DefaultWeights()))

	_, err := svc.SearchByDocumentType(context.Background(), 1, "some query", "diploma", Options{})
	if !errors.Is(err, ErrInvalidDocumentType) {
		t.Fatalf("err = %v, want ErrInvalidDocumentType before the embedder runs", err)
	}
}

func TestSearchByDocumentTypeFilters(t *testing.T) {
	store := vecstore.NewMemoryStore()
	gen := testGenerator()
	svc := newTestService(store)

	indexDoc(t, store, gen, 1, "cv-doc",
		"Software engineer resume covering Go microservices and cloud infrastructure", vecstore.TypeCV)
	indexDoc(t, store, gen, 1, "cert-doc",
		"Software engineering certificate for completing a Go microservices course", vecstore.TypeCertificate)

	hits, err := svc.SearchByDocumentType(context.Background(), 1,
		"software engineer Go microservices", "certificate", Options{Threshold: 0.0001})
	if err != nil {
		t.Fatalf("SearchByDocumentType: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected the certificate to match")
	}
	for _, h := range hits {
		if h.DocumentType != vecstore.TypeCertificate {
			t.Errorf("hit %s has type %s, want certificate only", h.DocumentID, h.DocumentType)
		}
	}
}

func TestGetSimilarDocumentsExcludesSelf(t *testing.T) {
	store := vecstore.NewMemoryStore()
	gen := testGenerator()
	svc := newTestService(store)

	base := "Data engineer resume with Python Spark and airflow pipelines "
	indexDoc(t, store, gen, 1, "ref", base+"reference version", vecstore.TypeCV)
	indexDoc(t, store, gen, 1, "second", base+"second version", vecstore.TypeCV)
	indexDoc(t, store, gen, 1, "third", base+"third version", vecstore.TypeCV)

	hits, err := svc.GetSimilarDocuments(context.Background(), 1, "ref", Options{Threshold: 0.0001})
	if err != nil {
		t.Fatalf("GetSimilarDocuments: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected similar documents")
	}
	for _, h := range hits {
		if h.DocumentID == "ref" {
			t.Error("reference document must be excluded from its own recommendations")
		}
		if h.UserID != 1 {
			t.Errorf("hit %s crossed the user boundary", h.DocumentID)
		}
	}
}

func TestGetSimilarDocumentsNotFoundOrDenied(t *testing.T) {
	store := vecstore.NewMemoryStore()
	gen := testGenerator()
	svc := newTestService(store)

	indexDoc(t, store, gen, 2, "owned-by-other",
		"Marketing specialist resume with SEO and content strategy skills", vecstore.TypeCV)

	// Missing document and another user's document fail identically.
	if _, err := svc.GetSimilarDocuments(context.Background(), 1, "missing", Options{}); !errors.Is(err, ErrNotFoundOrDenied) {
		t.Errorf("missing doc err = %v, want ErrNotFoundOrDenied", err)
	}
	if _, err := svc.GetSimilarDocuments(context.Background(), 1, "owned-by-other", Options{}); !errors.Is(err, ErrNotFoundOrDenied) {
		t.Errorf("foreign doc err = %v, want ErrNotFoundOrDenied", err)
	}

	// A soft-deleted document is treated the same way.
	if _, err := store.SoftDelete(context.Background(), 2, "owned-by-other"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := svc.GetSimilarDocuments(context.Background(), 2, "owned-by-other", Options{}); !errors.Is(err, ErrNotFoundOrDenied) {
		t.Errorf("deleted doc err = %v, want ErrNotFoundOrDenied", err)
	}
}

func TestThresholdIsInclusiveAndMonotonic(t *testing.T) {
	store := vecstore.NewMemoryStore()
	gen := testGenerator()
	svc := newTestService(store)

	indexDoc(t, store, gen, 1, "exact",
		"Cloud architect resume with AWS Terraform and Kubernetes expertise", vecstore.TypeCV)

	query := "Cloud architect resume with AWS Terraform and Kubernetes expertise"
	hits, err := svc.SemanticSearch(context.Background(), 1, query, Options{Threshold: 0.05})
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected the identical document to match, got %d hits", len(hits))
	}

	// Recompute the exact similarity so the inclusive comparison is not
	// skewed by response rounding.
	qv, err := gen.Generate(context.Background(), query)
	if err != nil {
		t.Fatalf("embed query: %v", err)
	}
	rec, err := store.Get(context.Background(), 1, "exact")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	sim := embedding.CosineSimilarity(rec.ContentEmbedding, qv)

	// Raising the threshold to exactly the observed similarity keeps the
	// hit; the floor is inclusive.
	atHits, err := svc.SemanticSearch(context.Background(), 1, query, Options{Threshold: sim})
	if err != nil {
		t.Fatalf("SemanticSearch at threshold: %v", err)
	}
	if len(atHits) != 1 {
		t.Errorf("inclusive threshold dropped the hit at similarity %v", sim)
	}

	aboveHits, err := svc.SemanticSearch(context.Background(), 1, query, Options{Threshold: sim + 0.01})
	if err != nil {
		t.Fatalf("SemanticSearch above threshold: %v", err)
	}
	if len(aboveHits) != 0 {
		t.Errorf("threshold above similarity %v still returned %d hits", sim, len(aboveHits))
	}
}

func TestContentPreviewTruncation(t *testing.T) {
	store := vecstore.NewMemoryStore()
	gen := testGenerator()
	svc := newTestService(store)

	long := strings.Repeat("backend developer resume content ", 20)
	indexDoc(t, store, gen, 1, "long", long, vecstore.TypeCV)

	hits, err := svc.SemanticSearch(context.Background(), 1, "backend developer resume", Options{Threshold: 0.0001})
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected a hit")
	}
	preview := hits[0].ContentPreview
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("long preview should end with ellipsis: %q", preview)
	}
	if len([]rune(preview)) > previewLength+3 {
		t.Errorf("preview length = %d runes, want <= %d", len([]rune(preview)), previewLength+3)
	}
}

func TestGetSearchStatistics(t *testing.T) {
	store := vecstore.NewMemoryStore()
	gen := testGenerator()
	svc := newTestService(store)

	indexDoc(t, store, gen, 1, "cv1", "Backend engineer resume with Go experience and more text", vecstore.TypeCV)
	indexDoc(t, store, gen, 1, "cert1", "Certificate of completion for cloud engineering course work", vecstore.TypeCertificate)
	indexDoc(t, store, gen, 2, "cv2", "Frontend engineer resume with React experience and more text", vecstore.TypeCV)

	mine, err := svc.GetSearchStatistics(context.Background(), ptr(int64(1)))
	if err != nil {
		t.Fatalf("GetSearchStatistics(user): %v", err)
	}
	if mine.TotalDocuments != 2 || mine.CVCount != 1 || mine.CertificateCount != 1 {
		t.Errorf("user stats = %+v, want 2 docs (1 cv, 1 certificate)", mine)
	}

	all, err := svc.GetSearchStatistics(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetSearchStatistics(all): %v", err)
	}
	if all.TotalDocuments != 3 || all.CVCount != 2 {
		t.Errorf("global stats = %+v, want 3 docs (2 cv)", all)
	}
}

func TestServiceInfo(t *testing.T) {
	svc := newTestService(vecstore.NewMemoryStore())
	info := svc.Info()
	if info.EmbeddingDimension != embedding.DefaultDimension {
		t.Errorf("dimension = %d, want %d", info.EmbeddingDimension, embedding.DefaultDimension)
	}
	if info.EmbeddingProvider == "" {
		t.Error("provider name should be set")
	}
	if info.RankingWeights != ranking.DefaultWeights() {
		t.Errorf("ranking weights = %+v, want defaults", info.RankingWeights)
	}
	if len(info.SupportedTypes) != len(vecstore.DocumentTypes()) {
		t.Errorf("supported types = %v, want all document types", info.SupportedTypes)
	}
}

func ptr[T any](v T) *T { return &v }

type explodingEmbedder struct{}

func (explodingEmbedder) Generate(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedder must not be called")
}

func (explodingEmbedder) Dimension() int       { return embedding.DefaultDimension }
func (explodingEmbedder) ProviderName() string { return "exploding" }
