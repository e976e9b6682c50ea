package indexing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/shared/server/middleware"
	"careercoach-backend/internal/vecstore"
)

func newTestRouter(store vecstore.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/v1/rag")
	group.Use(middleware.Identity())
	NewHandler(newTestService(store), 0).Register(group)
	return r
}

func doRequest(r *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProcessEndpoint(t *testing.T) {
	store := vecstore.NewMemoryStore()
	r := newTestRouter(store)
	path := writeTempText(t, "resume.txt", sampleResume)

	body, _ := json.Marshal(ProcessRequest{
		FilePath:     path,
		Filename:     "resume.txt",
		DocumentType: "cv",
		MimeType:     "text/plain",
	})
	w := doRequest(r, http.MethodPost, "/api/v1/rag/documents/doc-1/process", "1", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp ProcessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success = false: %+v", resp)
	}
	if resp.Result == nil || resp.Result.DocumentID != "doc-1" {
		t.Errorf("result = %+v, want document doc-1", resp.Result)
	}
}

func TestProcessEndpointReportsFailureWithoutAborting(t *testing.T) {
	store := vecstore.NewMemoryStore()
	r := newTestRouter(store)
	path := writeTempText(t, "stub.txt", "too short")

	body, _ := json.Marshal(ProcessRequest{FilePath: path, DocumentType: "cv"})
	w := doRequest(r, http.MethodPost, "/api/v1/rag/documents/doc-short/process", "1", string(body))
	// Indexing problems come back as structured results, not HTTP errors,
	// so the upload flow that triggered processing keeps going.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with a failure payload", w.Code)
	}

	var resp ProcessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("success should be false for insufficient content")
	}
	if resp.Code != ErrorCodeInsufficientContent {
		t.Errorf("code = %q, want %q", resp.Code, ErrorCodeInsufficientContent)
	}
}

func TestProcessEndpointRejectsBadRequests(t *testing.T) {
	r := newTestRouter(vecstore.NewMemoryStore())

	w := doRequest(r, http.MethodPost, "/api/v1/rag/documents/doc-1/process", "1", `{"documentType":"cv"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing filePath: status = %d, want 400", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/api/v1/rag/documents/doc-1/process", "1", `{"filePath":"x.txt","documentType":"diploma"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad type: status = %d, want 400", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/api/v1/rag/documents/doc-1/process", "", `{"filePath":"x.txt","documentType":"cv"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no identity: status = %d, want 401", w.Code)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	store := vecstore.NewMemoryStore()
	svc := newTestService(store)
	r := newTestRouter(store)
	path := writeTempText(t, "resume.txt", sampleResume)

	if _, err := svc.ProcessDocument(context.Background(), ProcessInput{
		UserID: 1, DocumentID: "doc-del", FilePath: path, DocumentType: vecstore.TypeCV,
	}); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	w := doRequest(r, http.MethodDelete, "/api/v1/rag/documents/doc-del", "1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp DeleteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("first delete should succeed")
	}

	w = doRequest(r, http.MethodDelete, "/api/v1/rag/documents/doc-del", "1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("repeat delete status = %d, want 200", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("repeat delete should report success=false")
	}
}

func TestStatusEndpoint(t *testing.T) {
	store := vecstore.NewMemoryStore()
	svc := newTestService(store)
	r := newTestRouter(store)
	path := writeTempText(t, "resume.txt", sampleResume)

	if _, err := svc.ProcessDocument(context.Background(), ProcessInput{
		UserID: 1, DocumentID: "doc-status", FilePath: path, DocumentType: vecstore.TypeCV,
	}); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	w := doRequest(r, http.MethodGet, "/api/v1/rag/documents/doc-status/status", "1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var info StatusInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.ProcessingStatus != vecstore.StatusProcessed {
		t.Errorf("status = %q, want processed", info.ProcessingStatus)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/rag/documents/missing/status", "1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing doc status = %d, want 404", w.Code)
	}
}
