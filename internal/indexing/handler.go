package indexing

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/extract"
	"careercoach-backend/internal/shared/server/middleware"
	"careercoach-backend/internal/shared/server/respond"
	"careercoach-backend/internal/shared/telemetry"
	"careercoach-backend/internal/vecstore"
)

type Handler struct {
	Service *Service
	Timeout time.Duration
}

func NewHandler(service *Service, timeout time.Duration) *Handler {
	return &Handler{Service: service, Timeout: timeout}
}

// Register mounts the indexing routes on the given group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.POST("/documents/:documentId/process", h.processDocument)
	r.POST("/documents/:documentId/reprocess", h.reprocessDocument)
	r.DELETE("/documents/:documentId", h.deleteDocument)
	r.GET("/documents/:documentId/status", h.documentStatus)
}

// processDocument indexes an uploaded file. Indexing failures come back as a
// structured ProcessResponse with Success=false so the upload flow that
// triggered processing is never aborted by a transient indexing problem.
func (h *Handler) processDocument(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("documentId")

	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body", err.Error())
		return
	}
	docType, ok := vecstore.ParseDocumentType(req.DocumentType)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "unknown document type: "+req.DocumentType, nil)
		return
	}

	ctx, cancel := h.boundedContext(c)
	defer cancel()

	result, err := h.Service.ProcessDocument(ctx, ProcessInput{
		UserID:           userID,
		DocumentID:       documentID,
		FilePath:         req.FilePath,
		Filename:         req.Filename,
		OriginalFilename: req.OriginalFilename,
		DocumentType:     docType,
		Description:      req.Description,
		FileSize:         req.FileSize,
		MimeType:         req.MimeType,
	})
	if err != nil {
		respond.OK(c, failureResponse(c, userID, documentID, err))
		return
	}
	respond.OK(c, ProcessResponse{Success: true, Result: &result})
}

func (h *Handler) reprocessDocument(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("documentId")

	var req ReprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body", err.Error())
		return
	}

	ctx, cancel := h.boundedContext(c)
	defer cancel()

	result, err := h.Service.ReprocessDocument(ctx, userID, documentID, req.FilePath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "document not found", nil)
			return
		}
		respond.OK(c, failureResponse(c, userID, documentID, err))
		return
	}
	respond.OK(c, ProcessResponse{Success: true, Result: &result})
}

func (h *Handler) deleteDocument(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("documentId")

	ctx, cancel := h.boundedContext(c)
	defer cancel()

	err := h.Service.DeleteDocumentEmbedding(ctx, userID, documentID)
	switch {
	case err == nil:
		respond.OK(c, DeleteResponse{Success: true, DocumentID: documentID})
	case errors.Is(err, ErrNotFound):
		// Deleting an absent document is not an error for the caller's
		// cleanup flow; report it and move on.
		respond.OK(c, DeleteResponse{Success: false, DocumentID: documentID, Message: "document not found"})
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeStorage, "failed to delete document embedding", nil)
	}
}

func (h *Handler) documentStatus(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("documentId")

	ctx, cancel := h.boundedContext(c)
	defer cancel()

	info, err := h.Service.GetEmbeddingStatus(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, ErrorCodeStorage, "failed to load document status", nil)
		return
	}
	respond.OK(c, info)
}

func (h *Handler) boundedContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

// failureResponse classifies a processing error into a stable error code.
func failureResponse(c *gin.Context, userID int64, documentID string, err error) ProcessResponse {
	code := ErrorCodeStorage
	switch {
	case errors.Is(err, ErrInsufficientContent):
		code = ErrorCodeInsufficientContent
	case errors.Is(err, ErrInvalidInput):
		code = ErrorCodeValidation
	case errors.Is(err, extract.ErrUnsupportedFormat):
		code = ErrorCodeUnsupportedFormat
	case errors.Is(err, extract.ErrNotFound):
		code = ErrorCodeExtraction
	case errors.Is(err, ErrEmbedding):
		code = ErrorCodeEmbedding
	}
	telemetry.Warn("indexing.process_failed", map[string]any{
		"user_id":     userID,
		"document_id": documentID,
		"code":        code,
		"error":       err.Error(),
		"request_id":  c.GetString("requestId"),
	})
	return ProcessResponse{Success: false, Code: code, Message: err.Error()}
}
