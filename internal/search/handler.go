package search

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/shared/server/middleware"
	"careercoach-backend/internal/shared/server/respond"
)

type Handler struct {
	Service *Service
	Timeout time.Duration
}

func NewHandler(service *Service, timeout time.Duration) *Handler {
	return &Handler{Service: service, Timeout: timeout}
}

// Register mounts the search routes on the given group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.POST("/search", h.search)
	r.GET("/documents/:documentId/similar", h.similarDocuments)
	r.GET("/statistics", h.userStatistics)
	r.GET("/statistics/all", h.globalStatistics)
	r.GET("/info", h.info)
}

func (h *Handler) search(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body", err.Error())
		return
	}

	opts := Options{Limit: req.Limit, Threshold: req.SimilarityThreshold}
	ctx, cancel := h.boundedContext(c)
	defer cancel()

	var (
		hits []Hit
		err  error
	)
	if req.DocumentType != "" {
		hits, err = h.Service.SearchByDocumentType(ctx, userID, req.Query, req.DocumentType, opts)
	} else {
		hits, err = h.Service.SemanticSearch(ctx, userID, req.Query, opts)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyQuery):
			respond.Error(c, http.StatusBadRequest, "empty_query", err.Error(), nil)
		case errors.Is(err, ErrInvalidDocumentType):
			respond.Error(c, http.StatusBadRequest, "invalid_document_type", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "search_failed", "search failed", nil)
		}
		return
	}

	effective := opts.normalized()
	respond.OK(c, SearchResponse{
		Success:      true,
		Query:        req.Query,
		TotalResults: len(hits),
		Results:      hits,
		SearchParams: SearchParams{
			UserID:              userID,
			DocumentType:        req.DocumentType,
			Limit:               effective.Limit,
			SimilarityThreshold: effective.Threshold,
		},
	})
}

func (h *Handler) similarDocuments(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("documentId")

	opts := Options{
		Limit:     queryInt(c, "limit", 0),
		Threshold: queryFloat(c, "threshold", 0),
	}
	ctx, cancel := h.boundedContext(c)
	defer cancel()

	hits, err := h.Service.GetSimilarDocuments(ctx, userID, documentID, opts)
	if err != nil {
		if errors.Is(err, ErrNotFoundOrDenied) {
			respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "search_failed", "similar documents search failed", nil)
		return
	}
	respond.OK(c, SimilarResponse{
		Success:           true,
		ReferenceDocument: documentID,
		TotalResults:      len(hits),
		Results:           hits,
	})
}

func (h *Handler) userStatistics(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	ctx, cancel := h.boundedContext(c)
	defer cancel()

	stats, err := h.Service.GetSearchStatistics(ctx, &userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "statistics_failed", "failed to load statistics", nil)
		return
	}
	respond.OK(c, stats)
}

func (h *Handler) globalStatistics(c *gin.Context) {
	ctx, cancel := h.boundedContext(c)
	defer cancel()

	stats, err := h.Service.GetSearchStatistics(ctx, nil)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "statistics_failed", "failed to load statistics", nil)
		return
	}
	respond.OK(c, stats)
}

func (h *Handler) info(c *gin.Context) {
	respond.OK(c, h.Service.Info())
}

func (h *Handler) boundedContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
