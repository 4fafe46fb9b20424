// Package admin exposes the API-key guarded corpus management endpoints.
package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencouncil/councilsearch/internal/domain"
	"github.com/opencouncil/councilsearch/internal/service"
)

// Handler handles admin API requests
type Handler struct {
	ingestService *service.IngestService
}

// NewHandler creates a new admin handler
func NewHandler(ingestService *service.IngestService) *Handler {
	return &Handler{ingestService: ingestService}
}

// RegisterRoutes registers admin routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/documents", h.UpsertDocuments)
	r.DELETE("/documents/:id", h.DeleteDocument)
	r.GET("/stats", h.GetStats)
}

// UpsertDocuments inserts or replaces corpus documents
func (h *Handler) UpsertDocuments(c *gin.Context) {
	var req domain.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := h.ingestService.UpsertDocuments(c.Request.Context(), req.Documents)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ingested": count})
}

// DeleteDocument removes a corpus document
func (h *Handler) DeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := h.ingestService.DeleteDocument(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// GetStats returns corpus and cache statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.ingestService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
