// Package search exposes the public search endpoint: cached-result lookup,
// synchronous keyword results, and the SSE answer stream.
package search

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opencouncil/councilsearch/internal/domain"
	"github.com/opencouncil/councilsearch/internal/ratelimit"
	"github.com/opencouncil/councilsearch/internal/service"
)

// Handler handles search API requests
type Handler struct {
	search  *service.SearchService
	stream  *service.StreamService
	results service.ResultStore
	limiter ratelimit.Limiter
	baseURL string
	logger  *zap.Logger
}

// NewHandler creates a new search handler
func NewHandler(search *service.SearchService, stream *service.StreamService, results service.ResultStore, limiter ratelimit.Limiter, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		search:  search,
		stream:  stream,
		results: results,
		limiter: limiter,
		baseURL: baseURL,
		logger:  logger,
	}
}

// RegisterRoutes registers search routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/search", h.Search)
}

// Search dispatches one request: cached lookup by id, usage help, keyword
// results, or the streaming question path.
func (h *Handler) Search(c *gin.Context) {
	if id := c.Query("id"); id != "" {
		h.lookup(c, id)
		return
	}

	text := strings.TrimSpace(c.Query("q"))
	if text == "" {
		h.usage(c)
		return
	}

	query := &domain.Query{
		Text:    text,
		Mode:    c.Query("mode"),
		Context: c.Query("context"),
		Types:   c.QueryArray("type"),
	}

	if h.search.Resolve(query) == domain.IntentKeyword {
		results, err := h.search.Keyword(c.Request.Context(), query)
		if err != nil {
			h.logger.Error("keyword search failed", zap.Error(err), zap.String("query", text))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"results": results,
			"query":   text,
			"intent":  domain.IntentKeyword,
		})
		return
	}

	// Admission control applies to AI-mode only, before the stream opens.
	if !h.limiter.Allow(clientKey(c)) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	h.streamAnswer(c, query)
}

func (h *Handler) lookup(c *gin.Context, id string) {
	result, err := h.results.Load(id)
	if err != nil {
		h.logger.Error("cached result load failed", zap.Error(err), zap.String("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":              result.Answer,
		"sources":             result.Sources,
		"suggested_followups": result.SuggestedFollowups,
		"query":               result.Query,
		"cached":              true,
	})
}

// usage describes the accepted parameters; a bare request is not an error.
func (h *Handler) usage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"usage": "ask a question or search council records",
		"parameters": gin.H{
			"q":       "query text (required unless id is given)",
			"mode":    "keyword | ai | question (optional, overrides classification)",
			"context": "prior-turn conversation context (optional, ai mode)",
			"type":    "repeatable content-type filter: transcript | motion | bylaw | document (keyword mode)",
			"id":      "cached result id for a shareable answer",
		},
		"share_url": h.baseURL + "/api/search?id=<cache_id>",
	})
}

func (h *Handler) streamAnswer(c *gin.Context, query *domain.Query) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	frames := h.stream.Stream(c.Request.Context(), query.Text, query.Context)

	c.Stream(func(w io.Writer) bool {
		frame, ok := <-frames
		if !ok {
			return false
		}
		data, err := json.Marshal(frame)
		if err != nil {
			h.logger.Error("frame marshal failed", zap.Error(err))
			return true
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.Type, data)
		return true
	})
}

// clientKey identifies the requester for rate limiting: forwarded-for first
// hop, then real-ip, then a shared "unknown" bucket. Clients without
// identifying headers sharing one budget is a deliberate coarse fallback.
func clientKey(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return "unknown"
}
