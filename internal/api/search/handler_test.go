package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencouncil/councilsearch/internal/domain"
	"github.com/opencouncil/councilsearch/internal/ratelimit"
	"github.com/opencouncil/councilsearch/internal/service"
)

type fakeEngine struct {
	results []domain.ResultItem
}

func (f *fakeEngine) Search(ctx context.Context, text string, types []string, limit int) ([]domain.ResultItem, error) {
	return f.results, nil
}

type fakeStore struct {
	results map[string]*domain.CachedResult
}

func (f *fakeStore) Save(result *domain.CachedResult) (string, error) { return "saved-id", nil }

func (f *fakeStore) Load(id string) (*domain.CachedResult, error) {
	return f.results[id], nil
}

type fakeAgent struct {
	events []domain.Frame
	runs   int
}

func (f *fakeAgent) Run(ctx context.Context, query, convContext, tenant string) (<-chan domain.Frame, error) {
	f.runs++
	ch := make(chan domain.Frame, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestRouter(t *testing.T, ag *fakeAgent, store *fakeStore, limiter ratelimit.Limiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	engine := &fakeEngine{results: []domain.ResultItem{
		{ID: "d-1", Type: domain.DocTypeMotion, Title: "Housing strategy motion"},
	}}
	searchService := service.NewSearchService(nil, engine, 20, logger)
	streamService := service.NewStreamService(ag, nil, store, "the city", logger)

	r := gin.New()
	h := NewHandler(searchService, streamService, store, limiter, "http://localhost:8080", logger)
	h.RegisterRoutes(r.Group("/api"))
	return r
}

// closeNotifyRecorder adds the http.CloseNotifier method gin's Stream
// requires, which httptest.ResponseRecorder does not implement.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool { return c.closed }

func get(r *gin.Engine, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}
	r.ServeHTTP(w, req)
	return w.ResponseRecorder
}

func TestSearchMissingQueryReturnsUsage(t *testing.T) {
	r := newTestRouter(t, &fakeAgent{}, &fakeStore{}, ratelimit.NewSlidingWindow(time.Minute, 10))

	w := get(r, "/api/search", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "usage")
	assert.Contains(t, body, "parameters")
	assert.Equal(t, "http://localhost:8080/api/search?id=<cache_id>", body["share_url"])
}

func TestSearchKeywordReturnsResults(t *testing.T) {
	ag := &fakeAgent{}
	r := newTestRouter(t, ag, &fakeStore{}, ratelimit.NewSlidingWindow(time.Minute, 10))

	w := get(r, "/api/search?q=housing+strategy&mode=keyword", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var body struct {
		Results []domain.ResultItem `json:"results"`
		Query   string              `json:"query"`
		Intent  string              `json:"intent"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "keyword", body.Intent)
	assert.Equal(t, "housing strategy", body.Query)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Housing strategy motion", body.Results[0].Title)
	assert.Zero(t, ag.runs, "keyword queries never reach the agent")
}

func TestSearchLookupHitAndMiss(t *testing.T) {
	store := &fakeStore{results: map[string]*domain.CachedResult{
		"abc-123": {
			ID:     "abc-123",
			Query:  "What about housing?",
			Answer: "Council approved it.",
		},
	}}
	r := newTestRouter(t, &fakeAgent{}, store, ratelimit.NewSlidingWindow(time.Minute, 10))

	w := get(r, "/api/search?id=abc-123", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Council approved it.", body["answer"])
	assert.Equal(t, true, body["cached"])

	w = get(r, "/api/search?id=nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchRateLimitsAIMode(t *testing.T) {
	ag := &fakeAgent{events: []domain.Frame{
		{Type: domain.EventAnswerChunk, Chunk: "ok"},
		{Type: domain.EventDone},
	}}
	r := newTestRouter(t, ag, &fakeStore{}, ratelimit.NewSlidingWindow(time.Minute, 2))

	headers := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	for i := 0; i < 2; i++ {
		w := get(r, "/api/search?q=what+did+council+decide%3F", headers)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := get(r, "/api/search?q=what+did+council+decide%3F", headers)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
	assert.Equal(t, 2, ag.runs, "the rejected request never reaches the agent")

	// A different client key keeps its own budget.
	w = get(r, "/api/search?q=what+did+council+decide%3F", map[string]string{"X-Real-IP": "198.51.100.9"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchStreamsAnswer(t *testing.T) {
	ag := &fakeAgent{events: []domain.Frame{
		{Type: domain.EventToolCall, Name: "search_documents", Args: json.RawMessage(`{"query":"housing"}`)},
		{Type: domain.EventToolObservation, Name: "search_documents", Result: json.RawMessage(`{"count":1}`)},
		{Type: domain.EventSources, Sources: []domain.Source{{Type: "motion", ID: "m-1", Title: "Housing"}}},
		{Type: domain.EventAnswerChunk, Chunk: "Council approved "},
		{Type: domain.EventAnswerChunk, Chunk: "the strategy."},
		{Type: domain.EventDone},
	}}
	r := newTestRouter(t, ag, &fakeStore{}, ratelimit.NewSlidingWindow(time.Minute, 10))

	w := get(r, "/api/search?q=what+happened+with+housing%3F", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	frames := parseSSE(t, w.Body.String())
	require.NotEmpty(t, frames)
	assert.Equal(t, domain.EventDone, frames[len(frames)-1].Type, "done is the final frame")

	var answer string
	var cacheID string
	doneCount := 0
	for _, f := range frames {
		switch f.Type {
		case domain.EventAnswerChunk:
			answer += f.Chunk
		case domain.EventCacheID:
			cacheID = f.CacheID
		case domain.EventDone:
			doneCount++
		}
	}
	assert.Equal(t, "Council approved the strategy.", answer)
	assert.Equal(t, "saved-id", cacheID)
	assert.Equal(t, 1, doneCount)
}

func TestSearchExplicitAIModeBypassesClassifier(t *testing.T) {
	ag := &fakeAgent{events: []domain.Frame{
		{Type: domain.EventAnswerChunk, Chunk: "answer"},
		{Type: domain.EventDone},
	}}
	r := newTestRouter(t, ag, &fakeStore{}, ratelimit.NewSlidingWindow(time.Minute, 10))

	// "housing strategy" classifies as keyword, but mode=ai forces the stream.
	w := get(r, "/api/search?q=housing+strategy&mode=ai", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, 1, ag.runs)
}

// parseSSE decodes every data line of an event-stream body.
func parseSSE(t *testing.T, body string) []domain.Frame {
	t.Helper()
	var frames []domain.Frame
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var f domain.Frame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &f))
		frames = append(frames, f)
	}
	return frames
}
