package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/opencouncil/councilsearch/internal/domain"
)

// ClassifierFunc maps free text to an intent. It must be pure and
// deterministic; the service only owns precedence around it.
type ClassifierFunc func(text string) domain.Intent

// KeywordEngine answers keyword queries against the corpus.
type KeywordEngine interface {
	Search(ctx context.Context, text string, types []string, limit int) ([]domain.ResultItem, error)
}

// SearchService routes queries between the keyword and question paths.
type SearchService struct {
	classify   ClassifierFunc
	engine     KeywordEngine
	maxResults int
	logger     *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(classify ClassifierFunc, engine KeywordEngine, maxResults int, logger *zap.Logger) *SearchService {
	if classify == nil {
		classify = DefaultClassifier
	}
	return &SearchService{
		classify:   classify,
		engine:     engine,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Resolve returns the intent for a query. An explicit mode always wins over
// classification.
func (s *SearchService) Resolve(q *domain.Query) domain.Intent {
	switch q.Mode {
	case "keyword":
		return domain.IntentKeyword
	case "ai", "question":
		return domain.IntentQuestion
	}
	return s.classify(q.Text)
}

// Keyword runs the synchronous keyword path.
func (s *SearchService) Keyword(ctx context.Context, q *domain.Query) ([]domain.ResultItem, error) {
	results, err := s.engine.Search(ctx, q.Text, q.Types, s.maxResults)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.ResultItem{}
	}
	return results, nil
}

var interrogatives = map[string]bool{
	"what": true, "who": true, "whom": true, "when": true, "where": true,
	"why": true, "how": true, "which": true, "did": true, "do": true,
	"does": true, "is": true, "are": true, "was": true, "were": true,
	"can": true, "could": true, "should": true, "will": true, "has": true,
	"have": true,
}

// DefaultClassifier is a deterministic lexical fallback: a trailing question
// mark or an interrogative lead word reads as a question, anything else as a
// keyword lookup. Deployments with a trained classifier inject their own
// ClassifierFunc.
func DefaultClassifier(text string) domain.Intent {
	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "?") {
		return domain.IntentQuestion
	}
	fields := strings.Fields(strings.ToLower(trimmed))
	if len(fields) > 2 && interrogatives[fields[0]] {
		return domain.IntentQuestion
	}
	return domain.IntentKeyword
}
