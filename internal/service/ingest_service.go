package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opencouncil/councilsearch/internal/domain"
	"github.com/opencouncil/councilsearch/internal/repository"
)

var validDocTypes = map[string]bool{
	domain.DocTypeTranscript: true,
	domain.DocTypeMotion:     true,
	domain.DocTypeBylaw:      true,
	domain.DocTypeDocument:   true,
}

// IngestService loads corpus documents into the keyword index and reports
// corpus statistics.
type IngestService struct {
	index   *repository.IndexRepository
	results *repository.ResultRepository
	logger  *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(index *repository.IndexRepository, results *repository.ResultRepository, logger *zap.Logger) *IngestService {
	return &IngestService{index: index, results: results, logger: logger}
}

// UpsertDocuments validates and inserts or replaces corpus documents,
// returning how many were written.
func (s *IngestService) UpsertDocuments(ctx context.Context, docs []*domain.Document) (int, error) {
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: no documents provided", domain.ErrInvalidRequest)
	}
	for i, doc := range docs {
		if !validDocTypes[doc.Type] {
			return 0, fmt.Errorf("%w: document %d has unknown type %q", domain.ErrInvalidRequest, i, doc.Type)
		}
		if doc.Title == "" || doc.Body == "" {
			return 0, fmt.Errorf("%w: document %d is missing title or body", domain.ErrInvalidRequest, i)
		}
	}

	if err := s.index.Upsert(ctx, docs); err != nil {
		return 0, err
	}

	s.logger.Info("ingested documents", zap.Int("count", len(docs)))
	return len(docs), nil
}

// DeleteDocument removes a document from the index
func (s *IngestService) DeleteDocument(ctx context.Context, id string) error {
	return s.index.Delete(ctx, id)
}

// Stats returns corpus and cache statistics
func (s *IngestService) Stats(ctx context.Context) (*domain.Stats, error) {
	counts, err := s.index.CountByType(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	cached, err := s.results.Count()
	if err != nil {
		return nil, err
	}

	return &domain.Stats{
		Documents:      counts,
		TotalDocuments: total,
		CachedResults:  cached,
	}, nil
}
