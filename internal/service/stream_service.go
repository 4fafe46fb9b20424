package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/opencouncil/councilsearch/internal/agent"
	"github.com/opencouncil/councilsearch/internal/domain"
)

// answerErrorSuffix is appended to whatever partial answer exists when the
// agent fails mid-stream.
const answerErrorSuffix = "\n\nSorry, something went wrong while answering your question. Please try again."

// ResultStore is the cache contract the orchestrator persists through. Save
// failures mean "no shareable id", never a failed request.
type ResultStore interface {
	Save(result *domain.CachedResult) (string, error)
	Load(id string) (*domain.CachedResult, error)
}

// StreamService drives one question-mode request end-to-end: it runs the
// agent, relays its events in order, and after the agent completes injects
// follow-up suggestions and a cache id before the terminal done frame.
type StreamService struct {
	agent     agent.Agent
	followups *FollowupService
	store     ResultStore
	tenant    string
	logger    *zap.Logger
}

// NewStreamService creates a new stream service
func NewStreamService(ag agent.Agent, followups *FollowupService, store ResultStore, tenant string, logger *zap.Logger) *StreamService {
	return &StreamService{
		agent:     ag,
		followups: followups,
		store:     store,
		tenant:    tenant,
		logger:    logger,
	}
}

// Stream opens the frame channel for one request. The channel always carries
// exactly one done frame as its last element and is then closed, on success
// and failure paths alike. Cancel ctx to abandon the stream.
func (s *StreamService) Stream(ctx context.Context, query, convContext string) <-chan domain.Frame {
	frames := make(chan domain.Frame, 64)
	go s.run(ctx, query, convContext, frames)
	return frames
}

func (s *StreamService) run(ctx context.Context, query, convContext string, frames chan<- domain.Frame) {
	defer close(frames)

	emit := func(f domain.Frame) bool {
		select {
		case frames <- f:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var answer strings.Builder
	var sources []domain.Source
	completed := s.relay(ctx, query, convContext, emit, &answer, &sources)

	if ctx.Err() != nil {
		// Consumer is gone; nobody is reading frames anymore.
		return
	}

	if !completed {
		// Convert the failure into a visible in-band error chunk and finish
		// the stream normally at the transport level.
		if !emit(domain.Frame{Type: domain.EventAnswerChunk, Chunk: answerErrorSuffix}) {
			return
		}
		emit(domain.Frame{Type: domain.EventDone})
		return
	}

	// Follow-up generation and cache persistence are isolated, independently
	// fallible steps; neither may delay or suppress the terminal done.
	suggestions := s.generateFollowups(ctx, query, answer.String())
	if len(suggestions) > 0 {
		if !emit(domain.Frame{Type: domain.EventFollowups, Suggestions: suggestions}) {
			return
		}
	}

	if id := s.persist(query, answer.String(), sources, suggestions); id != "" {
		if !emit(domain.Frame{Type: domain.EventCacheID, CacheID: id}) {
			return
		}
	}

	emit(domain.Frame{Type: domain.EventDone})
}

// relay drives the agent and forwards every event except done, accumulating
// the answer text and the latest sources list. It reports whether the agent
// signaled its own completion.
func (s *StreamService) relay(ctx context.Context, query, convContext string, emit func(domain.Frame) bool, answer *strings.Builder, sources *[]domain.Source) (completed bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("agent panicked", zap.Any("panic", r), zap.String("query", query))
			completed = false
		}
	}()

	events, err := s.agent.Run(ctx, query, convContext, s.tenant)
	if err != nil {
		s.logger.Error("agent start failed", zap.Error(err), zap.String("query", query))
		return false
	}

	for ev := range events {
		switch ev.Type {
		case domain.EventDone:
			return true
		case domain.EventAnswerChunk:
			answer.WriteString(ev.Chunk)
		case domain.EventSources:
			*sources = ev.Sources
		}
		if !emit(ev) {
			return false
		}
	}

	// The agent's channel closed without done: treat as failure.
	s.logger.Warn("agent stream ended without done", zap.String("query", query))
	return false
}

func (s *StreamService) generateFollowups(ctx context.Context, query, answer string) (suggestions []string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("follow-up generation panicked", zap.Any("panic", r))
			suggestions = nil
		}
	}()
	if s.followups == nil {
		return nil
	}
	return s.followups.Generate(ctx, query, answer)
}

func (s *StreamService) persist(query, answer string, sources []domain.Source, suggestions []string) (id string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cache persistence panicked", zap.Any("panic", r))
			id = ""
		}
	}()
	if s.store == nil {
		return ""
	}

	saved, err := s.store.Save(&domain.CachedResult{
		Query:              query,
		Answer:             answer,
		Sources:            sources,
		SuggestedFollowups: suggestions,
		SourceCount:        len(sources),
	})
	if err != nil {
		s.logger.Warn("cache save failed", zap.Error(err), zap.String("query", query))
		return ""
	}
	return saved
}
