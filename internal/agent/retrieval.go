package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opencouncil/councilsearch/internal/domain"
	"github.com/opencouncil/councilsearch/internal/llm"
)

const (
	searchToolName = "search_documents"
	retrievalTopK  = 8
	chunkSize      = 160
)

// Searcher is the retrieval capability the default agent calls as a tool.
type Searcher interface {
	Search(ctx context.Context, text string, types []string, limit int) ([]domain.ResultItem, error)
}

// RetrievalAgent is a single-tool reasoning agent: it searches the corpus
// once, cites what it found, and generates an answer grounded in the
// retrieved excerpts. It exists so the server is useful standalone; any
// richer agent satisfying the Agent contract can replace it.
type RetrievalAgent struct {
	searcher Searcher
	gen      llm.TextGenerator
	logger   *zap.Logger
}

// NewRetrievalAgent creates a retrieval agent. gen may be nil, in which case
// answers degrade to a summary of retrieved records.
func NewRetrievalAgent(searcher Searcher, gen llm.TextGenerator, logger *zap.Logger) *RetrievalAgent {
	return &RetrievalAgent{searcher: searcher, gen: gen, logger: logger}
}

// Run implements Agent.
func (a *RetrievalAgent) Run(ctx context.Context, query, convContext, tenant string) (<-chan domain.Frame, error) {
	events := make(chan domain.Frame, 16)

	go func() {
		defer close(events)

		emit := func(f domain.Frame) bool {
			select {
			case events <- f:
				return true
			case <-ctx.Done():
				return false
			}
		}

		args, _ := json.Marshal(map[string]string{"query": query})
		if !emit(domain.Frame{Type: domain.EventToolCall, Name: searchToolName, Args: args}) {
			return
		}

		results, err := a.searcher.Search(ctx, query, nil, retrievalTopK)
		if err != nil {
			a.logger.Warn("corpus search failed", zap.Error(err))
			return // closing without done signals failure
		}

		observation, _ := json.Marshal(results)
		if !emit(domain.Frame{Type: domain.EventToolObservation, Name: searchToolName, Result: observation}) {
			return
		}

		if len(results) > 0 {
			if !emit(domain.Frame{Type: domain.EventSources, Sources: toSources(results)}) {
				return
			}
		}

		answer, err := a.answer(ctx, query, convContext, tenant, results)
		if err != nil {
			a.logger.Warn("answer generation failed", zap.Error(err))
			return
		}

		for _, chunk := range splitChunks(answer, chunkSize) {
			if !emit(domain.Frame{Type: domain.EventAnswerChunk, Chunk: chunk}) {
				return
			}
		}

		emit(domain.Frame{Type: domain.EventDone})
	}()

	return events, nil
}

func (a *RetrievalAgent) answer(ctx context.Context, query, convContext, tenant string, results []domain.ResultItem) (string, error) {
	if a.gen == nil {
		return summarize(query, results), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You answer questions about %s council records. ", tenant)
	b.WriteString("Answer the question using only the excerpts below. ")
	b.WriteString("If the excerpts do not contain the answer, say so.\n\n")
	if convContext != "" {
		fmt.Fprintf(&b, "Conversation so far:\n%s\n\n", convContext)
	}
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s (%s): %s\n", i+1, r.Title, r.Type, r.Snippet)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", query)

	return a.gen.GenerateText(ctx, b.String())
}

func summarize(query string, results []domain.ResultItem) string {
	if len(results) == 0 {
		return fmt.Sprintf("No council records matched %q.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d council records related to %q:\n", len(results), query)
	for _, r := range results {
		fmt.Fprintf(&b, "- %s (%s)", r.Title, r.Type)
		if r.MeetingDate != "" {
			fmt.Fprintf(&b, ", %s", r.MeetingDate)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func toSources(results []domain.ResultItem) []domain.Source {
	sources := make([]domain.Source, len(results))
	for i, r := range results {
		sources[i] = domain.Source{
			Type:        r.Type,
			ID:          r.ID,
			MeetingID:   r.MeetingID,
			MeetingDate: r.MeetingDate,
			SpeakerName: r.SpeakerName,
			Title:       r.Title,
		}
	}
	return sources
}

// splitChunks cuts s into word-aligned pieces of roughly size bytes.
func splitChunks(s string, size int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{s}
	}
	var chunks []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() > 0 && cur.Len()+len(w)+1 > size {
			chunks = append(chunks, cur.String()+" ")
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
