package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opencouncil/councilsearch/internal/llm"
)

const (
	// Answers at or below this length skip generation entirely rather than
	// producing empty-result noise.
	followupMinAnswerLen = 50
	// Only the head of the answer goes into the prompt.
	followupAnswerExcerpt = 500
	followupMax           = 3
)

// FollowupService produces 0–3 suggested next questions after a completed
// answer. Strictly best effort: every failure mode degrades to an empty list
// and never surfaces to the request.
type FollowupService struct {
	gen    llm.TextGenerator
	logger *zap.Logger
}

// NewFollowupService creates a new follow-up service. gen may be nil when no
// model credential is configured; generation is then disabled.
func NewFollowupService(gen llm.TextGenerator, logger *zap.Logger) *FollowupService {
	return &FollowupService{gen: gen, logger: logger}
}

// Generate returns suggested follow-up questions for the given exchange.
func (s *FollowupService) Generate(ctx context.Context, question, answer string) []string {
	if s.gen == nil || len(answer) <= followupMinAnswerLen {
		return nil
	}

	excerpt := answer
	if len(excerpt) > followupAnswerExcerpt {
		excerpt = excerpt[:followupAnswerExcerpt]
	}

	prompt := fmt.Sprintf(`A user asked: %q

The answer began: %q

Suggest 2-3 short follow-up questions the user might ask next.
Respond with ONLY a JSON array of strings, no other text.`, question, excerpt)

	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		s.logger.Warn("follow-up generation failed", zap.Error(err))
		return nil
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &suggestions); err != nil {
		s.logger.Warn("follow-up response was not a JSON string array",
			zap.String("response", text))
		return nil
	}

	if len(suggestions) > followupMax {
		suggestions = suggestions[:followupMax]
	}
	return suggestions
}

// stripCodeFence removes optional markdown fencing some models wrap around
// JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
