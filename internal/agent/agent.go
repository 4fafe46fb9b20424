// Package agent defines the contract between the search service and the
// tool-calling reasoning agent, plus a retrieval-backed default
// implementation. The agent's planning strategy is deliberately opaque to the
// rest of the system; only the event contract matters.
package agent

import (
	"context"

	"github.com/opencouncil/councilsearch/internal/domain"
)

// Agent drives one question-mode request and emits an ordered event sequence.
//
// Contract: events are frames restricted to tool_call, tool_observation,
// sources, final_answer_chunk and done. Exactly one logical answer is
// produced; done is the last event of a successful run. A channel that closes
// without done signals agent failure. tool_observation pairs positionally,
// in order, with unmatched tool_call events.
type Agent interface {
	Run(ctx context.Context, query, convContext, tenant string) (<-chan domain.Frame, error)
}
