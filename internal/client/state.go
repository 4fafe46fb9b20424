package client

import (
	"encoding/json"

	"github.com/opencouncil/councilsearch/internal/domain"
)

// Phase is the lifecycle of one streamed answer.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreaming
	PhaseAnswered
	PhaseErrored
)

// TraceStep is one tool invocation in the visible research trace.
type TraceStep struct {
	Name     string
	Args     json.RawMessage
	Result   json.RawMessage
	Resolved bool
}

// State is the fold of all frames seen so far in one request. Reduce is pure:
// replaying the same frame log always yields the same state, independent of
// transport.
type State struct {
	Phase          Phase
	Answer         string
	Steps          []TraceStep
	Sources        []domain.Source
	Followups      []string
	CacheID        string
	TraceCollapsed bool
	ErrMsg         string

	sawChunk bool
}

// StartStream returns the fresh state for a newly opened stream.
func StartStream() State {
	return State{Phase: PhaseStreaming}
}

// Reduce folds one frame into the state.
func (s State) Reduce(f domain.Frame) State {
	switch f.Type {
	case domain.EventToolCall:
		steps := make([]TraceStep, len(s.Steps), len(s.Steps)+1)
		copy(steps, s.Steps)
		s.Steps = append(steps, TraceStep{Name: f.Name, Args: f.Args})

	case domain.EventToolObservation:
		// Positional pairing: resolve the oldest still-open call. With the
		// agent contract of non-overlapping calls this is always the most
		// recently appended step.
		steps := make([]TraceStep, len(s.Steps))
		copy(steps, s.Steps)
		for i := range steps {
			if !steps[i].Resolved {
				steps[i].Result = f.Result
				steps[i].Resolved = true
				break
			}
		}
		s.Steps = steps

	case domain.EventSources:
		s.Sources = f.Sources

	case domain.EventAnswerChunk:
		if !s.sawChunk {
			// Attention shifts from "researching" to "answering".
			s.TraceCollapsed = true
			s.sawChunk = true
		}
		s.Answer += f.Chunk

	case domain.EventFollowups:
		s.Followups = f.Suggestions

	case domain.EventCacheID:
		s.CacheID = f.CacheID

	case domain.EventDone:
		s.Phase = PhaseAnswered
	}

	return s
}

// Fail marks the state errored after an abnormal transport close. The user
// must resubmit; nothing retries automatically.
func (s State) Fail(msg string) State {
	s.Phase = PhaseErrored
	s.ErrMsg = msg
	return s
}

// OpenSteps returns the number of tool calls still awaiting observations.
func (s State) OpenSteps() int {
	n := 0
	for _, step := range s.Steps {
		if !step.Resolved {
			n++
		}
	}
	return n
}
