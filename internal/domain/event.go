package domain

import "encoding/json"

// EventType tags a frame in the streaming protocol.
type EventType string

const (
	// Emitted by the reasoning agent.
	EventToolCall        EventType = "tool_call"
	EventToolObservation EventType = "tool_observation"
	EventSources         EventType = "sources"
	EventAnswerChunk     EventType = "final_answer_chunk"
	// Injected by the stream orchestrator after the agent completes.
	EventFollowups EventType = "suggested_followups"
	EventCacheID   EventType = "cache_id"
	// Terminal marker. Always the last frame; emitted exactly once.
	EventDone EventType = "done"
)

// Frame is one discrete typed message in the streaming protocol. The agent
// emits the tool_call/tool_observation/sources/final_answer_chunk/done subset;
// suggested_followups and cache_id are injected by the orchestrator.
// Only the fields relevant to Type are populated.
type Frame struct {
	Type EventType `json:"type"`

	// tool_call / tool_observation. Observations pair positionally, in order,
	// with unmatched calls; there is no correlation id.
	Name   string          `json:"name,omitempty"`
	Args   json.RawMessage `json:"args,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`

	// sources
	Sources []Source `json:"sources,omitempty"`

	// final_answer_chunk. Concatenating chunks in arrival order reconstructs
	// the full answer.
	Chunk string `json:"chunk,omitempty"`

	// suggested_followups
	Suggestions []string `json:"suggestions,omitempty"`

	// cache_id
	CacheID string `json:"cache_id,omitempty"`
}

// Source is a citation target. Type discriminates rendering
// (transcript, motion, bylaw, document).
type Source struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	MeetingID   string `json:"meeting_id,omitempty"`
	MeetingDate string `json:"meeting_date,omitempty"`
	SpeakerName string `json:"speaker_name,omitempty"`
	Title       string `json:"title,omitempty"`
}
