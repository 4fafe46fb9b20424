package domain

// Intent classifies a query as a keyword search or a natural-language question.
type Intent string

const (
	IntentKeyword  Intent = "keyword"
	IntentQuestion Intent = "question"
)

// Query is the immutable input to a single search request.
type Query struct {
	// Text is the raw query string.
	Text string `json:"text"`
	// Mode is an optional explicit override: "keyword", "ai" or "question".
	// An explicit mode always wins over classification.
	Mode string `json:"mode,omitempty"`
	// Context carries the client's prior-turn conversation string.
	Context string `json:"context,omitempty"`
	// Types restricts keyword search to specific content types.
	Types []string `json:"types,omitempty"`
}
