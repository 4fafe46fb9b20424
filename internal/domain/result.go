package domain

import "time"

// CachedResult is a completed answer payload, created once at the end of a
// successful question-mode stream and never mutated afterward. The id is
// opaque and suitable for embedding in a shareable URL.
type CachedResult struct {
	ID                 string    `json:"id"`
	Query              string    `json:"query"`
	Answer             string    `json:"answer"`
	Sources            []Source  `json:"sources"`
	SuggestedFollowups []string  `json:"suggested_followups"`
	SourceCount        int       `json:"source_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// ResultItem is one ranked hit from a keyword search.
type ResultItem struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet,omitempty"`
	MeetingID   string `json:"meeting_id,omitempty"`
	MeetingDate string `json:"meeting_date,omitempty"`
	SpeakerName string `json:"speaker_name,omitempty"`
}

// Stats summarizes the state of the corpus and cache.
type Stats struct {
	Documents      map[string]int `json:"documents"`
	TotalDocuments int            `json:"total_documents"`
	CachedResults  int            `json:"cached_results"`
}
