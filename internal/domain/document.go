package domain

import "time"

// Content types indexed in the corpus.
const (
	DocTypeTranscript = "transcript"
	DocTypeMotion     = "motion"
	DocTypeBylaw      = "bylaw"
	DocTypeDocument   = "document"
)

// Document is one corpus record in the keyword index.
type Document struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	MeetingID   string    `json:"meeting_id,omitempty"`
	MeetingDate string    `json:"meeting_date,omitempty"`
	SpeakerName string    `json:"speaker_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IngestRequest is the request to insert or replace corpus documents
type IngestRequest struct {
	Documents []*Document `json:"documents" binding:"required"`
}
