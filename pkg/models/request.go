package models

import "time"

// IncidentRequest is a raw incident write-up submitted for summarization.
type IncidentRequest struct {
	ID         string    `json:"id,omitempty"`
	Text       string    `json:"text"`
	Source     string    `json:"source,omitempty"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// ReportRecord wraps a report with transport metadata for sinks.
type ReportRecord struct {
	ID          string    `json:"id"`
	Source      string    `json:"source,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
	ProcessedAt time.Time `json:"processed_at"`
	Tags        []Tag     `json:"tags,omitempty"`
	Report      Report    `json:"report"`
}
