package models

import "time"

// Assignment statuses reported by the grading backend.
const (
	AssignmentStatusActive   = "active"
	AssignmentStatusArchived = "archived"
)

// Assignment is a coursework definition owned by the grading backend. The
// gateway holds transient copies only; nothing here is persisted locally.
type Assignment struct {
	ID                  string    `json:"id"`
	CreatorID           string    `json:"creator_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	DocumentURL         string    `json:"document_url"`
	CreatedAt           time.Time `json:"created_at"`
	Status              string    `json:"status"`
	ExtractedContent    string    `json:"extracted_content,omitempty"`
	HasExtractedContent bool      `json:"has_extracted_content,omitempty"`
}
