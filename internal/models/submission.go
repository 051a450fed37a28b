package models

import (
	"fmt"
	"time"
)

// AI processing stages reported by the grading backend.
const (
	AIStatusPending    = "pending"
	AIStatusProcessing = "processing"
	AIStatusCompleted  = "completed"
)

// Feedback release states. The field is absent until evaluation completes.
const (
	FeedbackStatusReviewPending = "teacher_review_pending"
	FeedbackStatusApproved      = "approved"
)

// SubmissionAssignment carries the owning assignment's headline fields as
// embedded by the backend on per-student listings.
type SubmissionAssignment struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Submission is one student's upload for an assignment, together with the
// backend-driven evaluation state. Marks fields stay nil until the AI pass
// completes; use Score to handle the unscored case explicitly.
type Submission struct {
	ID                  string                `json:"id"`
	AssignmentID        string                `json:"assignment_id"`
	StudentID           string                `json:"student_id"`
	StudentName         string                `json:"student_name"`
	SubmittedAt         time.Time             `json:"submitted_at"`
	Status              string                `json:"status"`
	DocumentURL         string                `json:"document_url"`
	AIProcessingStatus  string                `json:"ai_processing_status"`
	FeedbackStatus      string                `json:"feedback_status,omitempty"`
	OverallMarks        *float64              `json:"overall_marks,omitempty"`
	MaxPossibleMarks    *float64              `json:"max_possible_marks,omitempty"`
	Assignment          *SubmissionAssignment `json:"assignment,omitempty"`
	ExtractedContent    string                `json:"extracted_content,omitempty"`
	HasExtractedContent bool                  `json:"has_extracted_content,omitempty"`
}

// Score is the sum type over a submission's marks: either unscored
// (Valid=false, before evaluation completes) or scored with marks and
// maximum.
type Score struct {
	Valid bool
	Marks float64
	Max   float64
}

// Score derives the scored/unscored state from the optional marks fields.
// Marks are meaningful only once the AI pass has completed.
func (s Submission) Score() Score {
	if s.AIProcessingStatus != AIStatusCompleted || s.OverallMarks == nil || s.MaxPossibleMarks == nil {
		return Score{}
	}
	return Score{Valid: true, Marks: *s.OverallMarks, Max: *s.MaxPossibleMarks}
}

// Display renders the score the way the review screens show it, e.g. "23 / 30".
func (sc Score) Display() string {
	if !sc.Valid {
		return ""
	}
	return fmt.Sprintf("%g / %g", sc.Marks, sc.Max)
}

// Percent returns the score as a percentage, or 0 when unscored or the
// maximum is zero.
func (sc Score) Percent() float64 {
	if !sc.Valid || sc.Max == 0 {
		return 0
	}
	return sc.Marks / sc.Max * 100
}
