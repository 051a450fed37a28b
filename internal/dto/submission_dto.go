package dto

import (
	"time"

	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/status"
)

// SubmissionCreateRequest describes the multipart fields for a student
// upload; student id and name come from the session.
type SubmissionCreateRequest struct {
	AssignmentID string `form:"assignment_id" json:"assignment_id" validate:"required"`
}

// ScoreResponse is the scored variant of a submission's marks. It is omitted
// entirely while the submission is unscored, forcing consumers to handle
// that case.
type ScoreResponse struct {
	Marks   float64 `json:"marks"`
	Max     float64 `json:"max"`
	Display string  `json:"display"`
	Percent float64 `json:"percent"`
}

// SubmissionResponse is the serialized representation returned to clients.
type SubmissionResponse struct {
	ID                  string                       `json:"id"`
	AssignmentID        string                       `json:"assignment_id"`
	StudentID           string                       `json:"student_id"`
	StudentName         string                       `json:"student_name"`
	SubmittedAt         time.Time                    `json:"submitted_at"`
	DocumentURL         string                       `json:"document_url"`
	AIProcessingStatus  string                       `json:"ai_processing_status"`
	FeedbackStatus      string                       `json:"feedback_status,omitempty"`
	State               string                       `json:"state"`
	StudentLabel        string                       `json:"student_label"`
	TeacherLabel        string                       `json:"teacher_label"`
	Score               *ScoreResponse               `json:"score,omitempty"`
	Assignment          *SubmissionAssignmentSummary `json:"assignment,omitempty"`
	ExtractedContent    string                       `json:"extracted_content,omitempty"`
	HasExtractedContent bool                         `json:"has_extracted_content,omitempty"`
}

// SubmissionAssignmentSummary carries the owning assignment's headline
// fields on per-student listings.
type SubmissionAssignmentSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SubmissionStatusResponse is the polled status view for one submission:
// the derived state, both labels, the display progress, and the score when
// present. Progress marked simulated is cosmetic and must be discarded on
// the next authoritative fetch.
type SubmissionStatusResponse struct {
	SubmissionID       string          `json:"submission_id"`
	AIProcessingStatus string          `json:"ai_processing_status"`
	FeedbackStatus     string          `json:"feedback_status,omitempty"`
	State              string          `json:"state"`
	StudentLabel       string          `json:"student_label"`
	TeacherLabel       string          `json:"teacher_label"`
	EvaluationAllowed  bool            `json:"evaluation_allowed"`
	Progress           status.Progress `json:"progress"`
	Score              *ScoreResponse  `json:"score,omitempty"`
}

// NewScoreResponse converts the score sum type; unscored becomes nil.
func NewScoreResponse(score models.Score) *ScoreResponse {
	if !score.Valid {
		return nil
	}
	return &ScoreResponse{
		Marks:   score.Marks,
		Max:     score.Max,
		Display: score.Display(),
		Percent: score.Percent(),
	}
}

// NewSubmissionResponse converts a model into a DTO, deriving the shared
// state classification once for all consumers.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	state := status.ClassifySubmission(model)

	response := SubmissionResponse{
		ID:                  model.ID,
		AssignmentID:        model.AssignmentID,
		StudentID:           model.StudentID,
		StudentName:         model.StudentName,
		SubmittedAt:         model.SubmittedAt,
		DocumentURL:         model.DocumentURL,
		AIProcessingStatus:  model.AIProcessingStatus,
		FeedbackStatus:      model.FeedbackStatus,
		State:               state.String(),
		StudentLabel:        state.StudentLabel(),
		TeacherLabel:        state.TeacherLabel(),
		Score:               NewScoreResponse(model.Score()),
		ExtractedContent:    model.ExtractedContent,
		HasExtractedContent: model.HasExtractedContent,
	}

	if model.Assignment != nil {
		response.Assignment = &SubmissionAssignmentSummary{
			Title:       model.Assignment.Title,
			Description: model.Assignment.Description,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
