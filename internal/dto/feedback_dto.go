package dto

import "github.com/eduassign/eduassign-gateway/internal/models"

// Feedback edit fields accepted by the draft PATCH operation.
const (
	EditOverallFeedback = "overall_feedback"
	EditQuestionMarks   = "question_marks"
	EditRemarkText      = "remark_text"
)

// FeedbackEditRequest is one field edit applied to an open draft. Question
// and Remark are zero-based indices into the draft's evaluation sequence.
type FeedbackEditRequest struct {
	Field    string   `json:"field" validate:"required,oneof=overall_feedback question_marks remark_text"`
	Question *int     `json:"question,omitempty" validate:"omitempty,min=0"`
	Remark   *int     `json:"remark,omitempty" validate:"omitempty,min=0"`
	Text     string   `json:"text,omitempty"`
	Marks    *float64 `json:"marks,omitempty" validate:"omitempty,min=0"`
}

// FeedbackResponse is the feedback view for one submission. For students the
// document is withheld until approval; State and StudentLabel describe the
// waiting state instead.
type FeedbackResponse struct {
	SubmissionID string                   `json:"submission_id"`
	State        string                   `json:"state"`
	StudentLabel string                   `json:"student_label"`
	TeacherLabel string                   `json:"teacher_label"`
	Approved     bool                     `json:"approved"`
	Document     *models.FeedbackDocument `json:"document,omitempty"`
}

// DraftResponse is the teacher's editable copy of a feedback document.
type DraftResponse struct {
	SubmissionID string                  `json:"submission_id"`
	Draft        models.FeedbackDocument `json:"draft"`
}
