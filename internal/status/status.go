// Package status derives a submission's evaluation state from the two raw
// backend fields. Every view goes through the same classification, so the
// student and teacher screens can never disagree about the underlying state.
package status

import "github.com/eduassign/eduassign-gateway/internal/models"

// State is the closed set of derived evaluation states. Transitions only
// move forward and are driven by the backend; the gateway observes them by
// re-fetching, never by mutating locally.
type State int

const (
	// NotEvaluated: the AI pass has not been requested yet.
	NotEvaluated State = iota
	// Evaluating: an AI pass is in flight.
	Evaluating
	// AwaitingReview: the AI pass finished, feedback not yet released.
	AwaitingReview
	// Approved: the teacher released the feedback to the student.
	Approved
)

// Classify reduces the two backend status fields to a single state. It is a
// pure function: the same inputs always produce the same state. The feedback
// status is only consulted once the AI pass has completed.
func Classify(aiProcessingStatus, feedbackStatus string) State {
	switch aiProcessingStatus {
	case models.AIStatusProcessing:
		return Evaluating
	case models.AIStatusCompleted:
		if feedbackStatus == models.FeedbackStatusApproved {
			return Approved
		}
		return AwaitingReview
	default:
		return NotEvaluated
	}
}

// ClassifySubmission derives the state for a fetched submission.
func ClassifySubmission(s models.Submission) State {
	return Classify(s.AIProcessingStatus, s.FeedbackStatus)
}

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case Evaluating:
		return "evaluating"
	case AwaitingReview:
		return "awaiting_review"
	case Approved:
		return "approved"
	default:
		return "not_evaluated"
	}
}

// StudentLabel is the student-facing description of the state.
func (s State) StudentLabel() string {
	switch s {
	case Evaluating:
		return "Evaluation in progress"
	case AwaitingReview:
		return "Awaiting teacher review"
	case Approved:
		return "Feedback available"
	default:
		return "Feedback pending"
	}
}

// TeacherLabel is the teacher-facing description of the state.
func (s State) TeacherLabel() string {
	switch s {
	case Evaluating:
		return "Processing"
	case AwaitingReview:
		return "Ready for Review"
	case Approved:
		return "Approved"
	default:
		return "Pending Evaluation"
	}
}

// EvaluationAllowed reports whether a new AI pass may be requested. Only
// NotEvaluated qualifies; requesting while Evaluating must be rejected since
// the backend does not deduplicate.
func (s State) EvaluationAllowed() bool {
	return s == NotEvaluated
}

// FeedbackVisibleToStudent reports whether the feedback document may be shown
// to the owning student.
func (s State) FeedbackVisibleToStudent() bool {
	return s == Approved
}
