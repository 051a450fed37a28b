package service

import (
	"context"

	"github.com/eduassign/eduassign-gateway/internal/gradeapi"
	"github.com/eduassign/eduassign-gateway/internal/models"
)

// GradingAPI abstracts the grading backend client so services can be tested
// against stubs. Implemented by *gradeapi.Client.
type GradingAPI interface {
	ListAssignments(ctx context.Context) ([]models.Assignment, error)
	GetAssignment(ctx context.Context, id string, includeContent bool) (models.Assignment, error)
	CreateAssignment(ctx context.Context, req gradeapi.CreateAssignmentRequest) (gradeapi.CreateReceipt, error)
	ListAssignmentSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error)
	ListStudentSubmissions(ctx context.Context, studentID string) ([]models.Submission, error)
	GetSubmission(ctx context.Context, id string, includeContent bool) (models.Submission, error)
	CreateSubmission(ctx context.Context, req gradeapi.CreateSubmissionRequest) (gradeapi.CreateReceipt, error)
	GetFeedback(ctx context.Context, submissionID string) (models.FeedbackDocument, error)
	UpdateFeedback(ctx context.Context, submissionID string, doc models.FeedbackDocument) error
	ApproveFeedback(ctx context.Context, submissionID string) error
	RequestEvaluation(ctx context.Context, assignmentID, submissionID string) error
}
