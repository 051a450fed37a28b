package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/eduassign/eduassign-gateway/internal/dto"
	"github.com/eduassign/eduassign-gateway/internal/gradeapi"
	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/repository"
	"github.com/eduassign/eduassign-gateway/internal/status"
)

// ErrEvaluationNotAllowed indicates the submission is not in a state from
// which an AI pass may be requested.
var ErrEvaluationNotAllowed = errors.New("evaluation is not allowed in the current state")

// ErrEvaluationInFlight indicates another request already started an AI pass
// for this submission.
var ErrEvaluationInFlight = errors.New("an evaluation request is already in flight")

// SubmissionService exposes the submission use cases consumed by the web UI.
type SubmissionService interface {
	Get(ctx context.Context, id string, includeContent bool) (dto.SubmissionResponse, error)
	ListForStudent(ctx context.Context, studentID string) ([]dto.SubmissionResponse, error)
	Create(ctx context.Context, student models.User, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.CreateReceiptResponse, error)
	Status(ctx context.Context, id string) (dto.SubmissionStatusResponse, error)
	RequestEvaluation(ctx context.Context, submissionID string) (dto.SubmissionStatusResponse, error)
}

type submissionService struct {
	api         GradingAPI
	evaluations repository.EvaluationRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService builds a new submission service.
func NewSubmissionService(api GradingAPI, evaluations repository.EvaluationRepository, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		api:         api,
		evaluations: evaluations,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Get(ctx context.Context, id string, includeContent bool) (dto.SubmissionResponse, error) {
	submission, err := s.api.GetSubmission(ctx, id, includeContent)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListForStudent(ctx context.Context, studentID string) ([]dto.SubmissionResponse, error) {
	submissions, err := s.api.ListStudentSubmissions(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Create(ctx context.Context, student models.User, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.CreateReceiptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CreateReceiptResponse{}, err
	}

	if file == nil {
		return dto.CreateReceiptResponse{}, ErrFileRequired
	}
	if err := validatePDF(file); err != nil {
		return dto.CreateReceiptResponse{}, err
	}

	src, err := file.Open()
	if err != nil {
		return dto.CreateReceiptResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	receipt, err := s.api.CreateSubmission(ctx, gradeapi.CreateSubmissionRequest{
		AssignmentID: payload.AssignmentID,
		StudentID:    student.ID,
		StudentName:  student.Name,
		File:         gradeapi.File{Name: file.Filename, Reader: src},
	})
	if err != nil {
		return dto.CreateReceiptResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", receipt.SubmissionID).
		Str("assignment_id", payload.AssignmentID).
		Str("student_id", student.ID).
		Msg("submission created")

	return dto.CreateReceiptResponse{SubmissionID: receipt.SubmissionID, Status: receipt.Status}, nil
}

// Status re-fetches the submission and derives the display state. The latest
// successful fetch is authoritative; any simulated progress is rebuilt from
// the evaluation marker, never carried forward.
func (s *submissionService) Status(ctx context.Context, id string) (dto.SubmissionStatusResponse, error) {
	submission, err := s.api.GetSubmission(ctx, id, false)
	if err != nil {
		return dto.SubmissionStatusResponse{}, err
	}

	return s.buildStatus(ctx, submission), nil
}

// RequestEvaluation asks the backend to start an AI pass. The request is
// permitted only from the NotEvaluated state, and the marker write settles
// races between concurrent teacher views.
func (s *submissionService) RequestEvaluation(ctx context.Context, submissionID string) (dto.SubmissionStatusResponse, error) {
	submission, err := s.api.GetSubmission(ctx, submissionID, false)
	if err != nil {
		return dto.SubmissionStatusResponse{}, err
	}

	if !status.ClassifySubmission(submission).EvaluationAllowed() {
		return dto.SubmissionStatusResponse{}, ErrEvaluationNotAllowed
	}

	won, err := s.evaluations.MarkStarted(ctx, submissionID, s.now())
	if err != nil {
		return dto.SubmissionStatusResponse{}, err
	}
	if !won {
		return dto.SubmissionStatusResponse{}, ErrEvaluationInFlight
	}

	if err := s.api.RequestEvaluation(ctx, submission.AssignmentID, submissionID); err != nil {
		// The request never started; release the marker so the action can be
		// retried after the failure is surfaced.
		if clearErr := s.evaluations.Clear(ctx, submissionID); clearErr != nil {
			s.logger.Warn().Err(clearErr).Str("submission_id", submissionID).Msg("failed to release evaluation marker")
		}
		return dto.SubmissionStatusResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("assignment_id", submission.AssignmentID).
		Msg("evaluation requested")

	refreshed, err := s.api.GetSubmission(ctx, submissionID, false)
	if err != nil {
		return dto.SubmissionStatusResponse{}, err
	}

	return s.buildStatus(ctx, refreshed), nil
}

func (s *submissionService) buildStatus(ctx context.Context, submission models.Submission) dto.SubmissionStatusResponse {
	state := status.ClassifySubmission(submission)

	var startedAt *time.Time
	switch state {
	case status.Evaluating:
		marker, err := s.evaluations.StartedAt(ctx, submission.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to read evaluation marker")
		} else {
			startedAt = marker
		}
	case status.AwaitingReview, status.Approved:
		// The pass finished; the marker has no further use.
		if err := s.evaluations.Clear(ctx, submission.ID); err != nil {
			s.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to clear evaluation marker")
		}
	}

	return dto.SubmissionStatusResponse{
		SubmissionID:       submission.ID,
		AIProcessingStatus: submission.AIProcessingStatus,
		FeedbackStatus:     submission.FeedbackStatus,
		State:              state.String(),
		StudentLabel:       state.StudentLabel(),
		TeacherLabel:       state.TeacherLabel(),
		EvaluationAllowed:  state.EvaluationAllowed(),
		Progress:           status.ProgressFor(state, startedAt, s.now()),
		Score:              dto.NewScoreResponse(submission.Score()),
	}
}
