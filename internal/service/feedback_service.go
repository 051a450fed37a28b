package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eduassign/eduassign-gateway/internal/dto"
	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/repository"
	"github.com/eduassign/eduassign-gateway/internal/status"
)

var (
	// ErrFeedbackNotReady indicates the AI pass has not completed yet.
	ErrFeedbackNotReady = errors.New("feedback is not ready for review")
	// ErrFeedbackApproved indicates the feedback was already approved and can
	// no longer be edited.
	ErrFeedbackApproved = errors.New("feedback has already been approved")
	// ErrNoDraftOpen indicates an edit, save or discard was attempted without
	// an open draft.
	ErrNoDraftOpen = errors.New("no draft is open for this submission")
	// ErrDraftOpen indicates approval was attempted while unsaved edits exist.
	ErrDraftOpen = errors.New("a draft with unsaved edits is open for this submission")
	// ErrBadEditTarget indicates an edit referenced a question or remark that
	// does not exist in the draft.
	ErrBadEditTarget = errors.New("edit target does not exist in the draft")
	// ErrMalformedFeedback indicates the backend returned a feedback document
	// that fails structural validation.
	ErrMalformedFeedback = errors.New("feedback document is malformed")
	// ErrNotSubmissionOwner indicates a student asked for feedback on a
	// submission that is not theirs.
	ErrNotSubmissionOwner = errors.New("submission belongs to another student")
)

// feedbackDocumentSchema is the structural contract the grading backend's
// feedback documents must satisfy before a teacher may edit them.
const feedbackDocumentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["submission_id", "question_evaluations", "overall_feedback", "overall_marks", "max_possible_marks"],
  "properties": {
    "submission_id": {"type": "string", "minLength": 1},
    "assignment_id": {"type": "string"},
    "student_id": {"type": "string"},
    "overall_feedback": {"type": "string"},
    "overall_marks": {"type": "number", "minimum": 0},
    "max_possible_marks": {"type": "number", "minimum": 0},
    "question_evaluations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question_reference", "marks_awarded", "max_marks", "feedback"],
        "properties": {
          "question_reference": {"type": "string", "minLength": 1},
          "marks_awarded": {"type": "number", "minimum": 0},
          "max_marks": {"type": "number", "minimum": 0},
          "feedback": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["category_id", "text"],
              "properties": {
                "category_id": {"type": "integer", "minimum": 1},
                "text": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "feedback_categories": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"}
        }
      }
    }
  }
}`

// FeedbackService exposes the feedback review workflow: read, draft, edit,
// save, approve.
type FeedbackService interface {
	Get(ctx context.Context, viewer models.User, submissionID string) (dto.FeedbackResponse, error)
	OpenDraft(ctx context.Context, teacherID, submissionID string) (dto.DraftResponse, error)
	Edit(ctx context.Context, teacherID, submissionID string, edit dto.FeedbackEditRequest) (dto.DraftResponse, error)
	DiscardDraft(ctx context.Context, teacherID, submissionID string) error
	SaveDraft(ctx context.Context, teacherID, submissionID string) (dto.FeedbackResponse, error)
	Approve(ctx context.Context, teacherID, submissionID string) (dto.FeedbackResponse, error)
}

type feedbackService struct {
	api       GradingAPI
	drafts    repository.DraftRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	schema    *jsonschema.Schema
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewFeedbackService builds a new feedback service.
func NewFeedbackService(api GradingAPI, drafts repository.DraftRepository, validate *validator.Validate, logger zerolog.Logger) FeedbackService {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("feedback_document.schema.json", strings.NewReader(feedbackDocumentSchema)); err != nil {
		panic(fmt.Sprintf("feedback schema: %v", err))
	}

	return &feedbackService{
		api:       api,
		drafts:    drafts,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		schema:    compiler.MustCompile("feedback_document.schema.json"),
		tracer:    otel.Tracer("feedback-service"),
		logger:    logger.With().Str("component", "feedback_service").Logger(),
	}
}

// Get returns the feedback view for one submission. Students only ever see
// approved feedback for their own submissions; until then they get a waiting
// payload without the document.
func (s *feedbackService) Get(ctx context.Context, viewer models.User, submissionID string) (dto.FeedbackResponse, error) {
	submission, err := s.api.GetSubmission(ctx, submissionID, false)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}

	if viewer.Role == models.RoleStudent && submission.StudentID != viewer.ID {
		return dto.FeedbackResponse{}, ErrNotSubmissionOwner
	}

	state := status.ClassifySubmission(submission)
	resp := dto.FeedbackResponse{
		SubmissionID: submissionID,
		State:        state.String(),
		StudentLabel: state.StudentLabel(),
		TeacherLabel: state.TeacherLabel(),
		Approved:     state == status.Approved,
	}

	if viewer.Role == models.RoleStudent && !state.FeedbackVisibleToStudent() {
		return resp, nil
	}
	if state != status.AwaitingReview && state != status.Approved {
		return resp, nil
	}

	doc, err := s.api.GetFeedback(ctx, submissionID)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}
	if len(doc.FeedbackCategories) == 0 {
		doc.FeedbackCategories = models.DefaultFeedbackCategories()
	}
	resp.Document = &doc

	return resp, nil
}

// OpenDraft copies the saved feedback document into the teacher's draft
// store. Reopening an existing draft returns it unchanged, so a page reload
// never loses edits.
func (s *feedbackService) OpenDraft(ctx context.Context, teacherID, submissionID string) (dto.DraftResponse, error) {
	ctx, span := s.tracer.Start(ctx, "feedback.open_draft")
	defer span.End()

	existing, err := s.drafts.Get(ctx, teacherID, submissionID)
	if err == nil {
		return dto.DraftResponse{SubmissionID: submissionID, Draft: existing}, nil
	}
	if !errors.Is(err, repository.ErrDraftNotFound) {
		return dto.DraftResponse{}, err
	}

	submission, err := s.api.GetSubmission(ctx, submissionID, false)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	switch status.ClassifySubmission(submission) {
	case status.AwaitingReview:
	case status.Approved:
		return dto.DraftResponse{}, ErrFeedbackApproved
	default:
		return dto.DraftResponse{}, ErrFeedbackNotReady
	}

	doc, err := s.api.GetFeedback(ctx, submissionID)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	if err := s.validateDocument(doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed feedback document")
		s.logger.Error().Err(err).Str("submission_id", submissionID).Msg("backend returned malformed feedback")
		return dto.DraftResponse{}, ErrMalformedFeedback
	}

	if len(doc.FeedbackCategories) == 0 {
		doc.FeedbackCategories = models.DefaultFeedbackCategories()
	}

	if err := s.drafts.Put(ctx, teacherID, submissionID, doc); err != nil {
		return dto.DraftResponse{}, err
	}

	return dto.DraftResponse{SubmissionID: submissionID, Draft: doc}, nil
}

// Edit applies one field edit to the open draft. Marks edits recompute the
// overall total from the per-question values.
func (s *feedbackService) Edit(ctx context.Context, teacherID, submissionID string, edit dto.FeedbackEditRequest) (dto.DraftResponse, error) {
	if err := s.validator.Struct(edit); err != nil {
		return dto.DraftResponse{}, err
	}

	draft, err := s.drafts.Get(ctx, teacherID, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			return dto.DraftResponse{}, ErrNoDraftOpen
		}
		return dto.DraftResponse{}, err
	}

	switch edit.Field {
	case dto.EditOverallFeedback:
		draft.OverallFeedback = s.sanitizer.Sanitize(edit.Text)

	case dto.EditQuestionMarks:
		if edit.Question == nil || edit.Marks == nil {
			return dto.DraftResponse{}, ErrBadEditTarget
		}
		i := *edit.Question
		if i < 0 || i >= len(draft.QuestionEvaluations) {
			return dto.DraftResponse{}, ErrBadEditTarget
		}
		draft.QuestionEvaluations[i].MarksAwarded = *edit.Marks
		draft.OverallMarks = draft.MarksTotal()

	case dto.EditRemarkText:
		if edit.Question == nil || edit.Remark == nil {
			return dto.DraftResponse{}, ErrBadEditTarget
		}
		qi := *edit.Question
		if qi < 0 || qi >= len(draft.QuestionEvaluations) {
			return dto.DraftResponse{}, ErrBadEditTarget
		}
		ri := *edit.Remark
		if ri < 0 || ri >= len(draft.QuestionEvaluations[qi].Feedback) {
			return dto.DraftResponse{}, ErrBadEditTarget
		}
		draft.QuestionEvaluations[qi].Feedback[ri].Text = s.sanitizer.Sanitize(edit.Text)
	}

	if err := s.drafts.Put(ctx, teacherID, submissionID, draft); err != nil {
		return dto.DraftResponse{}, err
	}

	return dto.DraftResponse{SubmissionID: submissionID, Draft: draft}, nil
}

// DiscardDraft drops the teacher's draft; the saved copy is untouched.
func (s *feedbackService) DiscardDraft(ctx context.Context, teacherID, submissionID string) error {
	exists, err := s.drafts.Exists(ctx, teacherID, submissionID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNoDraftOpen
	}

	return s.drafts.Delete(ctx, teacherID, submissionID)
}

// SaveDraft writes the draft back to the grading backend. If the upstream
// write fails the draft is kept, so the edits survive a retry.
func (s *feedbackService) SaveDraft(ctx context.Context, teacherID, submissionID string) (dto.FeedbackResponse, error) {
	ctx, span := s.tracer.Start(ctx, "feedback.save_draft")
	defer span.End()

	draft, err := s.drafts.Get(ctx, teacherID, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			return dto.FeedbackResponse{}, ErrNoDraftOpen
		}
		return dto.FeedbackResponse{}, err
	}

	draft.OverallMarks = draft.MarksTotal()

	if err := s.api.UpdateFeedback(ctx, submissionID, draft); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feedback save failed")
		return dto.FeedbackResponse{}, err
	}

	if err := s.drafts.Delete(ctx, teacherID, submissionID); err != nil {
		s.logger.Warn().Err(err).Str("submission_id", submissionID).Msg("failed to drop saved draft")
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("teacher_id", teacherID).
		Msg("feedback saved")

	return s.Get(ctx, models.User{ID: teacherID, Role: models.RoleTeacher}, submissionID)
}

// Approve releases the feedback to the student. Approval is refused while a
// draft with unsaved edits is open.
func (s *feedbackService) Approve(ctx context.Context, teacherID, submissionID string) (dto.FeedbackResponse, error) {
	open, err := s.drafts.Exists(ctx, teacherID, submissionID)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}
	if open {
		return dto.FeedbackResponse{}, ErrDraftOpen
	}

	submission, err := s.api.GetSubmission(ctx, submissionID, false)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}

	switch status.ClassifySubmission(submission) {
	case status.AwaitingReview:
	case status.Approved:
		return dto.FeedbackResponse{}, ErrFeedbackApproved
	default:
		return dto.FeedbackResponse{}, ErrFeedbackNotReady
	}

	if err := s.api.ApproveFeedback(ctx, submissionID); err != nil {
		return dto.FeedbackResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("teacher_id", teacherID).
		Msg("feedback approved")

	return s.Get(ctx, models.User{ID: teacherID, Role: models.RoleTeacher}, submissionID)
}

func (s *feedbackService) validateDocument(doc models.FeedbackDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}

	return s.schema.Validate(decoded)
}
