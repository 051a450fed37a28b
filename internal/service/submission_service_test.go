package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eduassign/eduassign-gateway/internal/dto"
	"github.com/eduassign/eduassign-gateway/internal/gradeapi"
	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/repository"
	"github.com/eduassign/eduassign-gateway/internal/status"
)

func newTestSubmissionService(t *testing.T, api GradingAPI) (*submissionService, repository.EvaluationRepository) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	evaluations := repository.NewEvaluationRepository(client, time.Hour)
	svc := NewSubmissionService(api, evaluations, validator.New(), zerolog.Nop()).(*submissionService)
	return svc, evaluations
}

func TestSubmissionCreateStreamsFile(t *testing.T) {
	api := newStubGradingAPI()
	svc, _ := newTestSubmissionService(t, api)

	student := models.User{ID: "student-1", Role: models.RoleStudent, Name: "Asha"}
	file := makeFileHeader(t, "answers.pdf", pdfBytes)

	receipt, err := svc.Create(context.Background(), student, dto.SubmissionCreateRequest{AssignmentID: "assignment-1"}, file)
	require.NoError(t, err)
	require.Equal(t, "submission-new", receipt.SubmissionID)

	require.NotNil(t, api.createdSubmission)
	require.Equal(t, "assignment-1", api.createdSubmission.AssignmentID)
	require.Equal(t, "student-1", api.createdSubmission.StudentID)
	require.Equal(t, "answers.pdf", api.createdSubmission.File.Name)
	require.Equal(t, pdfBytes, api.uploadedBytes)
}

func TestSubmissionCreateRejectsNonPDF(t *testing.T) {
	api := newStubGradingAPI()
	svc, _ := newTestSubmissionService(t, api)

	student := models.User{ID: "student-1", Role: models.RoleStudent}
	file := makeFileHeader(t, "answers.pdf", []byte("just some plain text"))

	_, err := svc.Create(context.Background(), student, dto.SubmissionCreateRequest{AssignmentID: "assignment-1"}, file)
	require.ErrorIs(t, err, ErrUnsupportedFileType)
	require.Nil(t, api.createdSubmission)
}

func TestSubmissionCreateRequiresFile(t *testing.T) {
	api := newStubGradingAPI()
	svc, _ := newTestSubmissionService(t, api)

	_, err := svc.Create(context.Background(), models.User{ID: "student-1"}, dto.SubmissionCreateRequest{AssignmentID: "assignment-1"}, nil)
	require.ErrorIs(t, err, ErrFileRequired)
}

func TestRequestEvaluationHappyPath(t *testing.T) {
	api := newStubGradingAPI()
	api.submissions["sub-1"] = models.Submission{
		ID:                 "sub-1",
		AssignmentID:       "assignment-1",
		StudentID:          "student-1",
		AIProcessingStatus: models.AIStatusPending,
	}
	svc, _ := newTestSubmissionService(t, api)

	started := time.Now()
	svc.now = func() time.Time { return started }

	resp, err := svc.RequestEvaluation(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, 1, api.evaluateCalls)
	require.Equal(t, status.Evaluating.String(), resp.State)
	require.False(t, resp.EvaluationAllowed)
	require.True(t, resp.Progress.Simulated)
	require.Equal(t, 0, resp.Progress.Percent)
}

func TestRequestEvaluationSimulatedProgressAdvances(t *testing.T) {
	api := newStubGradingAPI()
	api.submissions["sub-1"] = models.Submission{
		ID:                 "sub-1",
		AssignmentID:       "assignment-1",
		StudentID:          "student-1",
		AIProcessingStatus: models.AIStatusPending,
	}
	svc, _ := newTestSubmissionService(t, api)

	started := time.Now()
	svc.now = func() time.Time { return started }
	_, err := svc.RequestEvaluation(context.Background(), "sub-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return started.Add(4 * time.Second) }
	resp, err := svc.Status(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, 20, resp.Progress.Percent)

	svc.now = func() time.Time { return started.Add(10 * time.Minute) }
	resp, err = svc.Status(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, status.SimulatedCap, resp.Progress.Percent)
}

func TestRequestEvaluationRejectedAfterCompletion(t *testing.T) {
	api := newStubGradingAPI()
	api.submissions["sub-1"] = scoredSubmission("sub-1")
	svc, _ := newTestSubmissionService(t, api)

	_, err := svc.RequestEvaluation(context.Background(), "sub-1")
	require.ErrorIs(t, err, ErrEvaluationNotAllowed)
	require.Zero(t, api.evaluateCalls)
}

func TestRequestEvaluationSecondCallerLosesRace(t *testing.T) {
	api := newStubGradingAPI()
	api.submissions["sub-1"] = models.Submission{
		ID:                 "sub-1",
		AssignmentID:       "assignment-1",
		AIProcessingStatus: models.AIStatusPending,
	}
	svc, evaluations := newTestSubmissionService(t, api)

	won, err := evaluations.MarkStarted(context.Background(), "sub-1", time.Now())
	require.NoError(t, err)
	require.True(t, won)

	_, err = svc.RequestEvaluation(context.Background(), "sub-1")
	require.ErrorIs(t, err, ErrEvaluationInFlight)
	require.Zero(t, api.evaluateCalls)
}

func TestRequestEvaluationUpstreamFailureReleasesMarker(t *testing.T) {
	api := newStubGradingAPI()
	api.submissions["sub-1"] = models.Submission{
		ID:                 "sub-1",
		AssignmentID:       "assignment-1",
		AIProcessingStatus: models.AIStatusPending,
	}
	api.evaluateErr = &gradeapi.Error{StatusCode: 503, Detail: "Evaluation service unavailable"}
	svc, evaluations := newTestSubmissionService(t, api)

	_, err := svc.RequestEvaluation(context.Background(), "sub-1")
	var apiErr *gradeapi.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 503, apiErr.StatusCode)

	startedAt, err := evaluations.StartedAt(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Nil(t, startedAt)

	// The marker was released, so a retry reaches the backend again.
	api.evaluateErr = nil
	_, err = svc.RequestEvaluation(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, 2, api.evaluateCalls)
}

func TestStatusCompletionClearsMarkerAndCarriesScore(t *testing.T) {
	api := newStubGradingAPI()
	api.submissions["sub-1"] = scoredSubmission("sub-1")
	svc, evaluations := newTestSubmissionService(t, api)

	won, err := evaluations.MarkStarted(context.Background(), "sub-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, won)

	resp, err := svc.Status(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, status.AwaitingReview.String(), resp.State)
	require.False(t, resp.Progress.Simulated)
	require.Equal(t, 100, resp.Progress.Percent)
	require.NotNil(t, resp.Score)
	require.Equal(t, "20 / 30", resp.Score.Display)

	startedAt, err := evaluations.StartedAt(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Nil(t, startedAt)
}

func TestStatusUnknownSubmissionSurfacesBackendDetail(t *testing.T) {
	api := newStubGradingAPI()
	svc, _ := newTestSubmissionService(t, api)

	_, err := svc.Status(context.Background(), "missing")
	var apiErr *gradeapi.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 404, apiErr.StatusCode)
	require.Equal(t, "Submission not found", apiErr.Detail)
}

func TestListForStudent(t *testing.T) {
	api := newStubGradingAPI()
	api.submissions["sub-1"] = scoredSubmission("sub-1")
	other := scoredSubmission("sub-2")
	other.StudentID = "student-2"
	api.submissions["sub-2"] = other
	svc, _ := newTestSubmissionService(t, api)

	list, err := svc.ListForStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "sub-1", list[0].ID)
}
