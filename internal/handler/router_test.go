package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eduassign/eduassign-gateway/internal/config"
	"github.com/eduassign/eduassign-gateway/internal/dto"
	"github.com/eduassign/eduassign-gateway/internal/gradeapi"
	"github.com/eduassign/eduassign-gateway/internal/handler"
	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/repository"
	"github.com/eduassign/eduassign-gateway/internal/router"
	"github.com/eduassign/eduassign-gateway/internal/service"
	"github.com/eduassign/eduassign-gateway/internal/session"
)

// fakeBackend is an in-memory grading backend shared by the wired services.
type fakeBackend struct {
	submissions map[string]models.Submission
	feedback    map[string]models.FeedbackDocument
}

func (f *fakeBackend) ListAssignments(ctx context.Context) ([]models.Assignment, error) {
	return []models.Assignment{{ID: "a-1", Title: "Problem set"}}, nil
}

func (f *fakeBackend) GetAssignment(ctx context.Context, id string, includeContent bool) (models.Assignment, error) {
	return models.Assignment{ID: id, Title: "Problem set"}, nil
}

func (f *fakeBackend) CreateAssignment(ctx context.Context, req gradeapi.CreateAssignmentRequest) (gradeapi.CreateReceipt, error) {
	_, _ = io.Copy(io.Discard, req.File.Reader)
	return gradeapi.CreateReceipt{AssignmentID: "a-new", Status: "created"}, nil
}

func (f *fakeBackend) ListAssignmentSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	for _, s := range f.submissions {
		if s.AssignmentID == assignmentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeBackend) ListStudentSubmissions(ctx context.Context, studentID string) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	for _, s := range f.submissions {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetSubmission(ctx context.Context, id string, includeContent bool) (models.Submission, error) {
	s, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, &gradeapi.Error{StatusCode: 404, Detail: "Submission not found"}
	}
	return s, nil
}

func (f *fakeBackend) CreateSubmission(ctx context.Context, req gradeapi.CreateSubmissionRequest) (gradeapi.CreateReceipt, error) {
	_, _ = io.Copy(io.Discard, req.File.Reader)
	return gradeapi.CreateReceipt{SubmissionID: "sub-new", Status: "submitted"}, nil
}

func (f *fakeBackend) GetFeedback(ctx context.Context, submissionID string) (models.FeedbackDocument, error) {
	doc, ok := f.feedback[submissionID]
	if !ok {
		return models.FeedbackDocument{}, &gradeapi.Error{StatusCode: 404, Detail: "Feedback not found"}
	}
	return doc, nil
}

func (f *fakeBackend) UpdateFeedback(ctx context.Context, submissionID string, doc models.FeedbackDocument) error {
	f.feedback[submissionID] = doc
	return nil
}

func (f *fakeBackend) ApproveFeedback(ctx context.Context, submissionID string) error {
	s := f.submissions[submissionID]
	s.FeedbackStatus = models.FeedbackStatusApproved
	f.submissions[submissionID] = s
	return nil
}

func (f *fakeBackend) RequestEvaluation(ctx context.Context, assignmentID, submissionID string) error {
	s := f.submissions[submissionID]
	s.AIProcessingStatus = models.AIStatusProcessing
	f.submissions[submissionID] = s
	return nil
}

// tokenResolver maps fixed tokens onto users.
type tokenResolver struct {
	users map[string]models.User
}

func (r *tokenResolver) Resolve(ctx context.Context, token string) (models.User, session.Claims, error) {
	user, ok := r.users[token]
	if !ok {
		return models.User{}, session.Claims{}, errors.New("unknown token")
	}
	return user, session.Claims{UserID: user.ID, Role: user.Role, TokenID: token}, nil
}

type fakeResolver struct{}

func (fakeResolver) SignedURL(ctx context.Context, path string) (string, error) {
	return "https://cdn.example.com/" + path, nil
}

func setupApp(t *testing.T) (*fiber.App, *fakeBackend) {
	t.Helper()

	marks := 20.0
	maxMarks := 30.0
	backend := &fakeBackend{
		submissions: map[string]models.Submission{
			"sub-1": {
				ID:                 "sub-1",
				AssignmentID:       "a-1",
				StudentID:          "student-1",
				AIProcessingStatus: models.AIStatusCompleted,
				FeedbackStatus:     models.FeedbackStatusReviewPending,
				OverallMarks:       &marks,
				MaxPossibleMarks:   &maxMarks,
			},
			"sub-2": {
				ID:                 "sub-2",
				AssignmentID:       "a-1",
				StudentID:          "student-1",
				AIProcessingStatus: models.AIStatusPending,
			},
		},
		feedback: map[string]models.FeedbackDocument{
			"sub-1": {
				SubmissionID: "sub-1",
				AssignmentID: "a-1",
				StudentID:    "student-1",
				QuestionEvaluations: []models.QuestionEvaluation{
					{
						QuestionReference: "Question 1",
						MarksAwarded:      20,
						MaxMarks:          30,
						Feedback:          []models.RemarkItem{{CategoryID: 1, Text: "Good work."}},
					},
				},
				OverallFeedback:  "Solid attempt.",
				OverallMarks:     20,
				MaxPossibleMarks: 30,
			},
		},
	}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()

	draftRepo := repository.NewDraftRepository(redisClient, time.Hour)
	evaluationRepo := repository.NewEvaluationRepository(redisClient, time.Hour)

	assignmentService := service.NewAssignmentService(backend, validate, logger)
	submissionService := service.NewSubmissionService(backend, evaluationRepo, validate, logger)
	feedbackService := service.NewFeedbackService(backend, draftRepo, validate, logger)
	documentService := service.NewDocumentService(fakeResolver{}, logger)

	resolver := &tokenResolver{users: map[string]models.User{
		"teacher-token": {ID: "teacher-1", Role: models.RoleTeacher, Name: "Priya"},
		"student-token": {ID: "student-1", Role: models.RoleStudent, Name: "Asha"},
	}}

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		FeedbackHandler:   handler.NewFeedbackHandler(feedbackService, logger),
		DocumentHandler:   handler.NewDocumentHandler(documentService, logger),
		SessionResolver:   resolver,
	})

	return app, backend
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestUnauthenticatedRequestsRedirectToLogin(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, "GET", "/api/v1/assignments", "", nil, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("X-Redirect-To"))
}

func TestStudentBlockedFromTeacherRoutes(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, "POST", "/api/v1/submissions/sub-2/evaluate", "student-token", nil, "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, "/student/dashboard", resp.Header.Get("X-Redirect-To"))
}

func TestEvaluateFlowOverHTTP(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, "POST", "/api/v1/submissions/sub-2/evaluate", "teacher-token", nil, "")
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var envelope struct {
		Success bool                         `json:"success"`
		Data    dto.SubmissionStatusResponse `json:"data"`
	}
	decodeResponse(t, resp, &envelope)
	require.True(t, envelope.Success)
	require.Equal(t, "evaluating", envelope.Data.State)
	require.True(t, envelope.Data.Progress.Simulated)

	// A repeat request conflicts: the state already left NotEvaluated.
	resp = doRequest(t, app, "POST", "/api/v1/submissions/sub-2/evaluate", "teacher-token", nil, "")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestFeedbackReviewFlowOverHTTP(t *testing.T) {
	app, backend := setupApp(t)

	resp := doRequest(t, app, "POST", "/api/v1/submissions/sub-1/feedback/draft", "teacher-token", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	edit, err := json.Marshal(dto.FeedbackEditRequest{
		Field:    dto.EditQuestionMarks,
		Question: intPtr(0),
		Marks:    floatPtr(25),
	})
	require.NoError(t, err)
	resp = doRequest(t, app, "PATCH", "/api/v1/submissions/sub-1/feedback/draft", "teacher-token", bytes.NewReader(edit), "application/json")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var draftEnvelope struct {
		Data dto.DraftResponse `json:"data"`
	}
	decodeResponse(t, resp, &draftEnvelope)
	require.Equal(t, 25.0, draftEnvelope.Data.Draft.OverallMarks)

	// Approval while the draft is open conflicts.
	resp = doRequest(t, app, "POST", "/api/v1/submissions/sub-1/feedback/approve", "teacher-token", nil, "")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doRequest(t, app, "POST", "/api/v1/submissions/sub-1/feedback/draft/save", "teacher-token", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 25.0, backend.feedback["sub-1"].OverallMarks)

	resp = doRequest(t, app, "POST", "/api/v1/submissions/sub-1/feedback/approve", "teacher-token", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The student now sees the approved document.
	resp = doRequest(t, app, "GET", "/api/v1/submissions/sub-1/feedback", "student-token", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var feedbackEnvelope struct {
		Data dto.FeedbackResponse `json:"data"`
	}
	decodeResponse(t, resp, &feedbackEnvelope)
	require.True(t, feedbackEnvelope.Data.Approved)
	require.NotNil(t, feedbackEnvelope.Data.Document)
}

func TestStudentSeesWaitingStateBeforeApproval(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, "GET", "/api/v1/submissions/sub-1/feedback", "student-token", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data dto.FeedbackResponse `json:"data"`
	}
	decodeResponse(t, resp, &envelope)
	require.False(t, envelope.Data.Approved)
	require.Nil(t, envelope.Data.Document)
	require.Equal(t, "Awaiting teacher review", envelope.Data.StudentLabel)
}

func TestStudentCannotListAnotherStudentsSubmissions(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, "GET", "/api/v1/students/student-2/submissions", "student-token", nil, "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/students/student-1/submissions", "student-token", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/students/student-1/submissions", "teacher-token", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSubmissionUploadOverHTTP(t *testing.T) {
	app, _ := setupApp(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("assignment_id", "a-1"))
	part, err := writer.CreateFormFile("file", "answers.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4\n%%EOF\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp := doRequest(t, app, "POST", "/api/v1/submissions", "student-token", body, writer.FormDataContentType())
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var envelope struct {
		Data dto.CreateReceiptResponse `json:"data"`
	}
	decodeResponse(t, resp, &envelope)
	require.Equal(t, "sub-new", envelope.Data.SubmissionID)
}

func TestDocumentViewOverHTTP(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, "GET", "/api/v1/documents/view?path=submissions%2Fsub-1%2Fanswers.pdf", "student-token", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data dto.DocumentViewResponse `json:"data"`
	}
	decodeResponse(t, resp, &envelope)
	require.Equal(t, dto.DocumentStatusLoaded, envelope.Data.Status)
	require.Equal(t, "https://cdn.example.com/submissions/sub-1/answers.pdf", envelope.Data.URL)
	require.Contains(t, envelope.Data.ViewerURL, "docs.google.com/viewer")
}

func TestHealthEndpointIsPublic(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, "GET", "/api/v1/health", "", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
