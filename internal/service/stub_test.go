package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eduassign/eduassign-gateway/internal/gradeapi"
	"github.com/eduassign/eduassign-gateway/internal/models"
)

// stubGradingAPI is an in-memory grading backend. Successful evaluation
// requests move the submission to processing, mirroring what the real
// backend reports on the next fetch.
type stubGradingAPI struct {
	assignments map[string]models.Assignment
	submissions map[string]models.Submission
	feedback    map[string]models.FeedbackDocument

	evaluateErr   error
	evaluateCalls int
	updateErr     error
	updated       []models.FeedbackDocument
	approved      []string

	createdAssignment *gradeapi.CreateAssignmentRequest
	createdSubmission *gradeapi.CreateSubmissionRequest
	uploadedBytes     []byte
}

func newStubGradingAPI() *stubGradingAPI {
	return &stubGradingAPI{
		assignments: make(map[string]models.Assignment),
		submissions: make(map[string]models.Submission),
		feedback:    make(map[string]models.FeedbackDocument),
	}
}

func (s *stubGradingAPI) ListAssignments(ctx context.Context) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	return out, nil
}

func (s *stubGradingAPI) GetAssignment(ctx context.Context, id string, includeContent bool) (models.Assignment, error) {
	a, ok := s.assignments[id]
	if !ok {
		return models.Assignment{}, &gradeapi.Error{StatusCode: 404, Detail: "Assignment not found"}
	}
	if !includeContent {
		a.ExtractedContent = ""
	}
	return a, nil
}

func (s *stubGradingAPI) CreateAssignment(ctx context.Context, req gradeapi.CreateAssignmentRequest) (gradeapi.CreateReceipt, error) {
	body, err := io.ReadAll(req.File.Reader)
	if err != nil {
		return gradeapi.CreateReceipt{}, err
	}
	s.createdAssignment = &req
	s.uploadedBytes = body
	return gradeapi.CreateReceipt{AssignmentID: "assignment-new", Status: "created"}, nil
}

func (s *stubGradingAPI) ListAssignmentSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	for _, sub := range s.submissions {
		if sub.AssignmentID == assignmentID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *stubGradingAPI) ListStudentSubmissions(ctx context.Context, studentID string) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	for _, sub := range s.submissions {
		if sub.StudentID == studentID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *stubGradingAPI) GetSubmission(ctx context.Context, id string, includeContent bool) (models.Submission, error) {
	sub, ok := s.submissions[id]
	if !ok {
		return models.Submission{}, &gradeapi.Error{StatusCode: 404, Detail: "Submission not found"}
	}
	if !includeContent {
		sub.ExtractedContent = ""
	}
	return sub, nil
}

func (s *stubGradingAPI) CreateSubmission(ctx context.Context, req gradeapi.CreateSubmissionRequest) (gradeapi.CreateReceipt, error) {
	body, err := io.ReadAll(req.File.Reader)
	if err != nil {
		return gradeapi.CreateReceipt{}, err
	}
	s.createdSubmission = &req
	s.uploadedBytes = body
	return gradeapi.CreateReceipt{SubmissionID: "submission-new", Status: "submitted"}, nil
}

func (s *stubGradingAPI) GetFeedback(ctx context.Context, submissionID string) (models.FeedbackDocument, error) {
	doc, ok := s.feedback[submissionID]
	if !ok {
		return models.FeedbackDocument{}, &gradeapi.Error{StatusCode: 404, Detail: "Feedback not found"}
	}
	return doc, nil
}

func (s *stubGradingAPI) UpdateFeedback(ctx context.Context, submissionID string, doc models.FeedbackDocument) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, doc)
	s.feedback[submissionID] = doc
	return nil
}

func (s *stubGradingAPI) ApproveFeedback(ctx context.Context, submissionID string) error {
	s.approved = append(s.approved, submissionID)
	sub := s.submissions[submissionID]
	sub.FeedbackStatus = models.FeedbackStatusApproved
	s.submissions[submissionID] = sub
	return nil
}

func (s *stubGradingAPI) RequestEvaluation(ctx context.Context, assignmentID, submissionID string) error {
	s.evaluateCalls++
	if s.evaluateErr != nil {
		return s.evaluateErr
	}
	sub := s.submissions[submissionID]
	sub.AIProcessingStatus = models.AIStatusProcessing
	s.submissions[submissionID] = sub
	return nil
}

// pdfBytes is a minimal document that sniffs as application/pdf.
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func makeFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(buf.Len())+1024))

	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func floatPtr(v float64) *float64 { return &v }

func scoredSubmission(id string) models.Submission {
	return models.Submission{
		ID:                 id,
		AssignmentID:       "assignment-1",
		StudentID:          "student-1",
		AIProcessingStatus: models.AIStatusCompleted,
		FeedbackStatus:     models.FeedbackStatusReviewPending,
		OverallMarks:       floatPtr(20),
		MaxPossibleMarks:   floatPtr(30),
	}
}

func sampleFeedback(submissionID string) models.FeedbackDocument {
	return models.FeedbackDocument{
		SubmissionID: submissionID,
		AssignmentID: "assignment-1",
		StudentID:    "student-1",
		QuestionEvaluations: []models.QuestionEvaluation{
			{
				QuestionReference: "Question 1",
				MarksAwarded:      12,
				MaxMarks:          15,
				Feedback: []models.RemarkItem{
					{CategoryID: 1, Text: "Solid grasp of the core idea."},
					{CategoryID: 6, Text: "Show intermediate steps."},
				},
			},
			{
				QuestionReference: "Question 2",
				MarksAwarded:      8,
				MaxMarks:          15,
				Feedback: []models.RemarkItem{
					{CategoryID: 2, Text: "The final unit conversion is wrong."},
				},
			},
		},
		OverallFeedback:    "Good effort overall.",
		OverallMarks:       20,
		MaxPossibleMarks:   30,
		FeedbackCategories: models.DefaultFeedbackCategories(),
	}
}
