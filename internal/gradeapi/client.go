// Package gradeapi is the typed client for the grading backend's REST
// surface. It is the only component that talks to the backend; every call is
// a single attempt with no retry, caching, or batching.
package gradeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eduassign/eduassign-gateway/internal/middleware"
	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/observability"
)

// Error carries the backend's error message and HTTP status for a failed
// call. The Detail field holds the backend's "detail" message verbatim so it
// can be surfaced to the user.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("grading backend: %s (status %d)", e.Detail, e.StatusCode)
}

// Client issues typed requests against the grading backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewClient builds a grading backend client. Timeout semantics are delegated
// to the transport; there is no per-call backoff.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "gradeapi").Logger(),
		tracer:  otel.Tracer("github.com/eduassign/eduassign-gateway/internal/gradeapi"),
	}
}

// File is a binary part attached to a multipart create call.
type File struct {
	Name   string
	Reader io.Reader
}

// CreateAssignmentRequest is the multipart payload for assignment creation.
type CreateAssignmentRequest struct {
	CreatorID   string
	Title       string
	Description string
	File        File
}

// CreateSubmissionRequest is the multipart payload for submission creation.
type CreateSubmissionRequest struct {
	AssignmentID string
	StudentID    string
	StudentName  string
	File         File
}

// CreateReceipt is the backend's acknowledgement for a multipart create; the
// entity itself materialises asynchronously.
type CreateReceipt struct {
	AssignmentID string `json:"assignment_id,omitempty"`
	SubmissionID string `json:"submission_id,omitempty"`
	Status       string `json:"status"`
}

// ListAssignments fetches all assignments.
func (c *Client) ListAssignments(ctx context.Context) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := c.doJSON(ctx, http.MethodGet, "/assignments/", nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// GetAssignment fetches one assignment, optionally with the extracted
// document text used by teacher views.
func (c *Client) GetAssignment(ctx context.Context, id string, includeContent bool) (models.Assignment, error) {
	path := fmt.Sprintf("/assignments/%s?include_content=%s", url.PathEscape(id), strconv.FormatBool(includeContent))

	var assignment models.Assignment
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &assignment); err != nil {
		return models.Assignment{}, err
	}
	return assignment, nil
}

// CreateAssignment uploads a new assignment definition with its PDF.
func (c *Client) CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (CreateReceipt, error) {
	fields := map[string]string{
		"creator_id":  req.CreatorID,
		"title":       req.Title,
		"description": req.Description,
	}

	var receipt CreateReceipt
	if err := c.doMultipart(ctx, "/assignments/", fields, req.File, &receipt); err != nil {
		return CreateReceipt{}, err
	}
	return receipt, nil
}

// ListAssignmentSubmissions fetches all submissions for an assignment.
func (c *Client) ListAssignmentSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	path := fmt.Sprintf("/assignments/%s/submissions", url.PathEscape(assignmentID))

	var submissions []models.Submission
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

// ListStudentSubmissions fetches all submissions made by one student.
func (c *Client) ListStudentSubmissions(ctx context.Context, studentID string) ([]models.Submission, error) {
	path := fmt.Sprintf("/students/%s/submissions", url.PathEscape(studentID))

	var submissions []models.Submission
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

// GetSubmission fetches one submission, optionally with its extracted text.
func (c *Client) GetSubmission(ctx context.Context, id string, includeContent bool) (models.Submission, error) {
	path := fmt.Sprintf("/submissions/%s?include_content=%s", url.PathEscape(id), strconv.FormatBool(includeContent))

	var submission models.Submission
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &submission); err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

// CreateSubmission uploads a student's attempt with its PDF.
func (c *Client) CreateSubmission(ctx context.Context, req CreateSubmissionRequest) (CreateReceipt, error) {
	fields := map[string]string{
		"assignment_id": req.AssignmentID,
		"student_id":    req.StudentID,
		"student_name":  req.StudentName,
	}

	var receipt CreateReceipt
	if err := c.doMultipart(ctx, "/submissions/", fields, req.File, &receipt); err != nil {
		return CreateReceipt{}, err
	}
	return receipt, nil
}

// GetFeedback fetches the structured feedback document for a submission.
func (c *Client) GetFeedback(ctx context.Context, submissionID string) (models.FeedbackDocument, error) {
	path := fmt.Sprintf("/submissions/%s/feedback", url.PathEscape(submissionID))

	var doc models.FeedbackDocument
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return models.FeedbackDocument{}, err
	}
	return doc, nil
}

// UpdateFeedback replaces the stored feedback document wholesale.
func (c *Client) UpdateFeedback(ctx context.Context, submissionID string, doc models.FeedbackDocument) error {
	path := fmt.Sprintf("/submissions/%s/feedback", url.PathEscape(submissionID))
	return c.doJSON(ctx, http.MethodPut, path, doc, nil)
}

// ApproveFeedback flips the submission's feedback to approved. The caller
// must re-fetch the submission afterwards; success here does not imply the
// local copy is current.
func (c *Client) ApproveFeedback(ctx context.Context, submissionID string) error {
	path := fmt.Sprintf("/submissions/%s/approve-feedback", url.PathEscape(submissionID))
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// RequestEvaluation asks the backend to start an AI pass over the submission.
// The backend does not deduplicate; callers gate this on the derived state.
func (c *Client) RequestEvaluation(ctx context.Context, assignmentID, submissionID string) error {
	path := fmt.Sprintf("/evaluate/%s/%s", url.PathEscape(assignmentID), url.PathEscape(submissionID))
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, path, out)
}

func (c *Client) doMultipart(ctx context.Context, path string, fields map[string]string, file File, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req, path, out)
}

func (c *Client) send(req *http.Request, operation string, out interface{}) error {
	ctx, span := c.tracer.Start(req.Context(), "gradeapi.call")
	defer span.End()
	span.SetAttributes(
		attribute.String("gradeapi.method", req.Method),
		attribute.String("gradeapi.path", operation),
	)
	req = req.WithContext(ctx)

	if correlation := middleware.CorrelationIDFromContext(ctx); correlation != "" {
		req.Header.Set("X-Correlation-ID", correlation)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		observability.UpstreamRequests().WithLabelValues(req.Method, operation, "error").Inc()
		return fmt.Errorf("grading backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	observability.UpstreamRequests().WithLabelValues(req.Method, operation, strconv.Itoa(resp.StatusCode)).Inc()
	observability.UpstreamLatency().WithLabelValues(req.Method, operation).Observe(time.Since(start).Seconds())

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := decodeError(resp)
		span.SetStatus(codes.Error, apiErr.Detail)
		c.logger.Warn().
			Str("method", req.Method).
			Str("path", operation).
			Int("status", apiErr.StatusCode).
			Str("detail", apiErr.Detail).
			Msg("grading backend returned an error")
		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failure")
		return fmt.Errorf("failed to decode backend response: %w", err)
	}

	return nil
}

func decodeError(resp *http.Response) *Error {
	apiErr := &Error{
		StatusCode: resp.StatusCode,
		Detail:     fmt.Sprintf("request failed with status %d", resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	}

	return apiErr
}
