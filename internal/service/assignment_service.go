package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/eduassign/eduassign-gateway/internal/dto"
	"github.com/eduassign/eduassign-gateway/internal/gradeapi"
)

// ErrFileRequired indicates a multipart create arrived without a file part.
var ErrFileRequired = errors.New("a document file is required")

// ErrUnsupportedFileType indicates the uploaded file is not a PDF.
var ErrUnsupportedFileType = errors.New("only PDF documents are accepted")

// AssignmentService exposes the assignment use cases consumed by the web UI.
type AssignmentService interface {
	List(ctx context.Context) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id string, includeContent bool) (dto.AssignmentResponse, error)
	Create(ctx context.Context, creatorID string, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.CreateReceiptResponse, error)
	ListSubmissions(ctx context.Context, assignmentID string) ([]dto.SubmissionResponse, error)
}

type assignmentService struct {
	api       GradingAPI
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(api GradingAPI, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		api:       api,
		validator: validate,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context) ([]dto.AssignmentResponse, error) {
	assignments, err := s.api.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id string, includeContent bool) (dto.AssignmentResponse, error) {
	assignment, err := s.api.GetAssignment(ctx, id, includeContent)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, creatorID string, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.CreateReceiptResponse, error) {
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

	receipt, err := s.api.CreateAssignment(ctx, gradeapi.CreateAssignmentRequest{
		CreatorID:   creatorID,
		Title:       payload.Title,
		Description: payload.Description,
		File:        gradeapi.File{Name: file.Filename, Reader: src},
	})
	if err != nil {
		return dto.CreateReceiptResponse{}, err
	}

	s.logger.Info().Str("assignment_id", receipt.AssignmentID).Str("creator_id", creatorID).Msg("assignment created")

	return dto.CreateReceiptResponse{AssignmentID: receipt.AssignmentID, Status: receipt.Status}, nil
}

func (s *assignmentService) ListSubmissions(ctx context.Context, assignmentID string) ([]dto.SubmissionResponse, error) {
	submissions, err := s.api.ListAssignmentSubmissions(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// validatePDF sniffs the actual content; the filename extension is not
// trusted.
func validatePDF(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	if !mime.Is("application/pdf") {
		return ErrUnsupportedFileType
	}

	return nil
}
