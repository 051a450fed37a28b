package dto

import (
	"time"

	"github.com/eduassign/eduassign-gateway/internal/models"
)

// AssignmentCreateRequest describes the multipart fields for creating a new
// assignment; the creator is taken from the session, the PDF travels as a
// separate file part.
type AssignmentCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,min=3"`
	Description string `form:"description" json:"description" validate:"required,min=10"`
}

// AssignmentResponse is the serialized representation returned to clients.
type AssignmentResponse struct {
	ID                  string    `json:"id"`
	CreatorID           string    `json:"creator_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	DocumentURL         string    `json:"document_url"`
	CreatedAt           time.Time `json:"created_at"`
	Status              string    `json:"status"`
	ExtractedContent    string    `json:"extracted_content,omitempty"`
	HasExtractedContent bool      `json:"has_extracted_content,omitempty"`
}

// CreateReceiptResponse acknowledges a multipart create; the backend
// materialises the entity asynchronously.
type CreateReceiptResponse struct {
	AssignmentID string `json:"assignment_id,omitempty"`
	SubmissionID string `json:"submission_id,omitempty"`
	Status       string `json:"status"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                  model.ID,
		CreatorID:           model.CreatorID,
		Title:               model.Title,
		Description:         model.Description,
		DocumentURL:         model.DocumentURL,
		CreatedAt:           model.CreatedAt,
		Status:              model.Status,
		ExtractedContent:    model.ExtractedContent,
		HasExtractedContent: model.HasExtractedContent,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
