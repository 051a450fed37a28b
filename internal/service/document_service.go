package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/eduassign/eduassign-gateway/internal/dto"
)

// URLResolver exchanges a storage path for a directly fetchable URL.
// Implemented by *storage.Service.
type URLResolver interface {
	SignedURL(ctx context.Context, path string) (string, error)
}

// DocumentService turns opaque document references into viewable URLs.
type DocumentService interface {
	View(ctx context.Context, reference string) dto.DocumentViewResponse
}

type documentService struct {
	resolver URLResolver
	logger   zerolog.Logger
}

// NewDocumentService builds a new document service.
func NewDocumentService(resolver URLResolver, logger zerolog.Logger) DocumentService {
	return &documentService{
		resolver: resolver,
		logger:   logger.With().Str("component", "document_service").Logger(),
	}
}

// View resolves a document reference. Absolute http(s) references pass
// through untouched; anything else is treated as a storage path and signed.
// Resolution failure degrades to an error state carrying the original
// reference instead of failing the request.
func (s *documentService) View(ctx context.Context, reference string) dto.DocumentViewResponse {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return dto.DocumentViewResponse{
			Status:  dto.DocumentStatusError,
			Message: "no document is attached",
		}
	}

	resolved := reference
	if !strings.HasPrefix(reference, "http://") && !strings.HasPrefix(reference, "https://") {
		signed, err := s.resolver.SignedURL(ctx, reference)
		if err != nil {
			s.logger.Warn().Err(err).Str("reference", reference).Msg("failed to resolve document")
			return dto.DocumentViewResponse{
				Status:    dto.DocumentStatusError,
				Reference: reference,
				Message:   "the document could not be loaded",
			}
		}
		resolved = signed
	}

	return dto.DocumentViewResponse{
		Status:    dto.DocumentStatusLoaded,
		URL:       resolved,
		ViewerURL: viewerURL(resolved),
		Reference: reference,
	}
}

// viewerURL wraps PDF URLs in the Google Docs viewer so they render inline in
// browsers without a native PDF plugin. Non-PDF documents open directly.
func viewerURL(resolved string) string {
	trimmed := resolved
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if !strings.HasSuffix(strings.ToLower(trimmed), ".pdf") {
		return resolved
	}

	return "https://docs.google.com/viewer?embedded=true&url=" + url.QueryEscape(resolved)
}
