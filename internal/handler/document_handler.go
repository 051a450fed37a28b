package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/eduassign/eduassign-gateway/internal/service"
	"github.com/eduassign/eduassign-gateway/internal/utils"
)

// DocumentHandler wires the document view route.
type DocumentHandler struct {
	service service.DocumentService
	logger  zerolog.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register attaches document endpoints to the router group.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Get("/view", h.view)
}

// view resolves a document reference to a viewable URL. Resolution failures
// come back as a 200 with an error-state payload so the page can degrade
// instead of breaking.
func (h *DocumentHandler) view(c *fiber.Ctx) error {
	reference := c.Query("path")
	resolved := h.service.View(c.UserContext(), reference)
	return utils.SendSuccess(c, "document resolved", resolved)
}
