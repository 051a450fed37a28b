package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/eduassign/eduassign-gateway/internal/dto"
	"github.com/eduassign/eduassign-gateway/internal/middleware"
	"github.com/eduassign/eduassign-gateway/internal/service"
	"github.com/eduassign/eduassign-gateway/internal/utils"
)

// FeedbackHandler wires the feedback review routes.
type FeedbackHandler struct {
	service service.FeedbackService
	logger  zerolog.Logger
}

// NewFeedbackHandler constructs the handler.
func NewFeedbackHandler(service service.FeedbackService, logger zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		logger:  logger.With().Str("component", "feedback_handler").Logger(),
	}
}

// Register attaches feedback endpoints to the router group. The draft and
// approval routes are teacher-only.
func (h *FeedbackHandler) Register(router fiber.Router, teacherOnly fiber.Handler) {
	router.Get("/:id/feedback", h.get)
	router.Post("/:id/feedback/draft", teacherOnly, h.openDraft)
	router.Patch("/:id/feedback/draft", teacherOnly, h.edit)
	router.Delete("/:id/feedback/draft", teacherOnly, h.discardDraft)
	router.Post("/:id/feedback/draft/save", teacherOnly, h.saveDraft)
	router.Post("/:id/feedback/approve", teacherOnly, h.approve)
}

func (h *FeedbackHandler) get(c *fiber.Ctx) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not signed in")
	}

	feedback, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback retrieved", feedback)
}

func (h *FeedbackHandler) openDraft(c *fiber.Ctx) error {
	id, user, ok, failed := h.draftTarget(c)
	if !ok {
		return failed
	}

	draft, err := h.service.OpenDraft(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "draft opened", draft)
}

func (h *FeedbackHandler) edit(c *fiber.Ctx) error {
	id, user, ok, failed := h.draftTarget(c)
	if !ok {
		return failed
	}

	var payload dto.FeedbackEditRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	draft, err := h.service.Edit(c.UserContext(), user, id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "draft updated", draft)
}

func (h *FeedbackHandler) discardDraft(c *fiber.Ctx) error {
	id, user, ok, failed := h.draftTarget(c)
	if !ok {
		return failed
	}

	if err := h.service.DiscardDraft(c.UserContext(), user, id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "draft discarded", nil)
}

func (h *FeedbackHandler) saveDraft(c *fiber.Ctx) error {
	id, user, ok, failed := h.draftTarget(c)
	if !ok {
		return failed
	}

	feedback, err := h.service.SaveDraft(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback saved", feedback)
}

func (h *FeedbackHandler) approve(c *fiber.Ctx) error {
	id, user, ok, failed := h.draftTarget(c)
	if !ok {
		return failed
	}

	feedback, err := h.service.Approve(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback approved", feedback)
}

// draftTarget binds the submission id and acting teacher shared by every
// draft route. When ok is false the response has already been written and
// the handler returns failed as-is.
func (h *FeedbackHandler) draftTarget(c *fiber.Ctx) (id, teacherID string, ok bool, failed error) {
	id, err := requiredParam(c, "id")
	if err != nil {
		return "", "", false, utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, signedIn := middleware.CurrentUser(c)
	if !signedIn {
		return "", "", false, utils.SendError(c, fiber.StatusUnauthorized, "not signed in")
	}

	return id, user.ID, true, nil
}
