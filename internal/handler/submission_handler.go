package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/eduassign/eduassign-gateway/internal/dto"
	"github.com/eduassign/eduassign-gateway/internal/middleware"
	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/service"
	"github.com/eduassign/eduassign-gateway/internal/utils"
)

// SubmissionHandler wires submission HTTP routes.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *SubmissionHandler) Register(router fiber.Router, studentOnly, teacherOnly fiber.Handler) {
	router.Post("", studentOnly, h.create)
	router.Get("/:id", h.get)
	router.Get("/:id/status", h.status)
	router.Post("/:id/evaluate", teacherOnly, h.evaluate)
}

// RegisterStudentRoutes attaches the per-student listing under /students.
func (h *SubmissionHandler) RegisterStudentRoutes(router fiber.Router) {
	router.Get("/:studentId/submissions", h.listForStudent)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not signed in")
	}

	payload := dto.SubmissionCreateRequest{
		AssignmentID: c.FormValue("assignment_id"),
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	receipt, err := h.service.Create(c.UserContext(), user, payload, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "submission created", receipt)
}

// listForStudent serves a named student's submissions. Students may only
// list their own; teachers may list anyone's.
func (h *SubmissionHandler) listForStudent(c *fiber.Ctx) error {
	studentID, err := requiredParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not signed in")
	}
	if user.Role != models.RoleTeacher && user.ID != studentID {
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	}

	submissions, err := h.service.ListForStudent(c.UserContext(), studentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	includeContent := c.QueryBool("include_content")
	submission, err := h.service.Get(c.UserContext(), id, includeContent)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) status(c *fiber.Ctx) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.service.Status(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "status retrieved", status)
}

func (h *SubmissionHandler) evaluate(c *fiber.Ctx) error {
	id, err := requiredParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.service.RequestEvaluation(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "evaluation requested", status)
}
