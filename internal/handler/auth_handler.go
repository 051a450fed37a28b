package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/eduassign/eduassign-gateway/internal/dto"
	"github.com/eduassign/eduassign-gateway/internal/identity"
	"github.com/eduassign/eduassign-gateway/internal/middleware"
	"github.com/eduassign/eduassign-gateway/internal/session"
	"github.com/eduassign/eduassign-gateway/internal/utils"
)

// AuthHandler wires the session endpoints.
type AuthHandler struct {
	sessions  *session.Manager
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(sessions *session.Manager, validator *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:  sessions,
		validator: validator,
		logger:    logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth endpoints to the router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/sign-up", h.signUp)
	router.Post("/sign-in", h.signIn)
	router.Post("/sign-out", h.signOut)
	router.Get("/me", h.me)
}

func (h *AuthHandler) signUp(c *fiber.Ctx) error {
	var payload dto.SignUpRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	state, err := h.sessions.SignUp(c.UserContext(), payload.Email, payload.Password, payload.Role, payload.Name)
	if err != nil {
		return h.authError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", dto.SessionResponse{
		Token: state.Token,
		User:  dto.NewUserResponse(state.User),
	})
}

func (h *AuthHandler) signIn(c *fiber.Ctx) error {
	var payload dto.SignInRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	state, err := h.sessions.SignIn(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return h.authError(c, err)
	}

	return utils.SendSuccess(c, "signed in", dto.SessionResponse{
		Token: state.Token,
		User:  dto.NewUserResponse(state.User),
	})
}

func (h *AuthHandler) signOut(c *fiber.Ctx) error {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not signed in")
	}

	if err := h.sessions.SignOut(c.UserContext(), claims); err != nil {
		h.logger.Error().Err(err).Msg("sign-out failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "signed out", nil)
}

// me reports the resolved session together with the landing path the client
// should route to after sign-in.
func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not signed in")
	}

	return utils.SendSuccess(c, "session resolved", fiber.Map{
		"user":         dto.NewUserResponse(user),
		"landing_path": middleware.LandingPath(user.Role),
	})
}

func (h *AuthHandler) authError(c *fiber.Ctx, err error) error {
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid email or password")
	}

	h.logger.Error().Err(err).Msg("auth flow failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
