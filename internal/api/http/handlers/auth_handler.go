package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/queueflow/queue-service/internal/api/dto"
	"github.com/queueflow/queue-service/internal/auth"
	"github.com/queueflow/queue-service/internal/service"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// AuthHandler serves operator authentication.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler returns a new handler instance.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges email and password for an access token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.UserFromDomain(result.User),
	})
}

// ChangePassword rotates the authenticated operator's password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), user, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
