package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm/internal/api/dto"
	"github.com/spec-kit/crm/internal/service"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// AuthHandler issues bearer tokens.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login. The token is returned, never stored server side.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, issued, err := h.auth.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"collaborator": dto.FromUser(user),
			"auth":         dto.AuthResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt},
		},
	})
}
