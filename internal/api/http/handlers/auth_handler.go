package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/labdesk/helpdesk/internal/api/dto"
	"github.com/labdesk/helpdesk/internal/auth"
	"github.com/labdesk/helpdesk/internal/service"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// AuthHandler exposes the identity endpoints consumed by the client.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "Registration successful. Check your e-mail for the confirmation code."})
}

// Confirm handles POST /auth/confirm.
func (h *AuthHandler) Confirm(c *fiber.Ctx) error {
	var req dto.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if err := h.auth.ConfirmSignUp(c.UserContext(), req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Account confirmed"})
}

// Resend handles POST /auth/resend.
func (h *AuthHandler) Resend(c *fiber.Ctx) error {
	var req dto.ResendRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if err := h.auth.ResendCode(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Code sent"})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(authResponse(result))
}

// NewPassword handles POST /auth/new-password.
func (h *AuthHandler) NewPassword(c *fiber.Ctx) error {
	var req dto.NewPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	result, err := h.auth.CompleteNewPassword(c.UserContext(), req.Email, req.Session, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(authResponse(result))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	user, groups, err := h.auth.Me(c.UserContext(), principal.Email)
	if err != nil {
		return err
	}
	if groups == nil {
		groups = []string{}
	}
	return c.JSON(dto.MeResponse{Email: user.Email, Name: user.Name, Groups: groups})
}

func authResponse(result service.LoginResult) dto.AuthResponse {
	if result.Challenge != "" {
		return dto.AuthResponse{Challenge: result.Challenge, Session: result.Session}
	}
	exp := result.ExpiresAt
	return dto.AuthResponse{IDToken: result.Token, ExpiresAt: &exp}
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}
