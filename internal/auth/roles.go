package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// RequireAdmin ensures the caller belongs to the administrative group.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.IsAdmin {
			return apperrors.NewForbidden("administrator role required")
		}
		return c.Next()
	}
}

// RequireAuth ensures a principal was attached by AuthMiddleware.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
