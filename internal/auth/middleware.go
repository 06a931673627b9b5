package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID  string
	Email   string
	Name    string
	Groups  []string
	IsAdmin bool
}

// AuthMiddleware validates id tokens and stores the principal on the request.
type AuthMiddleware struct {
	tokens     *TokenManager
	adminGroup string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, adminGroup string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, adminGroup: adminGroup}
}

// Handle enforces authentication for protected routes. The Authorization header
// carries the raw token; a "Bearer " prefix is accepted too.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}
	if parts := strings.SplitN(token, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		token = strings.TrimSpace(parts[1])
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if claims.Email == "" {
		return apperrors.NewUnauthorized("token has no email claim")
	}

	principal := &Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Groups: claims.Groups,
	}
	for _, g := range claims.Groups {
		if g == m.adminGroup {
			principal.IsAdmin = true
			break
		}
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
