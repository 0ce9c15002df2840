package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm/internal/domain"
)

const principalKey = "auth_principal"

// Middleware authenticates bearer tokens through the Guard.
type Middleware struct {
	guard *Guard
}

// NewMiddleware constructs middleware around guard. The guard's own token
// source is ignored; each request supplies its bearer token.
func NewMiddleware(guard *Guard) *Middleware {
	return &Middleware{guard: guard}
}

// Require enforces policy for the route and stores the caller in the context.
func (m *Middleware) Require(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := m.guard.WithSource(bearerToken(c)).Authorize(c.UserContext(), policy)
		if err != nil {
			return err
		}
		c.Locals(principalKey, user)
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated collaborator.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(principalKey).(*domain.User)
	return user, ok && user != nil
}

func bearerToken(c *fiber.Ctx) StaticToken {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return StaticToken(strings.TrimSpace(parts[1]))
}
