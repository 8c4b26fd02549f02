package middleware

import (
	"errors"
	"strings"

	"nearby-jobs/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const ctxPrincipalKey = "principal"

// Principal is the authenticated caller of a write endpoint.
type Principal struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// PrincipalFrom returns the caller stored by the auth middleware.
func PrincipalFrom(c fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(ctxPrincipalKey).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}

type AuthMiddleware struct {
	jwt jwt.Service
}

func NewAuthMiddleware(jwtSvc jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return Unauthorized("Unauthorized", nil)
		}

		claims, err := m.jwt.ValidateToken(token)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Unauthorized("Token expired", err)
		case err != nil:
			return Unauthorized("Invalid token", err)
		case claims.TokenType != jwt.TokenTypeAccess:
			return Unauthorized("Invalid token", nil)
		}

		c.Locals(ctxPrincipalKey, Principal{UserID: claims.UserID, IsAdmin: claims.IsAdmin()})
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
