package middleware

import (
	"crypto/subtle"
	"log/slog"

	"inventory-sync-service/app/domain"
	"inventory-sync-service/app/handler/api/response"
	"inventory-sync-service/config"
	"inventory-sync-service/pkg"
	"inventory-sync-service/pkg/ctxutil"

	"github.com/gofiber/fiber/v2"
)

type AuthInternalHeader string

const (
	AuthInternalHeaderKey AuthInternalHeader = "X-Internal-Auth"
)

// AuthInternal guards operator routes with a shared header secret.
func AuthInternal(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(string(AuthInternalHeaderKey))
		if authHeader == "" {
			slog.WarnContext(c.Context(), "[middleware] AuthInternal", "header", "missing")
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}
		if subtle.ConstantTimeCompare([]byte(authHeader), []byte(cfg.InternalAuthHeader)) != 1 {
			slog.WarnContext(c.Context(), "[middleware] AuthInternal", "header", "mismatch")
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		return c.Next()
	}
}

// Auth requires a bearer JWT signed with secretKey that carries a user id.
func Auth(secretKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := pkg.GetTokenFromHeaders(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			slog.ErrorContext(c.Context(), "[middleware] Auth", "GetTokenFromHeaders", err)
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		claims, err := pkg.ParseJwtToken(token, secretKey)
		if err != nil {
			slog.ErrorContext(c.Context(), "[middleware] Auth", "ParseJwtToken", err)
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		if claims.UID == 0 {
			slog.ErrorContext(c.Context(), "[middleware] Auth", "userID", "0")
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		c.Locals(ctxutil.UserIDKey, claims.UID)
		return c.Next()
	}
}
