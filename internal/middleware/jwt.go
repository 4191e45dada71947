package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ledgerpay/ledgerpay/internal/auth"
	"github.com/ledgerpay/ledgerpay/internal/config"
	"github.com/ledgerpay/ledgerpay/internal/owners"
)

// OwnerIDKey is the request-local key carrying the authenticated owner id.
const OwnerIDKey = "owner_id"

// JWTAuth returns a middleware that validates access tokens and resolves the
// owner they were issued to.
func JWTAuth(cfg config.Config, repo owners.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(cfg.JWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		if exp, _ := claims["exp"].(float64); exp != 0 && time.Now().Unix() > int64(exp) {
			return fiber.NewError(http.StatusUnauthorized, "token expired")
		}
		sub, _ := claims["sub"].(string)

		owner, err := repo.FindByID(c.UserContext(), sub)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "owner not found")
		}

		c.Locals(OwnerIDKey, owner.ID)
		return c.Next()
	}
}
