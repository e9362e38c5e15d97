package auth

import (
	"errors"

	"taller-backend/internal/config"
	"taller-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey         = "user_id"
	CtxUserRoleKey       = "user_role"
	CtxOrganizationIDKey = "organization_id"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, err := ParseToken(cfg.JWTSecret, raw)
		if err != nil {
			if errors.Is(err, ErrNoTenant) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxOrganizationIDKey, claims.OrganizationID)
		return c.Next()
	}
}

// RequireRole deja pasar sólo a los roles indicados.
func RequireRole(allowed ...models.UserRole) fiber.Handler {
	set := make(map[models.UserRole]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "No se pudo obtener el rol")
		}
		if _, ok := set[role]; !ok {
			return fiber.NewError(fiber.StatusForbidden, "No tenés permisos para esta operación")
		}
		return c.Next()
	}
}
