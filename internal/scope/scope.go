// Package scope resuelve a qué organización pertenece cada request.
package scope

import (
	"strconv"
	"time"

	"taller-backend/internal/auth"
	"taller-backend/internal/database"
	"taller-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func Role(c *fiber.Ctx) models.UserRole {
	role, _ := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
	return role
}

// Organization: los usuarios de un taller usan la organización del token; el super admin
// debe indicarla con explicit (body) o con ?organization_id=.
func Organization(c *fiber.Ctx, explicit *uint) (uint, error) {
	role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "No se pudo obtener el rol")
	}

	if role != models.RoleSuperAdmin {
		orgID, ok := c.Locals(auth.CtxOrganizationIDKey).(*uint)
		if !ok || orgID == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "El usuario no pertenece a ningún taller")
		}
		return *orgID, nil
	}

	if explicit != nil && *explicit != 0 {
		return *explicit, nil
	}

	raw := c.Query("organization_id")
	if raw == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "organization_id es obligatorio")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "organization_id inválido")
	}
	return uint(id), nil
}

type Caller struct {
	UserID         uint
	UserName       string
	OrganizationID uint
}

// Resolve junta organización y usuario para escribir el audit log.
func Resolve(c *fiber.Ctx, explicit *uint) (Caller, error) {
	orgID, err := Organization(c, explicit)
	if err != nil {
		return Caller{}, err
	}

	userID, _ := c.Locals(auth.CtxUserIDKey).(uint)
	caller := Caller{UserID: userID, OrganizationID: orgID}

	var user models.User
	if err := database.DB.Select("name").First(&user, userID).Error; err == nil {
		caller.UserName = user.Name
	}
	return caller, nil
}

// OrgPtr devuelve un puntero para los campos opcionales (audit log).
func (c Caller) OrgPtr() *uint {
	id := c.OrganizationID
	return &id
}

// ParamID lee un id numérico de la ruta.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id inválido")
	}
	return uint(id), nil
}

// QueryUint lee un filtro numérico opcional del query string.
func QueryUint(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, name+" inválido")
	}
	v := uint(id)
	return &v, nil
}

// DateRange lee ?from= y ?to= (2006-01-02). "to" incluye el día completo.
func DateRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if v := c.Query("from"); v != "" {
		t, perr := time.Parse("2006-01-02", v)
		if perr != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "from inválido, formato AAAA-MM-DD")
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, perr := time.Parse("2006-01-02", v)
		if perr != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "to inválido, formato AAAA-MM-DD")
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}
	return from, to, nil
}
