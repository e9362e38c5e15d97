package checks

import (
	"fmt"

	"taller-backend/internal/audit"
	"taller-backend/internal/database"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func findCheck(orgID, id uint) (*models.Check, error) {
	var check models.Check
	if err := database.DB.Where("organization_id = ? AND id = ?", orgID, id).First(&check).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Cheque no encontrado")
	}
	return &check, nil
}

// GET /api/checks?type=recibido&status=en_cartera
func ListChecksHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("organization_id = ?", orgID)
		if v := c.Query("type"); v != "" {
			dbq = dbq.Where("type = ?", v)
		}
		if v := c.Query("status"); v != "" {
			dbq = dbq.Where("status = ?", v)
		}

		var list []models.Check
		if err := dbq.Order("due_date asc, id asc").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los cheques")
		}
		return c.JSON(list)
	}
}

// GET /api/checks/:id
func GetCheckHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		check, err := findCheck(orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(check)
	}
}

// PUT /api/checks/:id/status
func UpdateCheckStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		check, err := findCheck(caller.OrganizationID, id)
		if err != nil {
			return err
		}

		var body UpdateStatusRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if !ValidStatus(body.Status) {
			return fiber.NewError(fiber.StatusBadRequest, "Estado de cheque inválido")
		}

		before := *check
		check.Status = body.Status
		if err := database.DB.Model(check).Update("status", body.Status).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el cheque")
		}

		_ = audit.Record(nil, caller, audit.EntityCheck, check.ID, models.AuditActionUpdate,
			fmt.Sprintf("Cheque %s: %s -> %s", check.CheckNumber, before.Status, check.Status), before, check)

		return c.JSON(check)
	}
}
