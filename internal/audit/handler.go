package audit

import (
	"errors"
	"strconv"

	"taller-backend/internal/auth"
	"taller-backend/internal/database"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID             uint               `json:"id"`
	CreatedAt      string             `json:"created_at"`
	OrganizationID *uint              `json:"organization_id"`
	UserID         uint               `json:"user_id"`
	UserName       string             `json:"user_name"`
	EntityType     string             `json:"entity_type"`
	EntityID       uint               `json:"entity_id"`
	Action         models.AuditAction `json:"action"`
	Description    string             `json:"description"`
	IsUndone       bool               `json:"is_undone"`
	UndoneBy       *uint              `json:"undone_by"`
	UndoneAt       *string            `json:"undone_at"`
}

// GET /api/audit-logs?entity_type=customer&entity_id=1&user_id=2&limit=100
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.AuditLog{}).Where("organization_id = ?", orgID)

		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		entityID, err := scope.QueryUint(c, "entity_id")
		if err != nil {
			return err
		}
		if entityID != nil {
			dbq = dbq.Where("entity_id = ?", *entityID)
		}
		userID, err := scope.QueryUint(c, "user_id")
		if err != nil {
			return err
		}
		if userID != nil {
			dbq = dbq.Where("user_id = ?", *userID)
		}

		limit := 200
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			var undoneAt *string
			if l.UndoneAt != nil {
				formatted := l.UndoneAt.Format("2006-01-02 15:04:05")
				undoneAt = &formatted
			}
			resp = append(resp, AuditLogResponse{
				ID:             l.ID,
				CreatedAt:      l.CreatedAt.Format("2006-01-02 15:04:05"),
				OrganizationID: l.OrganizationID,
				UserID:         l.UserID,
				UserName:       l.UserName,
				EntityType:     l.EntityType,
				EntityID:       l.EntityID,
				Action:         l.Action,
				Description:    l.Description,
				IsUndone:       l.IsUndone,
				UndoneBy:       l.UndoneBy,
				UndoneAt:       undoneAt,
			})
		}

		return c.JSON(resp)
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		userID, ok := c.Locals(auth.CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "No se pudo obtener el usuario")
		}

		role := scope.Role(c)
		if role != models.RoleSuperAdmin && role != models.RoleOrgAdmin {
			return fiber.NewError(fiber.StatusForbidden, "No tenés permisos para revertir operaciones")
		}

		var entry models.AuditLog
		if err := database.DB.First(&entry, "id = ?", logID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Log no encontrado")
		}

		if role == models.RoleOrgAdmin {
			orgID, err := scope.Organization(c, nil)
			if err != nil {
				return err
			}
			if entry.OrganizationID == nil || *entry.OrganizationID != orgID {
				return fiber.NewError(fiber.StatusForbidden, "Sólo podés revertir operaciones de tu taller")
			}
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Usuario no encontrado")
		}

		if err := UndoLog(logID, userID, user.Name); err != nil {
			switch {
			case errors.Is(err, ErrNotUndoable), errors.Is(err, ErrInUse), errors.Is(err, ErrAlreadyUndone):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(fiber.Map{
			"message": "Operación revertida",
		})
	}
}
