package admin

import (
	"strings"

	"taller-backend/internal/audit"
	"taller-backend/internal/database"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type OrganizationResponse struct {
	ID                     uint                 `json:"id"`
	Name                   string               `json:"name"`
	TaxID                  string               `json:"tax_id"`
	Address                string               `json:"address"`
	Phone                  string               `json:"phone"`
	Email                  string               `json:"email"`
	WorkPriceHour          decimal.Decimal      `json:"work_price_hour"`
	SaleDocumentNumberMode models.NumberingMode `json:"sale_document_number_mode"`
	CreatedAt              string               `json:"created_at"`
}

type CreateOrganizationRequest struct {
	Name                   string               `json:"name" validate:"required,max=150"`
	TaxID                  string               `json:"tax_id" validate:"max=20"`
	Address                string               `json:"address"`
	Phone                  *string              `json:"phone"`
	Email                  string               `json:"email" validate:"omitempty,email"`
	WorkPriceHour          decimal.Decimal      `json:"work_price_hour" validate:"gte=0"`
	SaleDocumentNumberMode models.NumberingMode `json:"sale_document_number_mode" validate:"omitempty,oneof=automatic manual"`
}

type UpdateOrganizationRequest struct {
	Name                   *string               `json:"name"`
	TaxID                  *string               `json:"tax_id"`
	Address                *string               `json:"address"`
	Phone                  *string               `json:"phone"`
	Email                  *string               `json:"email" validate:"omitempty,email"`
	WorkPriceHour          *decimal.Decimal      `json:"work_price_hour" validate:"omitempty,gte=0"`
	SaleDocumentNumberMode *models.NumberingMode `json:"sale_document_number_mode" validate:"omitempty,oneof=automatic manual"`
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type UserResponse struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Role           models.UserRole `json:"role"`
	OrganizationID *uint           `json:"organization_id"`
	CreatedAt      string          `json:"created_at"`
}

func toOrganizationResponse(o models.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:                     o.ID,
		Name:                   o.Name,
		TaxID:                  o.TaxID,
		Address:                o.Address,
		Phone:                  o.Phone,
		Email:                  o.Email,
		WorkPriceHour:          o.WorkPriceHour,
		SaleDocumentNumberMode: o.SaleDocumentNumberMode,
		CreatedAt:              o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func applyOrganizationUpdate(org *models.Organization, body UpdateOrganizationRequest) error {
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre del taller no puede estar vacío")
		}
		org.Name = name
	}
	if body.TaxID != nil {
		org.TaxID = strings.TrimSpace(*body.TaxID)
	}
	if body.Address != nil {
		org.Address = *body.Address
	}
	if body.Phone != nil {
		org.Phone = strings.TrimSpace(*body.Phone)
	}
	if body.Email != nil {
		org.Email = strings.TrimSpace(*body.Email)
	}
	if body.WorkPriceHour != nil {
		org.WorkPriceHour = *body.WorkPriceHour
	}
	if body.SaleDocumentNumberMode != nil {
		org.SaleDocumentNumberMode = *body.SaleDocumentNumberMode
	}
	return nil
}

// ----------------------------------------
// TALLERES (super admin)
// ----------------------------------------

func CreateOrganizationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrganizationRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		org := models.Organization{
			Name:                   strings.TrimSpace(body.Name),
			TaxID:                  strings.TrimSpace(body.TaxID),
			Address:                body.Address,
			Email:                  strings.TrimSpace(body.Email),
			WorkPriceHour:          body.WorkPriceHour,
			SaleDocumentNumberMode: body.SaleDocumentNumberMode,
		}
		if body.Phone != nil {
			org.Phone = strings.TrimSpace(*body.Phone)
		}
		if org.SaleDocumentNumberMode == "" {
			org.SaleDocumentNumberMode = models.NumberingAutomatic
		}

		if err := database.DB.Create(&org).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "Ya existe un taller con ese nombre")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el taller")
		}

		return c.Status(fiber.StatusCreated).JSON(toOrganizationResponse(org))
	}
}

func ListOrganizationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var orgs []models.Organization
		if err := database.DB.Order("name").Find(&orgs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los talleres")
		}

		res := make([]OrganizationResponse, 0, len(orgs))
		for _, o := range orgs {
			res = append(res, toOrganizationResponse(o))
		}
		return c.JSON(res)
	}
}

func GetOrganizationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		var org models.Organization
		if err := database.DB.First(&org, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Taller no encontrado")
		}
		return c.JSON(toOrganizationResponse(org))
	}
}

func UpdateOrganizationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		var org models.Organization
		if err := database.DB.First(&org, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Taller no encontrado")
		}

		var body UpdateOrganizationRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if err := applyOrganizationUpdate(&org, body); err != nil {
			return err
		}

		if err := database.DB.Save(&org).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el taller")
		}
		return c.JSON(toOrganizationResponse(org))
	}
}

func DeleteOrganizationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		// Un taller con comprobantes no se borra: se perdería la contabilidad.
		var docs int64
		database.DB.Model(&models.Sale{}).Where("organization_id = ?", id).Count(&docs)
		if docs == 0 {
			database.DB.Model(&models.Purchase{}).Where("organization_id = ?", id).Count(&docs)
		}
		if docs > 0 {
			return fiber.NewError(fiber.StatusConflict, "El taller tiene comprobantes y no se puede eliminar")
		}

		if err := database.DB.Delete(&models.Organization{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el taller")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// USUARIOS DEL TALLER
// ----------------------------------------

func createUser(orgID uint, role models.UserRole, body CreateUserRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(body.Email))

	var exist models.User
	if err := database.DB.Where("email = ?", email).First(&exist).Error; err == nil {
		return nil, fiber.NewError(fiber.StatusConflict, "El email ya está registrado")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "No se pudo procesar la contraseña")
	}

	user := models.User{
		Name:           strings.TrimSpace(body.Name),
		Email:          email,
		PasswordHash:   string(hash),
		Role:           role,
		OrganizationID: &orgID,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el usuario")
	}
	return &user, nil
}

// POST /api/admin/organizations/:id/admin
func CreateOrganizationAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		var org models.Organization
		if err := database.DB.First(&org, "id = ?", orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Taller no encontrado")
		}

		var body CreateUserRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		user, err := createUser(org.ID, models.RoleOrgAdmin, body)
		if err != nil {
			return err
		}

		// La contraseña sólo se devuelve esta vez.
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":              user.ID,
			"name":            user.Name,
			"email":           user.Email,
			"role":            user.Role,
			"organization_id": user.OrganizationID,
			"password":        body.Password,
		})
	}
}

// GET /api/admin/organizations/:id/admins
func ListOrganizationAdminsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		var users []models.User
		if err := database.DB.
			Where("organization_id = ? AND role = ?", orgID, models.RoleOrgAdmin).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los administradores")
		}

		res := make([]UserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, UserResponse{
				ID:             u.ID,
				Name:           u.Name,
				Email:          u.Email,
				Role:           u.Role,
				OrganizationID: u.OrganizationID,
				CreatedAt:      u.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}

// ----------------------------------------
// CONFIGURACIÓN DEL PROPIO TALLER
// ----------------------------------------

// GET /api/organization/settings
func GetSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		var org models.Organization
		if err := database.DB.First(&org, "id = ?", orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Taller no encontrado")
		}
		return c.JSON(toOrganizationResponse(org))
	}
}

// PUT /api/organization/settings (org_admin)
func UpdateSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}

		var org models.Organization
		if err := database.DB.First(&org, "id = ?", caller.OrganizationID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Taller no encontrado")
		}
		before := org

		var body UpdateOrganizationRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if err := applyOrganizationUpdate(&org, body); err != nil {
			return err
		}

		if err := database.DB.Save(&org).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar la configuración")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: caller.OrgPtr(),
			UserID:         caller.UserID,
			UserName:       caller.UserName,
			EntityType:     audit.EntityOrganization,
			EntityID:       org.ID,
			Action:         models.AuditActionUpdate,
			Description:    "Configuración del taller actualizada",
			Before:         toOrganizationResponse(before),
			After:          toOrganizationResponse(org),
		})

		return c.JSON(toOrganizationResponse(org))
	}
}

// POST /api/organization/users (org_admin)
func CreateOrganizationUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}

		var body CreateUserRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		user, err := createUser(caller.OrganizationID, models.RoleOrgUser, body)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: caller.OrgPtr(),
			UserID:         caller.UserID,
			UserName:       caller.UserName,
			EntityType:     audit.EntityUser,
			EntityID:       user.ID,
			Action:         models.AuditActionCreate,
			Description:    "Usuario creado: " + user.Email,
		})

		return c.Status(fiber.StatusCreated).JSON(UserResponse{
			ID:             user.ID,
			Name:           user.Name,
			Email:          user.Email,
			Role:           user.Role,
			OrganizationID: user.OrganizationID,
			CreatedAt:      user.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}
