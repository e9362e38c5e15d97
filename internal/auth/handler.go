package auth

import (
	"strings"

	"taller-backend/internal/config"
	"taller-backend/internal/database"
	"taller-backend/internal/logger"
	"taller-backend/internal/models"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterSuperAdminRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SessionUser struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Role           models.UserRole `json:"role"`
	OrganizationID *uint           `json:"organization_id"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

type SessionOrganization struct {
	ID                     uint                 `json:"id"`
	Name                   string               `json:"name"`
	WorkPriceHour          string               `json:"work_price_hour"`
	SaleDocumentNumberMode models.NumberingMode `json:"sale_document_number_mode"`
}

type MeResponse struct {
	SessionUser
	Organization *SessionOrganization `json:"organization,omitempty"`
}

func sessionUser(u *models.User) SessionUser {
	return SessionUser{u.ID, u.Name, u.Email, u.Role, u.OrganizationID}
}

// CreateSuperAdmin sólo funciona mientras no exista otro. La usa también el CLI.
func CreateSuperAdmin(name, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if name == "" || email == "" || password == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Nombre, email y contraseña son obligatorios")
	}
	if len(password) < 8 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres")
	}

	var count int64
	if err := database.DB.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fiber.NewError(fiber.StatusForbidden, "Ya existe un super admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{Name: name, Email: email, PasswordHash: string(hash), Role: models.RoleSuperAdmin}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// POST /api/auth/register-super-admin
func RegisterSuperAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterSuperAdminRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		user, err := CreateSuperAdmin(body.Name, body.Email, body.Password)
		if err != nil {
			if _, ok := err.(*fiber.Error); ok {
				return err
			}
			logger.LogError("auth", "RegisterSuperAdminHandler", "crear super admin", body.Email, err)
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el usuario")
		}
		return c.Status(fiber.StatusCreated).JSON(sessionUser(user))
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		var user models.User
		email := strings.TrimSpace(strings.ToLower(body.Email))
		if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o contraseña incorrectos")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o contraseña incorrectos")
		}

		token, err := GenerateToken(cfg, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el token")
		}
		return c.JSON(LoginResponse{Token: token, User: sessionUser(&user)})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(CtxUserIDKey).(uint)

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Usuario no encontrado")
		}

		res := MeResponse{SessionUser: sessionUser(&user)}
		if user.OrganizationID != nil {
			var org models.Organization
			if err := database.DB.First(&org, "id = ?", *user.OrganizationID).Error; err == nil {
				res.Organization = &SessionOrganization{
					ID:                     org.ID,
					Name:                   org.Name,
					WorkPriceHour:          org.WorkPriceHour.StringFixed(2),
					SaleDocumentNumberMode: org.SaleDocumentNumberMode,
				}
			}
		}
		return c.JSON(res)
	}
}
