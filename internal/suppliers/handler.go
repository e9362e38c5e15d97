package suppliers

import (
	"fmt"
	"strings"

	"taller-backend/internal/audit"
	"taller-backend/internal/database"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type SupplierRequest struct {
	Name           string `json:"name" validate:"required,max=150"`
	TaxID          string `json:"tax_id" validate:"max=20"`
	ContactName    string `json:"contact_name" validate:"max=100"`
	Phone          string `json:"phone" validate:"max=50"`
	Email          string `json:"email" validate:"omitempty,email"`
	Address        string `json:"address" validate:"max=255"`
	OrganizationID *uint  `json:"organization_id"` // sólo super_admin
}

func (r SupplierRequest) apply(s *models.Supplier) {
	s.Name = strings.TrimSpace(r.Name)
	s.TaxID = strings.TrimSpace(r.TaxID)
	s.ContactName = strings.TrimSpace(r.ContactName)
	s.Phone = strings.TrimSpace(r.Phone)
	s.Email = strings.TrimSpace(r.Email)
	s.Address = strings.TrimSpace(r.Address)
}

func FindSupplier(orgID, id uint) (*models.Supplier, error) {
	var s models.Supplier
	if err := database.DB.Where("organization_id = ? AND id = ?", orgID, id).First(&s).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Proveedor no encontrado")
	}
	return &s, nil
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}

		supplier := models.Supplier{OrganizationID: caller.OrganizationID}
		body.apply(&supplier)

		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el proveedor")
		}

		_ = audit.Record(nil, caller, audit.EntitySupplier, supplier.ID, models.AuditActionCreate,
			fmt.Sprintf("Proveedor creado: %s", supplier.Name), nil, supplier)

		return c.Status(fiber.StatusCreated).JSON(supplier)
	}
}

// GET /api/suppliers?search=
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("organization_id = ?", orgID)
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(tax_id) LIKE ?", like, like)
		}

		var suppliers []models.Supplier
		if err := dbq.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los proveedores")
		}
		return c.JSON(suppliers)
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		supplier, err := FindSupplier(orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(supplier)
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		supplier, err := FindSupplier(caller.OrganizationID, id)
		if err != nil {
			return err
		}
		before := *supplier

		var body SupplierRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.apply(supplier)

		if err := database.DB.Save(supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el proveedor")
		}

		_ = audit.Record(nil, caller, audit.EntitySupplier, supplier.ID, models.AuditActionUpdate,
			fmt.Sprintf("Proveedor actualizado: %s", supplier.Name), before, supplier)

		return c.JSON(supplier)
	}
}

// DELETE /api/suppliers/:id
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		supplier, err := FindSupplier(caller.OrganizationID, id)
		if err != nil {
			return err
		}

		var purchases int64
		database.DB.Model(&models.Purchase{}).Where("supplier_id = ?", id).Count(&purchases)
		if purchases > 0 {
			return fiber.NewError(fiber.StatusConflict, "El proveedor tiene compras y no se puede eliminar")
		}

		if err := database.DB.Delete(&models.Supplier{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el proveedor")
		}

		_ = audit.Record(nil, caller, audit.EntitySupplier, supplier.ID, models.AuditActionDelete,
			fmt.Sprintf("Proveedor eliminado: %s", supplier.Name), supplier, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
