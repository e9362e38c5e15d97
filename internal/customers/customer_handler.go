package customers

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

// -------------------------
// Request Types
// -------------------------

type CustomerRequest struct {
	Name           string `json:"name" validate:"required,max=150"`
	TaxID          string `json:"tax_id" validate:"max=20"`
	TaxCondition   string `json:"tax_condition" validate:"max=50"`
	Phone          string `json:"phone" validate:"max=50"`
	Email          string `json:"email" validate:"omitempty,email"`
	Address        string `json:"address" validate:"max=255"`
	Notes          string `json:"notes" validate:"max=1000"`
	OrganizationID *uint  `json:"organization_id"` // sólo super_admin
}

func (r CustomerRequest) apply(c *models.Customer) {
	c.Name = strings.TrimSpace(r.Name)
	c.TaxID = strings.TrimSpace(r.TaxID)
	c.TaxCondition = strings.TrimSpace(r.TaxCondition)
	c.Phone = strings.TrimSpace(r.Phone)
	c.Email = strings.TrimSpace(r.Email)
	c.Address = strings.TrimSpace(r.Address)
	c.Notes = r.Notes
}

// FindCustomer busca el cliente dentro de la organización; de otra organización es 404.
func FindCustomer(orgID, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := database.DB.Where("organization_id = ? AND id = ?", orgID, id).First(&customer).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Cliente no encontrado")
	}
	return &customer, nil
}

// -------------------------
// Customer CRUD
// -------------------------

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CustomerRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}

		customer := models.Customer{OrganizationID: caller.OrganizationID}
		body.apply(&customer)

		if err := database.DB.Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el cliente")
		}

		_ = audit.Record(nil, caller, audit.EntityCustomer, customer.ID, models.AuditActionCreate,
			fmt.Sprintf("Cliente creado: %s", customer.Name), nil, customer)

		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

// GET /api/customers?search=
func ListCustomersHandler() fiber.Handler {
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

		var customers []models.Customer
		if err := dbq.Order("name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los clientes")
		}
		return c.JSON(customers)
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		customer, err := FindCustomer(orgID, id)
		if err != nil {
			return err
		}

		var vehicles []models.Vehicle
		database.DB.Where("organization_id = ? AND customer_id = ?", orgID, id).Order("plate").Find(&vehicles)

		return c.JSON(fiber.Map{
			"customer": customer,
			"vehicles": vehicles,
		})
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		customer, err := FindCustomer(caller.OrganizationID, id)
		if err != nil {
			return err
		}
		before := *customer

		var body CustomerRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.apply(customer)

		if err := database.DB.Save(customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el cliente")
		}

		_ = audit.Record(nil, caller, audit.EntityCustomer, customer.ID, models.AuditActionUpdate,
			fmt.Sprintf("Cliente actualizado: %s", customer.Name), before, customer)

		return c.JSON(customer)
	}
}

// DELETE /api/customers/:id
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		customer, err := FindCustomer(caller.OrganizationID, id)
		if err != nil {
			return err
		}

		var sales, vehicles, orders int64
		database.DB.Model(&models.Sale{}).Where("customer_id = ?", id).Count(&sales)
		database.DB.Model(&models.Vehicle{}).Where("customer_id = ?", id).Count(&vehicles)
		database.DB.Model(&models.WorkOrder{}).Where("customer_id = ?", id).Count(&orders)
		if sales > 0 || vehicles > 0 || orders > 0 {
			return fiber.NewError(fiber.StatusConflict,
				"El cliente tiene ventas, vehículos u órdenes de trabajo y no se puede eliminar")
		}

		if err := database.DB.Delete(&models.Customer{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el cliente")
		}

		_ = audit.Record(nil, caller, audit.EntityCustomer, customer.ID, models.AuditActionDelete,
			fmt.Sprintf("Cliente eliminado: %s", customer.Name), customer, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
