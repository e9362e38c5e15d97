// Package catalog maneja los productos y servicios que el taller vende y los que compra.
package catalog

import (
	"fmt"
	"strings"

	"taller-backend/internal/audit"
	"taller-backend/internal/database"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var defaultVAT = decimal.NewFromInt(21)

type SaleProductRequest struct {
	Name           string           `json:"name" validate:"required,max=150"`
	Description    string           `json:"description" validate:"max=500"`
	Category       string           `json:"category" validate:"required,max=60"`
	Price          decimal.Decimal  `json:"price" validate:"gte=0"`
	WorkHours      decimal.Decimal  `json:"work_hours" validate:"gte=0"`
	VAT            *decimal.Decimal `json:"vat" validate:"omitempty,gte=0,lte=100"`
	OrganizationID *uint            `json:"organization_id"`
}

type PurchaseProductRequest struct {
	Name           string           `json:"name" validate:"required,max=150"`
	Description    string           `json:"description" validate:"max=500"`
	Category       string           `json:"category" validate:"required,max=60"`
	Cost           decimal.Decimal  `json:"cost" validate:"gte=0"`
	VAT            *decimal.Decimal `json:"vat" validate:"omitempty,gte=0,lte=100"`
	OrganizationID *uint            `json:"organization_id"`
}

type SaleProductResponse struct {
	models.SaleProduct
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func vatOrDefault(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return defaultVAT
	}
	return *v
}

// WorkPriceHour devuelve el valor hora de mano de obra de la organización.
func WorkPriceHour(orgID uint) decimal.Decimal {
	var org models.Organization
	if err := database.DB.Select("work_price_hour").First(&org, "id = ?", orgID).Error; err != nil {
		return decimal.Zero
	}
	return org.WorkPriceHour
}

func FindSaleProduct(orgID, id uint) (*models.SaleProduct, error) {
	var p models.SaleProduct
	if err := database.DB.Where("organization_id = ? AND id = ?", orgID, id).First(&p).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
	}
	return &p, nil
}

func FindPurchaseProduct(orgID, id uint) (*models.PurchaseProduct, error) {
	var p models.PurchaseProduct
	if err := database.DB.Where("organization_id = ? AND id = ?", orgID, id).First(&p).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
	}
	return &p, nil
}

// ----------------------------------------
// PRODUCTOS DE VENTA
// ----------------------------------------

// POST /api/sale-products
func CreateSaleProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SaleProductRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}

		p := models.SaleProduct{
			OrganizationID: caller.OrganizationID,
			Name:           strings.TrimSpace(body.Name),
			Description:    strings.TrimSpace(body.Description),
			Category:       strings.TrimSpace(body.Category),
			Price:          body.Price,
			WorkHours:      body.WorkHours,
			VAT:            vatOrDefault(body.VAT),
		}
		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el producto")
		}

		_ = audit.Record(nil, caller, audit.EntitySaleProduct, p.ID, models.AuditActionCreate,
			fmt.Sprintf("Producto de venta creado: %s", p.Name), nil, p)

		return c.Status(fiber.StatusCreated).JSON(SaleProductResponse{p, p.UnitPrice(WorkPriceHour(p.OrganizationID))})
	}
}

// GET /api/sale-products?category=&search=
func ListSaleProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("organization_id = ?", orgID)
		if v := c.Query("category"); v != "" {
			dbq = dbq.Where("category = ?", v)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			dbq = dbq.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
		}

		var products []models.SaleProduct
		if err := dbq.Order("category, name").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los productos")
		}

		wph := WorkPriceHour(orgID)
		res := make([]SaleProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, SaleProductResponse{p, p.UnitPrice(wph)})
		}
		return c.JSON(res)
	}
}

// GET /api/sale-products/:id
func GetSaleProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		p, err := FindSaleProduct(orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(SaleProductResponse{*p, p.UnitPrice(WorkPriceHour(orgID))})
	}
}

// PUT /api/sale-products/:id
func UpdateSaleProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		p, err := FindSaleProduct(caller.OrganizationID, id)
		if err != nil {
			return err
		}
		before := *p

		var body SaleProductRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		p.Name = strings.TrimSpace(body.Name)
		p.Description = strings.TrimSpace(body.Description)
		p.Category = strings.TrimSpace(body.Category)
		p.Price = body.Price
		p.WorkHours = body.WorkHours
		if body.VAT != nil {
			p.VAT = *body.VAT
		}

		if err := database.DB.Save(p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el producto")
		}

		_ = audit.Record(nil, caller, audit.EntitySaleProduct, p.ID, models.AuditActionUpdate,
			fmt.Sprintf("Producto de venta actualizado: %s", p.Name), before, p)

		return c.JSON(SaleProductResponse{*p, p.UnitPrice(WorkPriceHour(caller.OrganizationID))})
	}
}

// DELETE /api/sale-products/:id
func DeleteSaleProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		p, err := FindSaleProduct(caller.OrganizationID, id)
		if err != nil {
			return err
		}

		// Los comprobantes guardan copia de la descripción y el precio, así que se puede borrar.
		if err := database.DB.Delete(&models.SaleProduct{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el producto")
		}

		_ = audit.Record(nil, caller, audit.EntitySaleProduct, p.ID, models.AuditActionDelete,
			fmt.Sprintf("Producto de venta eliminado: %s", p.Name), p, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// PRODUCTOS DE COMPRA
// ----------------------------------------

// POST /api/purchase-products
func CreatePurchaseProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PurchaseProductRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}

		p := models.PurchaseProduct{
			OrganizationID: caller.OrganizationID,
			Name:           strings.TrimSpace(body.Name),
			Description:    strings.TrimSpace(body.Description),
			Category:       strings.TrimSpace(body.Category),
			Cost:           body.Cost,
			VAT:            vatOrDefault(body.VAT),
		}
		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el producto")
		}

		_ = audit.Record(nil, caller, audit.EntityPurchaseProduct, p.ID, models.AuditActionCreate,
			fmt.Sprintf("Producto de compra creado: %s", p.Name), nil, p)

		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GET /api/purchase-products?category=&search=
func ListPurchaseProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("organization_id = ?", orgID)
		if v := c.Query("category"); v != "" {
			dbq = dbq.Where("category = ?", v)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			dbq = dbq.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
		}

		var products []models.PurchaseProduct
		if err := dbq.Order("category, name").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los productos")
		}
		return c.JSON(products)
	}
}

// GET /api/purchase-products/:id
func GetPurchaseProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		p, err := FindPurchaseProduct(orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

// PUT /api/purchase-products/:id
func UpdatePurchaseProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		p, err := FindPurchaseProduct(caller.OrganizationID, id)
		if err != nil {
			return err
		}
		before := *p

		var body PurchaseProductRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		p.Name = strings.TrimSpace(body.Name)
		p.Description = strings.TrimSpace(body.Description)
		p.Category = strings.TrimSpace(body.Category)
		p.Cost = body.Cost
		if body.VAT != nil {
			p.VAT = *body.VAT
		}

		if err := database.DB.Save(p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el producto")
		}

		_ = audit.Record(nil, caller, audit.EntityPurchaseProduct, p.ID, models.AuditActionUpdate,
			fmt.Sprintf("Producto de compra actualizado: %s", p.Name), before, p)

		return c.JSON(p)
	}
}

// DELETE /api/purchase-products/:id
func DeletePurchaseProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		p, err := FindPurchaseProduct(caller.OrganizationID, id)
		if err != nil {
			return err
		}

		if err := database.DB.Delete(&models.PurchaseProduct{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el producto")
		}

		_ = audit.Record(nil, caller, audit.EntityPurchaseProduct, p.ID, models.AuditActionDelete,
			fmt.Sprintf("Producto de compra eliminado: %s", p.Name), p, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
