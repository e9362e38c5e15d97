package catalog

import (
	"strings"

	"taller-backend/internal/ledger"
	"taller-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ItemInput es una línea tal como llega en el body de ventas y compras.
type ItemInput struct {
	ProductID   *uint            `json:"product_id"`
	VehicleID   *uint            `json:"vehicle_id"`
	Description string           `json:"description" validate:"max=500"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price" validate:"omitempty,gte=0"`
	IVA         *decimal.Decimal `json:"iva" validate:"omitempty,gte=0,lte=100"`
}

// SaleItems arma las líneas de una venta. El precio por defecto es el precio de lista del
// producto con el valor hora del taller; el IVA por defecto es 21, salvo en recibos.
func SaleItems(org models.Organization, t models.SaleType, in []ItemInput) ([]models.DocumentItem, error) {
	items := make([]models.DocumentItem, 0, len(in))
	for _, it := range in {
		desc := strings.TrimSpace(it.Description)
		price := decimal.Zero
		vat := defaultVAT
		if t == models.SaleTypeRecibo {
			vat = decimal.Zero
		}

		if it.ProductID != nil {
			p, err := FindSaleProduct(org.ID, *it.ProductID)
			if err != nil {
				return nil, err
			}
			if desc == "" {
				desc = p.Name
			}
			price = p.UnitPrice(org.WorkPriceHour)
			if t != models.SaleTypeRecibo {
				vat = p.VAT
			}
		}
		if desc == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Cada ítem necesita un producto o una descripción")
		}
		if it.UnitPrice != nil {
			price = *it.UnitPrice
		}
		if it.IVA != nil {
			vat = *it.IVA
		}

		items = append(items, models.DocumentItem{
			ProductID:   it.ProductID,
			VehicleID:   it.VehicleID,
			Description: desc,
			Quantity:    it.Quantity,
			UnitPrice:   price,
			IVA:         vat,
			Total:       ledger.ItemTotal(it.Quantity, price, vat),
		})
	}
	return items, nil
}

// PurchaseItems arma las líneas de una compra con el costo del producto como precio por defecto.
func PurchaseItems(orgID uint, in []ItemInput) ([]models.DocumentItem, error) {
	items := make([]models.DocumentItem, 0, len(in))
	for _, it := range in {
		desc := strings.TrimSpace(it.Description)
		price := decimal.Zero
		vat := defaultVAT

		if it.ProductID != nil {
			p, err := FindPurchaseProduct(orgID, *it.ProductID)
			if err != nil {
				return nil, err
			}
			if desc == "" {
				desc = p.Name
			}
			price = p.Cost
			vat = p.VAT
		}
		if desc == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Cada ítem necesita un producto o una descripción")
		}
		if it.UnitPrice != nil {
			price = *it.UnitPrice
		}
		if it.IVA != nil {
			vat = *it.IVA
		}

		items = append(items, models.DocumentItem{
			ProductID:   it.ProductID,
			Description: desc,
			Quantity:    it.Quantity,
			UnitPrice:   price,
			IVA:         vat,
			Total:       ledger.ItemTotal(it.Quantity, price, vat),
		})
	}
	return items, nil
}
