// Package workorders maneja las órdenes de trabajo del taller.
package workorders

import (
	"strings"

	"taller-backend/internal/catalog"
	"taller-backend/internal/ledger"
	"taller-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var defaultVAT = decimal.NewFromInt(21)

type PartInput struct {
	ProductID *uint            `json:"product_id"`
	Name      string           `json:"name" validate:"max=150"`
	Quantity  decimal.Decimal  `json:"quantity" validate:"gt=0"`
	Price     *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
}

type ItemInput struct {
	ProductID   *uint            `json:"product_id"`
	Description string           `json:"description" validate:"max=500"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"gt=0"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Discount    decimal.Decimal  `json:"discount" validate:"gte=0,lte=100"`
	VAT         *decimal.Decimal `json:"vat" validate:"omitempty,gte=0,lte=100"`
}

func validStatus(s string) bool {
	for _, v := range models.WorkOrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// buildParts: el precio por defecto de un repuesto es horas de trabajo por valor hora.
func buildParts(org models.Organization, in []PartInput) ([]models.WorkOrderPart, error) {
	parts := make([]models.WorkOrderPart, 0, len(in))
	for _, p := range in {
		part := models.WorkOrderPart{ProductID: p.ProductID, Name: strings.TrimSpace(p.Name), Quantity: p.Quantity}
		if p.ProductID != nil {
			prod, err := catalog.FindSaleProduct(org.ID, *p.ProductID)
			if err != nil {
				return nil, err
			}
			if part.Name == "" {
				part.Name = prod.Name
			}
			part.Price = prod.UnitPrice(org.WorkPriceHour)
		}
		if part.Name == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Cada repuesto necesita un producto o un nombre")
		}
		if p.Price != nil {
			part.Price = *p.Price
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func buildItems(org models.Organization, in []ItemInput) ([]models.WorkOrderItem, error) {
	items := make([]models.WorkOrderItem, 0, len(in))
	for _, it := range in {
		item := models.WorkOrderItem{
			ProductID:   it.ProductID,
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			Discount:    it.Discount,
			VAT:         defaultVAT,
		}
		if it.ProductID != nil {
			prod, err := catalog.FindSaleProduct(org.ID, *it.ProductID)
			if err != nil {
				return nil, err
			}
			if item.Description == "" {
				item.Description = prod.Name
			}
			item.Price = prod.UnitPrice(org.WorkPriceHour)
			item.VAT = prod.VAT
		}
		if item.Description == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Cada ítem necesita un producto o una descripción")
		}
		if it.Price != nil {
			item.Price = *it.Price
		}
		if it.VAT != nil {
			item.VAT = *it.VAT
		}
		item.Total = ledger.LineTotal(item.Price, item.Discount, item.Quantity, item.VAT)
		items = append(items, item)
	}
	return items, nil
}

// FinalCost = repuestos (cantidad por precio) más el total de servicios y productos.
func FinalCost(parts []models.WorkOrderPart, services, products []models.WorkOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p.Quantity.Mul(p.Price))
	}
	for _, it := range services {
		total = total.Add(it.Total)
	}
	for _, it := range products {
		total = total.Add(it.Total)
	}
	return total.Round(2)
}
