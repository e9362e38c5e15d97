// Package sales maneja facturas, presupuestos, recibos y remitos.
package sales

import (
	"errors"

	"taller-backend/internal/catalog"
	"taller-backend/internal/database"
	"taller-backend/internal/ledger"
	"taller-backend/internal/models"
	"taller-backend/internal/numbering"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estados que admite cada tipo de comprobante
var (
	quoteStatuses    = []string{models.StatusPendiente, models.StatusAprobado, models.StatusRechazado, models.StatusFacturado}
	documentStatuses = []string{models.StatusPendienteDePago, models.StatusPagado, models.StatusAnulada}
)

func allowedStatus(t models.SaleType, status string) bool {
	list := documentStatuses
	if t == models.SaleTypePresupuesto {
		list = quoteStatuses
	}
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

// SaleResponse agrega el nombre del cliente y el estado a mostrar.
type SaleResponse struct {
	models.Sale
	CustomerName  string `json:"customer_name"`
	DisplayStatus string `json:"display_status"`
}

type saleRow struct {
	models.Sale
	CustomerName string
}

func toResponse(s models.Sale, customerName string) SaleResponse {
	return SaleResponse{
		Sale:          s,
		CustomerName:  customerName,
		DisplayStatus: ledger.DisplayStatus(s.Type, s.Status, s.Balance),
	}
}

// pricing es el resultado de aplicar las reglas de tipo y forma de pago.
type pricing struct {
	Items          []models.DocumentItem
	PaymentType    models.PaymentType
	PaymentMethods []models.PaymentMethodEntry
	Total          decimal.Decimal
	Status         string
	Balance        decimal.Decimal
}

// price calcula totales, estado inicial y saldo. collected es lo ya cobrado en cuenta corriente.
func price(org models.Organization, t models.SaleType, paymentType models.PaymentType, in []catalog.ItemInput, methods []models.PaymentMethodEntry, collected decimal.Decimal) (*pricing, error) {
	items, err := catalog.SaleItems(org, t, in)
	if err != nil {
		return nil, err
	}
	p := &pricing{Items: items, Total: ledger.SumItems(items)}

	switch {
	case t == models.SaleTypePresupuesto:
		p.PaymentType = models.PaymentNotApplicable
		p.Status = models.StatusPendiente
		p.Balance = p.Total

	case paymentType == models.PaymentCash:
		if err := ledger.ValidateMethods(methods); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := ledger.CheckCashBreakdown(p.Total, methods); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !collected.IsZero() {
			return nil, fiber.NewError(fiber.StatusConflict, "La venta tiene cobros registrados y no puede pasar a contado")
		}
		p.PaymentType = models.PaymentCash
		p.PaymentMethods = methods
		p.Status = models.StatusPagado
		p.Balance = decimal.Zero

	case paymentType == models.PaymentAccount || paymentType == "":
		p.PaymentType = models.PaymentAccount
		p.Balance = p.Total.Sub(collected)
		p.Status = ledger.StatusFor(p.Balance, ledger.SaleLabels)

	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "Forma de pago inválida")
	}
	return p, nil
}

func lockError(err error) error {
	if errors.Is(err, numbering.ErrLockTimeout) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "No se pudo reservar la numeración")
}

// saveError traduce el error de la transacción de alta.
func saveError(err error, msg string) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	if database.IsUniqueViolation(err) {
		return fiber.NewError(fiber.StatusConflict, "El número de comprobante ya existe")
	}
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}

// collectedFor suma los cobros persistidos de la venta.
func collectedFor(tx *gorm.DB, saleID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := tx.Model(&models.Collection{}).Where("sale_id = ?", saleID).Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

func loadOrganization(orgID uint) (models.Organization, error) {
	var org models.Organization
	if err := database.DB.First(&org, "id = ?", orgID).Error; err != nil {
		return org, fiber.NewError(fiber.StatusNotFound, "Taller no encontrado")
	}
	return org, nil
}

func findSale(db *gorm.DB, orgID, id uint) (*models.Sale, error) {
	var s models.Sale
	if err := db.Where("organization_id = ? AND id = ?", orgID, id).First(&s).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
	}
	return &s, nil
}
