// Package purchases maneja los comprobantes de compra a proveedores.
package purchases

import (
	"errors"
	"strings"

	"taller-backend/internal/catalog"
	"taller-backend/internal/database"
	"taller-backend/internal/ledger"
	"taller-backend/internal/models"
	"taller-backend/internal/numbering"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tipos de comprobante de proveedor
var documentTypes = []string{"Factura", "Nota de Crédito", "Nota de Débito", "Remito", "Recibo", "Ticket"}

func validDocumentType(t string) bool {
	for _, v := range documentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DocumentNumberParts es el número impreso en el comprobante del proveedor.
type DocumentNumberParts struct {
	Letter      string `json:"letter"`
	PointOfSale string `json:"point_of_sale"`
	Number      string `json:"number"`
}

type PurchaseResponse struct {
	models.Purchase
	SupplierName string `json:"supplier_name"`
}

type purchaseRow struct {
	models.Purchase
	SupplierName string
}

type pricing struct {
	Items          []models.DocumentItem
	PaymentType    models.PaymentType
	PaymentMethods []models.PaymentMethodEntry
	Total          decimal.Decimal
	Status         string
	Balance        decimal.Decimal
}

// price calcula totales, estado y saldo. paid es lo ya pagado en cuenta corriente.
func price(orgID uint, paymentType models.PaymentType, in []catalog.ItemInput, methods []models.PaymentMethodEntry, paid decimal.Decimal) (*pricing, error) {
	items, err := catalog.PurchaseItems(orgID, in)
	if err != nil {
		return nil, err
	}
	p := &pricing{Items: items, Total: ledger.SumItems(items)}

	switch paymentType {
	case models.PaymentCash:
		if err := ledger.ValidateMethods(methods); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := ledger.CheckCashBreakdown(p.Total, methods); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !paid.IsZero() {
			return nil, fiber.NewError(fiber.StatusConflict, "La compra tiene pagos registrados y no puede pasar a contado")
		}
		p.PaymentType = models.PaymentCash
		p.PaymentMethods = methods
		p.Status = models.StatusPagada
		p.Balance = decimal.Zero
	case models.PaymentAccount, "":
		p.PaymentType = models.PaymentAccount
		p.Balance = p.Total.Sub(paid)
		p.Status = ledger.StatusFor(p.Balance, ledger.PurchaseLabels)
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "Forma de pago inválida")
	}
	return p, nil
}

// numberParts normaliza letra y punto de venta; el número queda vacío si hay que asignarlo.
func numberParts(in DocumentNumberParts) (DocumentNumberParts, error) {
	pos, err := numbering.NormalizePointOfSale(in.PointOfSale)
	if err != nil {
		return in, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	out := DocumentNumberParts{Letter: numbering.PurchaseLetter(in.Letter), PointOfSale: pos}
	if strings.TrimSpace(in.Number) != "" {
		n, err := numbering.NormalizeNumber(in.Number)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "El número de comprobante debe ser numérico")
		}
		out.Number = n
	}
	return out, nil
}

func paidFor(tx *gorm.DB, purchaseID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := tx.Model(&models.Payment{}).Where("purchase_id = ?", purchaseID).Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

func findPurchase(db *gorm.DB, orgID, id uint) (*models.Purchase, error) {
	var p models.Purchase
	if err := db.Where("organization_id = ? AND id = ?", orgID, id).First(&p).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Compra no encontrada")
	}
	return &p, nil
}

func lockError(err error) error {
	if errors.Is(err, numbering.ErrLockTimeout) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "No se pudo reservar la numeración")
}

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
