package sales

import (
	"errors"
	"fmt"

	"taller-backend/internal/audit"
	"taller-backend/internal/database"
	"taller-backend/internal/metrics"
	"taller-backend/internal/models"
	"taller-backend/internal/numbering"
	"taller-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/sales/next-number?type=Factura&point_of_sale=1&letter=B
// Muestra el próximo número sin reservarlo.
func NextNumberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		t := models.SaleType(c.Query("type", string(models.SaleTypeFactura)))
		if !t.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "Tipo de comprobante inválido")
		}
		pos, err := numbering.NormalizePointOfSale(c.Query("point_of_sale"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		next, err := numbering.NextSaleNumber(database.DB, orgID, t, pos)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo calcular el número")
		}
		letter := numbering.NormalizeLetter(t, c.Query("letter"))

		return c.JSON(fiber.Map{
			"type":          t,
			"letter":        letter,
			"point_of_sale": pos,
			"number":        next,
			"sale_number":   numbering.Format(letter, pos, next),
		})
	}
}

// POST /api/sales/:id/convert-to-invoice
// Crea una factura A en cuenta corriente con los ítems del presupuesto.
func ConvertToInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		quote, err := findSale(database.DB, caller.OrganizationID, id)
		if err != nil {
			return err
		}
		if quote.Type != models.SaleTypePresupuesto {
			return fiber.NewError(fiber.StatusBadRequest, "Sólo se pueden facturar presupuestos")
		}
		if quote.Status == models.StatusFacturado {
			return fiber.NewError(fiber.StatusConflict, "El presupuesto ya fue facturado")
		}

		var customer models.Customer
		database.DB.Select("name").First(&customer, "id = ?", quote.CustomerID)

		unlock, err := numbering.Lock(c.UserContext(), numbering.SaleKey(caller.OrganizationID, string(models.SaleTypeFactura), quote.PointOfSale))
		if err != nil {
			return lockError(err)
		}
		defer unlock()

		invoice := models.Sale{
			OrganizationID: quote.OrganizationID,
			CustomerID:     quote.CustomerID,
			Type:           models.SaleTypeFactura,
			Letter:         "A",
			PointOfSale:    quote.PointOfSale,
			SaleDate:       quote.SaleDate,
			DueDate:        quote.DueDate,
			PaymentType:    models.PaymentAccount,
			Status:         models.StatusPendienteDePago,
			Items:          quote.Items,
			Total:          quote.Total,
			Balance:        quote.Total,
			Notes:          quote.Notes,
			SourceSaleID:   &quote.ID,
			CreatedBy:      caller.UserID,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// Otro request pudo facturarlo mientras esperábamos el lock.
			var current models.Sale
			if err := tx.Select("status").First(&current, "id = ?", quote.ID).Error; err != nil {
				return err
			}
			if current.Status == models.StatusFacturado {
				return fiber.NewError(fiber.StatusConflict, "El presupuesto ya fue facturado")
			}

			number, err := numbering.NextSaleNumber(tx, invoice.OrganizationID, invoice.Type, invoice.PointOfSale)
			if err != nil {
				return err
			}
			invoice.Number = number
			invoice.SaleNumber = numbering.Format(invoice.Letter, invoice.PointOfSale, number)

			if err := tx.Create(&invoice).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Sale{}).Where("id = ?", quote.ID).Update("status", models.StatusFacturado).Error; err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntitySale, invoice.ID, models.AuditActionCreate,
				fmt.Sprintf("Presupuesto %s facturado como %s", quote.SaleNumber, invoice.SaleNumber), nil, invoice)
		})
		if err != nil {
			return saveError(err, "No se pudo facturar el presupuesto")
		}

		metrics.DocumentCreated("sale")
		return c.Status(fiber.StatusCreated).JSON(toResponse(invoice, customer.Name))
	}
}

var ErrQuoteChanged = errors.New("el presupuesto cambió de estado, volvé a cargarlo")

// transitionQuote sólo cambia presupuestos que siguen pendientes: una conversión
// concurrente pudo facturarlo entre la lectura y la escritura.
func transitionQuote(db *gorm.DB, id uint, status string) error {
	res := db.Model(&models.Sale{}).
		Where("id = ? AND type = ? AND status = ?", id, models.SaleTypePresupuesto, models.StatusPendiente).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrQuoteChanged
	}
	return nil
}

func setQuoteStatus(status string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		quote, err := findSale(database.DB, caller.OrganizationID, id)
		if err != nil {
			return err
		}
		if quote.Type != models.SaleTypePresupuesto || quote.Status != models.StatusPendiente {
			return fiber.NewError(fiber.StatusBadRequest, "Sólo se pueden aprobar o rechazar presupuestos pendientes")
		}

		before := *quote
		quote.Status = status
		if err := transitionQuote(database.DB, quote.ID, status); err != nil {
			if errors.Is(err, ErrQuoteChanged) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el presupuesto")
		}

		_ = audit.Record(nil, caller, audit.EntitySale, quote.ID, models.AuditActionUpdate,
			fmt.Sprintf("Presupuesto %s: %s", quote.SaleNumber, status), before, quote)

		var customer models.Customer
		database.DB.Select("name").First(&customer, "id = ?", quote.CustomerID)
		return c.JSON(toResponse(*quote, customer.Name))
	}
}

// POST /api/sales/:id/approve
func ApproveQuoteHandler() fiber.Handler {
	return setQuoteStatus(models.StatusAprobado)
}

// POST /api/sales/:id/reject
func RejectQuoteHandler() fiber.Handler {
	return setQuoteStatus(models.StatusRechazado)
}
