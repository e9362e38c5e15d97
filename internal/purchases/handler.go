package purchases

import (
	"fmt"
	"strings"
	"time"

	"taller-backend/internal/audit"
	"taller-backend/internal/catalog"
	"taller-backend/internal/checks"
	"taller-backend/internal/database"
	"taller-backend/internal/ledger"
	"taller-backend/internal/metrics"
	"taller-backend/internal/models"
	"taller-backend/internal/numbering"
	"taller-backend/internal/scope"
	"taller-backend/internal/suppliers"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreatePurchaseRequest struct {
	SupplierID          uint                        `json:"supplier_id" validate:"required"`
	DocumentType        string                      `json:"document_type" validate:"required"`
	DocumentNumberParts DocumentNumberParts         `json:"document_number_parts"`
	PurchaseDate        string                      `json:"purchase_date"`
	DueDate             string                      `json:"due_date"`
	PaymentType         models.PaymentType          `json:"payment_type"`
	Items               []catalog.ItemInput         `json:"items" validate:"required,min=1,dive"`
	PaymentMethods      []models.PaymentMethodEntry `json:"payment_methods"`
	Notes               string                      `json:"notes" validate:"max=1000"`
	OrganizationID      *uint                       `json:"organization_id"`
}

type UpdatePurchaseRequest struct {
	PurchaseDate   string                      `json:"purchase_date"`
	DueDate        string                      `json:"due_date"`
	PaymentType    models.PaymentType          `json:"payment_type"`
	Items          []catalog.ItemInput         `json:"items" validate:"required,min=1,dive"`
	PaymentMethods []models.PaymentMethodEntry `json:"payment_methods"`
	Notes          string                      `json:"notes" validate:"max=1000"`
	Status         string                      `json:"status"`
}

func storeChecks(tx *gorm.DB, p *models.Purchase, holder string) error {
	if len(p.PaymentMethods) == 0 {
		return nil
	}
	src := checks.Source{
		OrganizationID: p.OrganizationID,
		Type:           models.CheckSourcePurchase,
		ID:             p.ID,
		CheckType:      models.CheckIssued,
		Holder:         holder,
		IssueDate:      p.PurchaseDate,
	}
	if err := checks.CreateForMethods(tx, src, p.PaymentMethods); err != nil {
		return err
	}
	return tx.Model(p).Update("payment_methods", p.PaymentMethods).Error
}

// POST /api/purchases
func CreatePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if !validDocumentType(body.DocumentType) {
			return fiber.NewError(fiber.StatusBadRequest, "Tipo de comprobante inválido")
		}

		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}
		supplier, err := suppliers.FindSupplier(caller.OrganizationID, body.SupplierID)
		if err != nil {
			return err
		}

		purchaseDate, err := validation.DateOr("purchase_date", body.PurchaseDate, time.Now())
		if err != nil {
			return err
		}
		dueDate, err := validation.OptionalDate("due_date", body.DueDate)
		if err != nil {
			return err
		}
		p, err := price(caller.OrganizationID, body.PaymentType, body.Items, body.PaymentMethods, decimal.Zero)
		if err != nil {
			return err
		}
		parts, err := numberParts(body.DocumentNumberParts)
		if err != nil {
			return err
		}

		unlock, err := numbering.Lock(c.UserContext(),
			numbering.PurchaseKey(caller.OrganizationID, supplier.ID, body.DocumentType, parts.PointOfSale))
		if err != nil {
			return lockError(err)
		}
		defer unlock()

		purchase := models.Purchase{
			OrganizationID: caller.OrganizationID,
			SupplierID:     supplier.ID,
			DocumentType:   body.DocumentType,
			Letter:         parts.Letter,
			PointOfSale:    parts.PointOfSale,
			PurchaseDate:   purchaseDate,
			DueDate:        dueDate,
			PaymentType:    p.PaymentType,
			Status:         p.Status,
			Items:          p.Items,
			PaymentMethods: p.PaymentMethods,
			Total:          p.Total,
			Balance:        p.Balance,
			Notes:          strings.TrimSpace(body.Notes),
			CreatedBy:      caller.UserID,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			number := parts.Number
			if number == "" {
				next, err := numbering.NextPurchaseNumber(tx, purchase.OrganizationID, supplier.ID, purchase.DocumentType, purchase.PointOfSale)
				if err != nil {
					return err
				}
				number = next
			}
			purchase.Number = number
			purchase.DocumentNumber = numbering.Format(purchase.Letter, purchase.PointOfSale, number)

			if err := tx.Create(&purchase).Error; err != nil {
				return err
			}
			if err := storeChecks(tx, &purchase, supplier.Name); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityPurchase, purchase.ID, models.AuditActionCreate,
				fmt.Sprintf("Compra %s %s de %s", purchase.DocumentType, purchase.DocumentNumber, supplier.Name), nil, purchase)
		})
		if err != nil {
			return saveError(err, "No se pudo guardar la compra")
		}

		metrics.DocumentCreated("purchase")
		return c.Status(fiber.StatusCreated).JSON(PurchaseResponse{purchase, supplier.Name})
	}
}

// GET /api/purchases?document_type=&status=&supplier_id=&from=&to=&search=
func ListPurchasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Purchase{}).
			Select("purchases.*, suppliers.name AS supplier_name").
			Joins("LEFT JOIN suppliers ON suppliers.id = purchases.supplier_id").
			Where("purchases.organization_id = ?", orgID)

		if v := c.Query("document_type"); v != "" {
			dbq = dbq.Where("purchases.document_type = ?", v)
		}
		if v := c.Query("status"); v != "" {
			dbq = dbq.Where("purchases.status = ?", v)
		}
		supplierID, err := scope.QueryUint(c, "supplier_id")
		if err != nil {
			return err
		}
		if supplierID != nil {
			dbq = dbq.Where("purchases.supplier_id = ?", *supplierID)
		}
		from, to, err := scope.DateRange(c)
		if err != nil {
			return err
		}
		if from != nil {
			dbq = dbq.Where("purchases.purchase_date >= ?", *from)
		}
		if to != nil {
			dbq = dbq.Where("purchases.purchase_date < ?", *to)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			dbq = dbq.Where("LOWER(purchases.document_number) LIKE ? OR LOWER(suppliers.name) LIKE ?", like, like)
		}

		var rows []purchaseRow
		if err := dbq.Order("purchases.purchase_date DESC, purchases.id DESC").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las compras")
		}

		res := make([]PurchaseResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, PurchaseResponse{r.Purchase, r.SupplierName})
		}
		return c.JSON(res)
	}
}

// GET /api/purchases/:id
func GetPurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		purchase, err := findPurchase(database.DB, orgID, id)
		if err != nil {
			return err
		}

		var supplier models.Supplier
		database.DB.Select("name").First(&supplier, "id = ?", purchase.SupplierID)

		var payments []models.Payment
		database.DB.Where("purchase_id = ?", purchase.ID).Order("payment_date DESC, id DESC").Find(&payments)

		var purchaseChecks []models.Check
		database.DB.Where("source_type = ? AND source_id = ?", models.CheckSourcePurchase, purchase.ID).Find(&purchaseChecks)

		return c.JSON(fiber.Map{
			"purchase": PurchaseResponse{*purchase, supplier.Name},
			"payments": payments,
			"checks":   purchaseChecks,
		})
	}
}

// PUT /api/purchases/:id
func UpdatePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		purchase, err := findPurchase(database.DB, caller.OrganizationID, id)
		if err != nil {
			return err
		}
		before := *purchase

		var body UpdatePurchaseRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		switch body.Status {
		case "", models.StatusAnulada, models.StatusPagada, models.StatusPendienteDePago:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Estado inválido para una compra")
		}

		purchaseDate, err := validation.DateOr("purchase_date", body.PurchaseDate, purchase.PurchaseDate)
		if err != nil {
			return err
		}
		dueDate, err := validation.OptionalDate("due_date", body.DueDate)
		if err != nil {
			return err
		}

		paid, err := paidFor(database.DB, purchase.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron leer los pagos")
		}
		paymentType := body.PaymentType
		if paymentType == "" {
			paymentType = purchase.PaymentType
		}
		p, err := price(caller.OrganizationID, paymentType, body.Items, body.PaymentMethods, paid)
		if err != nil {
			return err
		}

		var supplier models.Supplier
		database.DB.Select("name").First(&supplier, "id = ?", purchase.SupplierID)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			purchase.PurchaseDate = purchaseDate
			purchase.DueDate = dueDate
			purchase.PaymentType = p.PaymentType
			purchase.Items = p.Items
			purchase.PaymentMethods = p.PaymentMethods
			purchase.Total = p.Total
			purchase.Balance = p.Balance
			purchase.Status = p.Status
			purchase.Notes = strings.TrimSpace(body.Notes)

			if purchase.PaymentType == models.PaymentAccount {
				paid, err := paidFor(tx, purchase.ID)
				if err != nil {
					return err
				}
				purchase.Balance = purchase.Total.Sub(paid)
				purchase.Status = ledger.StatusFor(purchase.Balance, ledger.PurchaseLabels)
			}
			if body.Status == models.StatusAnulada || (body.Status == "" && before.Status == models.StatusAnulada) {
				purchase.Status = models.StatusAnulada
			}

			if err := checks.DeleteForSource(tx, models.CheckSourcePurchase, purchase.ID); err != nil {
				return err
			}
			if err := tx.Save(purchase).Error; err != nil {
				return err
			}
			if err := storeChecks(tx, purchase, supplier.Name); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityPurchase, purchase.ID, models.AuditActionUpdate,
				fmt.Sprintf("Compra %s actualizada", purchase.DocumentNumber), before, purchase)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la compra")
		}

		return c.JSON(PurchaseResponse{*purchase, supplier.Name})
	}
}

// DELETE /api/purchases/:id
func DeletePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		purchase, err := findPurchase(database.DB, caller.OrganizationID, id)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var paymentIDs []uint
			if err := tx.Model(&models.Payment{}).Where("purchase_id = ?", purchase.ID).Pluck("id", &paymentIDs).Error; err != nil {
				return err
			}
			if err := checks.DeleteForSources(tx, models.CheckSourcePayment, paymentIDs); err != nil {
				return err
			}
			if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&models.Payment{}).Error; err != nil {
				return err
			}
			if err := checks.DeleteForSource(tx, models.CheckSourcePurchase, purchase.ID); err != nil {
				return err
			}
			if err := tx.Delete(&models.Purchase{}, "id = ?", purchase.ID).Error; err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityPurchase, purchase.ID, models.AuditActionDelete,
				fmt.Sprintf("Compra %s eliminada (%d pagos)", purchase.DocumentNumber, len(paymentIDs)), purchase, nil)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la compra")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
