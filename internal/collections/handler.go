package collections

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"taller-backend/internal/audit"
	"taller-backend/internal/checks"
	"taller-backend/internal/database"
	"taller-backend/internal/ledger"
	"taller-backend/internal/logger"
	"taller-backend/internal/metrics"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CreateCollectionRequest struct {
	SaleID         uint                 `json:"sale_id" validate:"required"`
	CollectionDate string               `json:"collection_date"`
	Amount         decimal.Decimal      `json:"amount" validate:"gt=0"`
	Method         string               `json:"method" validate:"required"`
	CheckDetails   *models.CheckDetails `json:"check_details"`
	Notes          string               `json:"notes" validate:"max=500"`
	OrganizationID *uint                `json:"organization_id"`
}

type UpdateCollectionRequest struct {
	CollectionDate string               `json:"collection_date"`
	Amount         *decimal.Decimal     `json:"amount" validate:"omitempty,gt=0"`
	Method         string               `json:"method"`
	CheckDetails   *models.CheckDetails `json:"check_details"`
	Notes          *string              `json:"notes" validate:"omitempty,max=500"`
}

type CollectionResponse struct {
	Collection  models.Collection `json:"collection"`
	SaleBalance decimal.Decimal   `json:"sale_balance"`
	SaleStatus  string            `json:"sale_status"`
}

// validateMethod controla el medio de pago y, si es cheque, sus datos.
func validateMethod(method string, details *models.CheckDetails, amount decimal.Decimal) error {
	entry := models.PaymentMethodEntry{Method: method, Amount: amount, CheckDetails: details}
	if err := ledger.ValidateMethods([]models.PaymentMethodEntry{entry}); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), "medio de pago 1: "))
	}
	return nil
}

func applyCheckDetails(col *models.Collection, details *models.CheckDetails) {
	col.CheckNumber, col.CheckBank, col.CheckDueDate = "", "", nil
	if col.Method != models.MethodCheque || details == nil {
		return
	}
	col.CheckNumber = strings.TrimSpace(details.CheckNumber)
	col.CheckBank = strings.TrimSpace(details.Bank)
	col.CheckDueDate, _ = validation.ParseDate(details.DueDate)
}

// storeCheck vuelve a generar el cheque del cobro.
func storeCheck(tx *gorm.DB, col *models.Collection, holder string) error {
	if err := checks.DeleteForSource(tx, models.CheckSourceCollection, col.ID); err != nil {
		return err
	}
	if col.Method != models.MethodCheque {
		return nil
	}
	src := checks.Source{
		OrganizationID: col.OrganizationID,
		Type:           models.CheckSourceCollection,
		ID:             col.ID,
		CheckType:      models.CheckReceived,
		Holder:         holder,
		IssueDate:      col.CollectionDate,
	}
	_, err := checks.Create(tx, src, col.CheckNumber, col.CheckBank, col.Amount, col.CheckDueDate)
	return err
}

// saveSale guarda saldo y estado. Una venta anulada conserva su estado.
func saveSale(tx *gorm.DB, sale *models.Sale, r ledger.Result) error {
	sale.Balance = r.Balance
	if sale.Status != models.StatusAnulada {
		sale.Status = r.Status
	}
	if r.Balance.IsNegative() {
		logger.Get().WithFields(logrus.Fields{
			"sale_id": sale.ID,
			"balance": r.Balance.StringFixed(2),
		}).Warn("cobro mayor al saldo de la venta")
	}
	return tx.Model(sale).Updates(map[string]any{"balance": sale.Balance, "status": sale.Status}).Error
}

func customerName(id uint) string {
	var c models.Customer
	database.DB.Select("name").First(&c, "id = ?", id)
	return c.Name
}

// persistedID rechaza los ids virtuales de ventas de contado.
func persistedID(c *fiber.Ctx, action string) (uint, error) {
	raw := c.Params("id")
	if IsVirtualID(raw) {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Los cobros de ventas de contado no se pueden "+action)
	}
	id, ok := ParseID(raw)
	if !ok {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id inválido")
	}
	return id, nil
}

// POST /api/collections
func CreateCollectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCollectionRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if err := validateMethod(body.Method, body.CheckDetails, body.Amount); err != nil {
			return err
		}

		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}
		date, err := validation.DateOr("collection_date", body.CollectionDate, time.Now())
		if err != nil {
			return err
		}

		var sale models.Sale
		if err := database.DB.Where("organization_id = ? AND id = ?", caller.OrganizationID, body.SaleID).First(&sale).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
		}
		if sale.PaymentType != models.PaymentAccount {
			return fiber.NewError(fiber.StatusBadRequest, "Sólo se registran cobros de ventas en cuenta corriente")
		}
		if sale.Status == models.StatusAnulada {
			return fiber.NewError(fiber.StatusConflict, "La venta está anulada")
		}
		holder := customerName(sale.CustomerID)

		col := models.Collection{
			OrganizationID: caller.OrganizationID,
			SaleID:         sale.ID,
			CustomerID:     sale.CustomerID,
			CollectionDate: date,
			Amount:         body.Amount,
			Method:         body.Method,
			Notes:          strings.TrimSpace(body.Notes),
			CreatedBy:      caller.UserID,
		}
		applyCheckDetails(&col, body.CheckDetails)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// Saldo actualizado dentro de la transacción
			if err := tx.First(&sale, "id = ?", sale.ID).Error; err != nil {
				return err
			}
			r, err := ledger.Apply(sale.Balance, col.Amount, ledger.SaleLabels)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			if err := tx.Create(&col).Error; err != nil {
				return err
			}
			if err := storeCheck(tx, &col, holder); err != nil {
				return err
			}
			if err := saveSale(tx, &sale, r); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityCollection, col.ID, models.AuditActionCreate,
				fmt.Sprintf("Cobro de $%s a %s", col.Amount.StringFixed(2), sale.SaleNumber), nil, col)
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo registrar el cobro")
		}

		metrics.LedgerOperation("collection", "apply")
		return c.Status(fiber.StatusCreated).JSON(CollectionResponse{col, sale.Balance, sale.Status})
	}
}

// PUT /api/collections/:id
func UpdateCollectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := persistedID(c, "editar")
		if err != nil {
			return err
		}
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}

		var col models.Collection
		if err := database.DB.Where("organization_id = ? AND id = ?", caller.OrganizationID, id).First(&col).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cobro no encontrado")
		}
		before := col

		var body UpdateCollectionRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		newAmount := col.Amount
		if body.Amount != nil {
			newAmount = *body.Amount
		}
		method := col.Method
		if body.Method != "" {
			method = body.Method
		}
		details := body.CheckDetails
		if details == nil && method == col.Method && col.Method == models.MethodCheque {
			details = &models.CheckDetails{CheckNumber: col.CheckNumber, Bank: col.CheckBank}
			if col.CheckDueDate != nil {
				details.DueDate = col.CheckDueDate.Format("2006-01-02")
			}
		}
		if err := validateMethod(method, details, newAmount); err != nil {
			return err
		}
		date, err := validation.DateOr("collection_date", body.CollectionDate, col.CollectionDate)
		if err != nil {
			return err
		}

		var sale models.Sale
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&sale, "id = ?", col.SaleID).Error; err != nil {
				return err
			}
			if !newAmount.Equal(col.Amount) {
				r, err := ledger.Adjust(sale.Balance, col.Amount, newAmount, sale.Status, ledger.SaleLabels)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, err.Error())
				}
				if err := saveSale(tx, &sale, r); err != nil {
					return err
				}
			}

			col.Amount = newAmount
			col.Method = method
			col.CollectionDate = date
			if body.Notes != nil {
				col.Notes = strings.TrimSpace(*body.Notes)
			}
			applyCheckDetails(&col, details)

			if err := tx.Save(&col).Error; err != nil {
				return err
			}
			var customer models.Customer
			tx.Select("name").First(&customer, "id = ?", col.CustomerID)
			if err := storeCheck(tx, &col, customer.Name); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityCollection, col.ID, models.AuditActionUpdate,
				fmt.Sprintf("Cobro actualizado en %s", sale.SaleNumber), before, col)
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el cobro")
		}

		if !before.Amount.Equal(col.Amount) {
			metrics.LedgerOperation("collection", "adjust")
		}
		return c.JSON(CollectionResponse{col, sale.Balance, sale.Status})
	}
}

// DELETE /api/collections/:id
// Devuelve el monto al saldo de la venta y borra el cheque asociado.
func DeleteCollectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := persistedID(c, "eliminar")
		if err != nil {
			return err
		}
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}

		var col models.Collection
		if err := database.DB.Where("organization_id = ? AND id = ?", caller.OrganizationID, id).First(&col).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cobro no encontrado")
		}

		var sale models.Sale
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&sale, "id = ?", col.SaleID).Error; err != nil {
				return err
			}
			r := ledger.Reverse(sale.Balance, col.Amount, sale.Status, ledger.SaleLabels)
			if err := checks.DeleteForSource(tx, models.CheckSourceCollection, col.ID); err != nil {
				return err
			}
			if err := tx.Delete(&models.Collection{}, "id = ?", col.ID).Error; err != nil {
				return err
			}
			if err := saveSale(tx, &sale, r); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityCollection, col.ID, models.AuditActionDelete,
				fmt.Sprintf("Cobro de $%s eliminado de %s", col.Amount.StringFixed(2), sale.SaleNumber), col, nil)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el cobro")
		}

		metrics.LedgerOperation("collection", "reverse")
		return c.JSON(fiber.Map{"sale_balance": sale.Balance, "sale_status": sale.Status})
	}
}

// GET /api/collections?customer_id=&from=&to=
func ListCollectionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		customerID, err := scope.QueryUint(c, "customer_id")
		if err != nil {
			return err
		}
		from, to, err := scope.DateRange(c)
		if err != nil {
			return err
		}

		rows, err := History(database.DB, orgID, Filter{CustomerID: customerID, From: from, To: to})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los cobros")
		}
		return c.JSON(rows)
	}
}

// GET /api/collections/pending?customer_id=
func ListPendingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		customerID, err := scope.QueryUint(c, "customer_id")
		if err != nil {
			return err
		}

		list, err := Pending(database.DB, orgID, customerID, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las ventas pendientes")
		}
		return c.JSON(list)
	}
}
