package payments

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

type CreatePaymentRequest struct {
	PurchaseID     uint                 `json:"purchase_id" validate:"required"`
	PaymentDate    string               `json:"payment_date"`
	Amount         decimal.Decimal      `json:"amount" validate:"gt=0"`
	Method         string               `json:"method" validate:"required"`
	CheckDetails   *models.CheckDetails `json:"check_details"`
	Notes          string               `json:"notes" validate:"max=500"`
	OrganizationID *uint                `json:"organization_id"`
}

type UpdatePaymentRequest struct {
	PaymentDate    string               `json:"payment_date"`
	Amount         *decimal.Decimal     `json:"amount" validate:"omitempty,gt=0"`
	Method         string               `json:"method"`
	CheckDetails   *models.CheckDetails `json:"check_details"`
	Notes          *string              `json:"notes" validate:"omitempty,max=500"`
}

type PaymentResponse struct {
	Payment         models.Payment  `json:"payment"`
	PurchaseBalance decimal.Decimal `json:"purchase_balance"`
	PurchaseStatus  string          `json:"purchase_status"`
}

// validateMethod controla el medio de pago y, si es cheque, sus datos.
func validateMethod(method string, details *models.CheckDetails, amount decimal.Decimal) error {
	entry := models.PaymentMethodEntry{Method: method, Amount: amount, CheckDetails: details}
	if err := ledger.ValidateMethods([]models.PaymentMethodEntry{entry}); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), "medio de pago 1: "))
	}
	return nil
}

func applyCheckDetails(pay *models.Payment, details *models.CheckDetails) {
	pay.CheckNumber, pay.CheckBank, pay.CheckDueDate = "", "", nil
	if pay.Method != models.MethodCheque || details == nil {
		return
	}
	pay.CheckNumber = strings.TrimSpace(details.CheckNumber)
	pay.CheckBank = strings.TrimSpace(details.Bank)
	pay.CheckDueDate, _ = validation.ParseDate(details.DueDate)
}

// storeCheck vuelve a generar el cheque del pago.
func storeCheck(tx *gorm.DB, pay *models.Payment, holder string) error {
	if err := checks.DeleteForSource(tx, models.CheckSourcePayment, pay.ID); err != nil {
		return err
	}
	if pay.Method != models.MethodCheque {
		return nil
	}
	src := checks.Source{
		OrganizationID: pay.OrganizationID,
		Type:           models.CheckSourcePayment,
		ID:             pay.ID,
		CheckType:      models.CheckIssued,
		Holder:         holder,
		IssueDate:      pay.PaymentDate,
	}
	_, err := checks.Create(tx, src, pay.CheckNumber, pay.CheckBank, pay.Amount, pay.CheckDueDate)
	return err
}

// savePurchase guarda saldo y estado. Una compra anulada conserva su estado.
func savePurchase(tx *gorm.DB, purchase *models.Purchase, r ledger.Result) error {
	purchase.Balance = r.Balance
	if purchase.Status != models.StatusAnulada {
		purchase.Status = r.Status
	}
	if r.Balance.IsNegative() {
		logger.Get().WithFields(logrus.Fields{
			"purchase_id": purchase.ID,
			"balance":     r.Balance.StringFixed(2),
		}).Warn("pago mayor al saldo de la compra")
	}
	return tx.Model(purchase).Updates(map[string]any{"balance": purchase.Balance, "status": purchase.Status}).Error
}

func supplierName(id uint) string {
	var s models.Supplier
	database.DB.Select("name").First(&s, "id = ?", id)
	return s.Name
}

// persistedID rechaza los ids virtuales de compras de contado.
func persistedID(c *fiber.Ctx, action string) (uint, error) {
	raw := c.Params("id")
	if IsVirtualID(raw) {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Los pagos de compras de contado no se pueden "+action)
	}
	id, ok := ParseID(raw)
	if !ok {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id inválido")
	}
	return id, nil
}

// POST /api/payments
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePaymentRequest
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
		date, err := validation.DateOr("payment_date", body.PaymentDate, time.Now())
		if err != nil {
			return err
		}

		var purchase models.Purchase
		if err := database.DB.Where("organization_id = ? AND id = ?", caller.OrganizationID, body.PurchaseID).First(&purchase).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Compra no encontrada")
		}
		if purchase.PaymentType != models.PaymentAccount {
			return fiber.NewError(fiber.StatusBadRequest, "Sólo se registran pagos de compras en cuenta corriente")
		}
		if purchase.Status == models.StatusAnulada {
			return fiber.NewError(fiber.StatusConflict, "La compra está anulada")
		}
		holder := supplierName(purchase.SupplierID)

		pay := models.Payment{
			OrganizationID: caller.OrganizationID,
			PurchaseID:     purchase.ID,
			SupplierID:     purchase.SupplierID,
			PaymentDate:    date,
			Amount:         body.Amount,
			Method:         body.Method,
			Notes:          strings.TrimSpace(body.Notes),
			CreatedBy:      caller.UserID,
		}
		applyCheckDetails(&pay, body.CheckDetails)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// Saldo actualizado dentro de la transacción
			if err := tx.First(&purchase, "id = ?", purchase.ID).Error; err != nil {
				return err
			}
			r, err := ledger.Apply(purchase.Balance, pay.Amount, ledger.PurchaseLabels)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			if err := tx.Create(&pay).Error; err != nil {
				return err
			}
			if err := storeCheck(tx, &pay, holder); err != nil {
				return err
			}
			if err := savePurchase(tx, &purchase, r); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityPayment, pay.ID, models.AuditActionCreate,
				fmt.Sprintf("Pago de $%s a %s", pay.Amount.StringFixed(2), purchase.DocumentNumber), nil, pay)
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo registrar el pago")
		}

		metrics.LedgerOperation("payment", "apply")
		return c.Status(fiber.StatusCreated).JSON(PaymentResponse{pay, purchase.Balance, purchase.Status})
	}
}

// PUT /api/payments/:id
func UpdatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := persistedID(c, "editar")
		if err != nil {
			return err
		}
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}

		var pay models.Payment
		if err := database.DB.Where("organization_id = ? AND id = ?", caller.OrganizationID, id).First(&pay).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Pago no encontrado")
		}
		before := pay

		var body UpdatePaymentRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		newAmount := pay.Amount
		if body.Amount != nil {
			newAmount = *body.Amount
		}
		method := pay.Method
		if body.Method != "" {
			method = body.Method
		}
		details := body.CheckDetails
		if details == nil && method == pay.Method && pay.Method == models.MethodCheque {
			details = &models.CheckDetails{CheckNumber: pay.CheckNumber, Bank: pay.CheckBank}
			if pay.CheckDueDate != nil {
				details.DueDate = pay.CheckDueDate.Format("2006-01-02")
			}
		}
		if err := validateMethod(method, details, newAmount); err != nil {
			return err
		}
		date, err := validation.DateOr("payment_date", body.PaymentDate, pay.PaymentDate)
		if err != nil {
			return err
		}

		var purchase models.Purchase
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&purchase, "id = ?", pay.PurchaseID).Error; err != nil {
				return err
			}
			if !newAmount.Equal(pay.Amount) {
				r, err := ledger.Adjust(purchase.Balance, pay.Amount, newAmount, purchase.Status, ledger.PurchaseLabels)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, err.Error())
				}
				if err := savePurchase(tx, &purchase, r); err != nil {
					return err
				}
			}

			pay.Amount = newAmount
			pay.Method = method
			pay.PaymentDate = date
			if body.Notes != nil {
				pay.Notes = strings.TrimSpace(*body.Notes)
			}
			applyCheckDetails(&pay, details)

			if err := tx.Save(&pay).Error; err != nil {
				return err
			}
			var supplier models.Supplier
			tx.Select("name").First(&supplier, "id = ?", pay.SupplierID)
			if err := storeCheck(tx, &pay, supplier.Name); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityPayment, pay.ID, models.AuditActionUpdate,
				fmt.Sprintf("Pago actualizado en %s", purchase.DocumentNumber), before, pay)
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el pago")
		}

		if !before.Amount.Equal(pay.Amount) {
			metrics.LedgerOperation("payment", "adjust")
		}
		return c.JSON(PaymentResponse{pay, purchase.Balance, purchase.Status})
	}
}

// DELETE /api/payments/:id
// Devuelve el monto al saldo de la compra y borra el cheque asociado.
func DeletePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := persistedID(c, "eliminar")
		if err != nil {
			return err
		}
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}

		var pay models.Payment
		if err := database.DB.Where("organization_id = ? AND id = ?", caller.OrganizationID, id).First(&pay).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Pago no encontrado")
		}

		var purchase models.Purchase
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&purchase, "id = ?", pay.PurchaseID).Error; err != nil {
				return err
			}
			r := ledger.Reverse(purchase.Balance, pay.Amount, purchase.Status, ledger.PurchaseLabels)
			if err := checks.DeleteForSource(tx, models.CheckSourcePayment, pay.ID); err != nil {
				return err
			}
			if err := tx.Delete(&models.Payment{}, "id = ?", pay.ID).Error; err != nil {
				return err
			}
			if err := savePurchase(tx, &purchase, r); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityPayment, pay.ID, models.AuditActionDelete,
				fmt.Sprintf("Pago de $%s eliminado de %s", pay.Amount.StringFixed(2), purchase.DocumentNumber), pay, nil)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el pago")
		}

		metrics.LedgerOperation("payment", "reverse")
		return c.JSON(fiber.Map{"purchase_balance": purchase.Balance, "purchase_status": purchase.Status})
	}
}

// GET /api/payments?supplier_id=&from=&to=
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		supplierID, err := scope.QueryUint(c, "supplier_id")
		if err != nil {
			return err
		}
		from, to, err := scope.DateRange(c)
		if err != nil {
			return err
		}

		rows, err := History(database.DB, orgID, Filter{SupplierID: supplierID, From: from, To: to})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los pagos")
		}
		return c.JSON(rows)
	}
}

// GET /api/payments/pending?supplier_id=
func ListPendingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		supplierID, err := scope.QueryUint(c, "supplier_id")
		if err != nil {
			return err
		}

		list, err := Pending(database.DB, orgID, supplierID, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las compras pendientes")
		}
		return c.JSON(list)
	}
}
