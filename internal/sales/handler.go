package sales

import (
	"fmt"
	"strings"
	"time"

	"taller-backend/internal/audit"
	"taller-backend/internal/catalog"
	"taller-backend/internal/checks"
	"taller-backend/internal/customers"
	"taller-backend/internal/database"
	"taller-backend/internal/ledger"
	"taller-backend/internal/metrics"
	"taller-backend/internal/models"
	"taller-backend/internal/numbering"
	"taller-backend/internal/scope"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// -------------------------
// Request Types
// -------------------------

type CreateSaleRequest struct {
	CustomerID     uint                        `json:"customer_id" validate:"required"`
	Type           models.SaleType             `json:"type" validate:"required"`
	Letter         string                      `json:"letter"`
	PointOfSale    string                      `json:"point_of_sale"`
	Number         string                      `json:"number"`
	SaleDate       string                      `json:"sale_date"`
	DueDate        string                      `json:"due_date"`
	PaymentType    models.PaymentType          `json:"payment_type"`
	Items          []catalog.ItemInput         `json:"items" validate:"required,min=1,dive"`
	PaymentMethods []models.PaymentMethodEntry `json:"payment_methods"`
	Notes          string                      `json:"notes" validate:"max=1000"`
	OrganizationID *uint                       `json:"organization_id"` // sólo super_admin
}

// UpdateSaleRequest: tipo y número no se pueden cambiar.
type UpdateSaleRequest struct {
	CustomerID     uint                        `json:"customer_id" validate:"required"`
	SaleDate       string                      `json:"sale_date"`
	DueDate        string                      `json:"due_date"`
	PaymentType    models.PaymentType          `json:"payment_type"`
	Items          []catalog.ItemInput         `json:"items" validate:"required,min=1,dive"`
	PaymentMethods []models.PaymentMethodEntry `json:"payment_methods"`
	Notes          string                      `json:"notes" validate:"max=1000"`
	Status         string                      `json:"status"`
}

// checkVehicles: los vehículos de los ítems tienen que ser del cliente de la venta.
func checkVehicles(orgID, customerID uint, items []catalog.ItemInput) error {
	for _, it := range items {
		if it.VehicleID == nil {
			continue
		}
		v, err := customers.FindVehicle(orgID, *it.VehicleID)
		if err != nil {
			return err
		}
		if v.CustomerID != customerID {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("El vehículo %s no pertenece al cliente", v.Plate))
		}
	}
	return nil
}

func checkSource(sale *models.Sale, holder string) checks.Source {
	return checks.Source{
		OrganizationID: sale.OrganizationID,
		Type:           models.CheckSourceSale,
		ID:             sale.ID,
		CheckType:      models.CheckReceived,
		Holder:         holder,
		IssueDate:      sale.SaleDate,
	}
}

// storeChecks crea los cheques del desglose y guarda sus ids en el comprobante.
func storeChecks(tx *gorm.DB, sale *models.Sale, holder string) error {
	if len(sale.PaymentMethods) == 0 {
		return nil
	}
	if err := checks.CreateForMethods(tx, checkSource(sale, holder), sale.PaymentMethods); err != nil {
		return err
	}
	return tx.Model(sale).Update("payment_methods", sale.PaymentMethods).Error
}

// -------------------------
// Sales CRUD
// -------------------------

// POST /api/sales
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.Type.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "Tipo de comprobante inválido")
		}

		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}
		org, err := loadOrganization(caller.OrganizationID)
		if err != nil {
			return err
		}
		customer, err := customers.FindCustomer(org.ID, body.CustomerID)
		if err != nil {
			return err
		}
		if err := checkVehicles(org.ID, customer.ID, body.Items); err != nil {
			return err
		}

		saleDate, err := validation.DateOr("sale_date", body.SaleDate, time.Now())
		if err != nil {
			return err
		}
		dueDate, err := validation.OptionalDate("due_date", body.DueDate)
		if err != nil {
			return err
		}

		p, err := price(org, body.Type, body.PaymentType, body.Items, body.PaymentMethods, decimal.Zero)
		if err != nil {
			return err
		}

		pos, err := numbering.NormalizePointOfSale(body.PointOfSale)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		var manualNumber string
		if org.SaleDocumentNumberMode == models.NumberingManual {
			manualNumber, err = numbering.NormalizeNumber(body.Number)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "El taller numera a mano: ingresá un número de comprobante numérico")
			}
		}
		letter := numbering.NormalizeLetter(body.Type, body.Letter)

		unlock, err := numbering.Lock(c.UserContext(), numbering.SaleKey(org.ID, string(body.Type), pos))
		if err != nil {
			return lockError(err)
		}
		defer unlock()

		sale := models.Sale{
			OrganizationID: org.ID,
			CustomerID:     customer.ID,
			Type:           body.Type,
			Letter:         letter,
			PointOfSale:    pos,
			SaleDate:       saleDate,
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
			number := manualNumber
			if number == "" {
				next, err := numbering.NextSaleNumber(tx, org.ID, sale.Type, pos)
				if err != nil {
					return err
				}
				number = next
			}
			sale.Number = number
			sale.SaleNumber = numbering.Format(letter, pos, number)

			if err := tx.Create(&sale).Error; err != nil {
				return err
			}
			if err := storeChecks(tx, &sale, customer.Name); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntitySale, sale.ID, models.AuditActionCreate,
				fmt.Sprintf("%s %s creada: %s", sale.Type, sale.SaleNumber, customer.Name), nil, sale)
		})
		if err != nil {
			return saveError(err, "No se pudo guardar la venta")
		}

		metrics.DocumentCreated("sale")
		return c.Status(fiber.StatusCreated).JSON(toResponse(sale, customer.Name))
	}
}

// GET /api/sales?type=&status=&customer_id=&from=&to=&search=
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Sale{}).
			Select("sales.*, customers.name AS customer_name").
			Joins("LEFT JOIN customers ON customers.id = sales.customer_id").
			Where("sales.organization_id = ?", orgID)

		if v := c.Query("type"); v != "" {
			dbq = dbq.Where("sales.type = ?", v)
		}
		if v := c.Query("status"); v != "" {
			dbq = dbq.Where("sales.status = ?", v)
		}
		customerID, err := scope.QueryUint(c, "customer_id")
		if err != nil {
			return err
		}
		if customerID != nil {
			dbq = dbq.Where("sales.customer_id = ?", *customerID)
		}
		from, to, err := scope.DateRange(c)
		if err != nil {
			return err
		}
		if from != nil {
			dbq = dbq.Where("sales.sale_date >= ?", *from)
		}
		if to != nil {
			dbq = dbq.Where("sales.sale_date < ?", *to)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			dbq = dbq.Where("LOWER(sales.sale_number) LIKE ? OR LOWER(customers.name) LIKE ?", like, like)
		}

		var rows []saleRow
		if err := dbq.Order("sales.sale_date DESC, sales.id DESC").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las ventas")
		}

		res := make([]SaleResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, toResponse(r.Sale, r.CustomerName))
		}
		return c.JSON(res)
	}
}

// GET /api/sales/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		sale, err := findSale(database.DB, orgID, id)
		if err != nil {
			return err
		}

		var customer models.Customer
		database.DB.Select("name").First(&customer, "id = ?", sale.CustomerID)

		var collections []models.Collection
		database.DB.Where("sale_id = ?", sale.ID).Order("collection_date DESC, id DESC").Find(&collections)

		var saleChecks []models.Check
		database.DB.Where("source_type = ? AND source_id = ?", models.CheckSourceSale, sale.ID).Find(&saleChecks)

		return c.JSON(fiber.Map{
			"sale":        toResponse(*sale, customer.Name),
			"collections": collections,
			"checks":      saleChecks,
		})
	}
}

// PUT /api/sales/:id
func UpdateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		sale, err := findSale(database.DB, caller.OrganizationID, id)
		if err != nil {
			return err
		}
		before := *sale

		var body UpdateSaleRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if body.Status != "" && !allowedStatus(sale.Type, body.Status) {
			return fiber.NewError(fiber.StatusBadRequest, "Estado inválido para este tipo de comprobante")
		}

		org, err := loadOrganization(caller.OrganizationID)
		if err != nil {
			return err
		}
		customer, err := customers.FindCustomer(org.ID, body.CustomerID)
		if err != nil {
			return err
		}
		if err := checkVehicles(org.ID, customer.ID, body.Items); err != nil {
			return err
		}
		saleDate, err := validation.DateOr("sale_date", body.SaleDate, sale.SaleDate)
		if err != nil {
			return err
		}
		dueDate, err := validation.OptionalDate("due_date", body.DueDate)
		if err != nil {
			return err
		}

		collected, err := collectedFor(database.DB, sale.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron leer los cobros")
		}
		paymentType := body.PaymentType
		if paymentType == "" {
			paymentType = sale.PaymentType
		}
		p, err := price(org, sale.Type, paymentType, body.Items, body.PaymentMethods, collected)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			sale.CustomerID = customer.ID
			sale.SaleDate = saleDate
			sale.DueDate = dueDate
			sale.PaymentType = p.PaymentType
			sale.Items = p.Items
			sale.PaymentMethods = p.PaymentMethods
			sale.Total = p.Total
			sale.Notes = strings.TrimSpace(body.Notes)
			sale.Balance = p.Balance
			sale.Status = p.Status

			if sale.PaymentType == models.PaymentAccount {
				// Se vuelve a leer dentro de la transacción por si entró un cobro.
				collected, err := collectedFor(tx, sale.ID)
				if err != nil {
					return err
				}
				sale.Balance = sale.Total.Sub(collected)
				sale.Status = ledger.StatusFor(sale.Balance, ledger.SaleLabels)
			}
			// Una edición sin estado no reactiva un comprobante anulado.
			switch {
			case body.Status == models.StatusAnulada:
				sale.Status = models.StatusAnulada
			case body.Status == "" && before.Status == models.StatusAnulada:
				sale.Status = models.StatusAnulada
			case sale.Type == models.SaleTypePresupuesto:
				sale.Status = before.Status
				if body.Status != "" {
					sale.Status = body.Status
				}
			}

			if err := checks.DeleteForSource(tx, models.CheckSourceSale, sale.ID); err != nil {
				return err
			}
			if err := tx.Save(sale).Error; err != nil {
				return err
			}
			if err := storeChecks(tx, sale, customer.Name); err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntitySale, sale.ID, models.AuditActionUpdate,
				fmt.Sprintf("%s %s actualizada", sale.Type, sale.SaleNumber), before, sale)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la venta")
		}

		return c.JSON(toResponse(*sale, customer.Name))
	}
}

// DELETE /api/sales/:id
// Borra también sus cheques, sus cobros y los cheques de esos cobros.
func DeleteSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		sale, err := findSale(database.DB, caller.OrganizationID, id)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var collectionIDs []uint
			if err := tx.Model(&models.Collection{}).Where("sale_id = ?", sale.ID).Pluck("id", &collectionIDs).Error; err != nil {
				return err
			}
			if err := checks.DeleteForSources(tx, models.CheckSourceCollection, collectionIDs); err != nil {
				return err
			}
			if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.Collection{}).Error; err != nil {
				return err
			}
			if err := checks.DeleteForSource(tx, models.CheckSourceSale, sale.ID); err != nil {
				return err
			}
			if err := tx.Delete(&models.Sale{}, "id = ?", sale.ID).Error; err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntitySale, sale.ID, models.AuditActionDelete,
				fmt.Sprintf("%s %s eliminada (%d cobros)", sale.Type, sale.SaleNumber, len(collectionIDs)), sale, nil)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la venta")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
