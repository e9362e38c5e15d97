package dashboard

import (
	"time"

	"taller-backend/internal/collections"
	"taller-backend/internal/database"
	"taller-backend/internal/ledger"
	"taller-backend/internal/models"
	"taller-backend/internal/payments"
	"taller-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SummaryResponse struct {
	From                  *time.Time      `json:"from"`
	To                    *time.Time      `json:"to"`
	SalesTotal            decimal.Decimal `json:"sales_total"`
	SalesCount            int64           `json:"sales_count"`
	PurchasesTotal        decimal.Decimal `json:"purchases_total"`
	PurchasesCount        int64           `json:"purchases_count"`
	Collected             decimal.Decimal `json:"collected"`
	Paid                  decimal.Decimal `json:"paid"`
	ReceivableOutstanding decimal.Decimal `json:"receivable_outstanding"`
	PayableOutstanding    decimal.Decimal `json:"payable_outstanding"`
	OpenWorkOrders        int64           `json:"open_work_orders"`
}

type sumRow struct {
	Total decimal.Decimal
	Count int64
}

func sumDocuments(q *gorm.DB) (sumRow, error) {
	var r sumRow
	err := q.Select("COALESCE(SUM(total), 0) AS total, COUNT(*) AS count").Scan(&r).Error
	return r, err
}

func sumBalance(q *gorm.DB) (decimal.Decimal, error) {
	var r sumRow
	err := q.Select("COALESCE(SUM(balance), 0) AS total").Scan(&r).Error
	return r.Total, err
}

// Summary calcula los totales del período. Los saldos pendientes son a la fecha, sin filtro de período.
func Summary(db *gorm.DB, orgID uint, from, to *time.Time) (*SummaryResponse, error) {
	res := &SummaryResponse{From: from, To: to}

	sq := db.Model(&models.Sale{}).
		Where("organization_id = ? AND type <> ? AND status <> ?", orgID, models.SaleTypePresupuesto, models.StatusAnulada)
	if from != nil {
		sq = sq.Where("sale_date >= ?", *from)
	}
	if to != nil {
		sq = sq.Where("sale_date < ?", *to)
	}
	sales, err := sumDocuments(sq)
	if err != nil {
		return nil, err
	}
	res.SalesTotal, res.SalesCount = sales.Total, sales.Count

	pq := db.Model(&models.Purchase{}).
		Where("organization_id = ? AND status <> ?", orgID, models.StatusAnulada)
	if from != nil {
		pq = pq.Where("purchase_date >= ?", *from)
	}
	if to != nil {
		pq = pq.Where("purchase_date < ?", *to)
	}
	purchases, err := sumDocuments(pq)
	if err != nil {
		return nil, err
	}
	res.PurchasesTotal, res.PurchasesCount = purchases.Total, purchases.Count

	cols, err := collections.History(db, orgID, collections.Filter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	for _, r := range cols {
		res.Collected = res.Collected.Add(r.Amount)
	}
	pays, err := payments.History(db, orgID, payments.Filter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	for _, r := range pays {
		res.Paid = res.Paid.Add(r.Amount)
	}

	res.ReceivableOutstanding, err = sumBalance(db.Model(&models.Sale{}).
		Where("organization_id = ? AND payment_type = ? AND status = ? AND balance > ?",
			orgID, models.PaymentAccount, models.StatusPendienteDePago, ledger.Epsilon))
	if err != nil {
		return nil, err
	}
	res.PayableOutstanding, err = sumBalance(db.Model(&models.Purchase{}).
		Where("organization_id = ? AND payment_type = ? AND status = ? AND balance > ?",
			orgID, models.PaymentAccount, models.StatusPendienteDePago, ledger.Epsilon))
	if err != nil {
		return nil, err
	}

	if err := db.Model(&models.WorkOrder{}).
		Where("organization_id = ? AND status NOT IN ?", orgID, []string{models.WorkOrderFinished, models.WorkOrderCancelled}).
		Count(&res.OpenWorkOrders).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// GET /api/dashboard/summary?from=&to=
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		from, to, err := scope.DateRange(c)
		if err != nil {
			return err
		}
		res, err := Summary(database.DB, orgID, from, to)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo calcular el resumen")
		}
		return c.JSON(res)
	}
}
