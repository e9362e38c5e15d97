// Package collections registra los cobros de ventas en cuenta corriente y arma el
// historial junto con los cobros implícitos de las ventas de contado.
package collections

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"taller-backend/internal/ledger"
	"taller-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HistoryRow es un cobro persistido o uno virtual sacado del desglose de una venta de contado.
type HistoryRow struct {
	ID           string          `json:"id"`
	Virtual      bool            `json:"virtual"`
	SaleID       uint            `json:"sale_id"`
	SaleNumber   string          `json:"sale_number"`
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method"`
	CheckNumber  string          `json:"check_number,omitempty"`
	CheckBank    string          `json:"check_bank,omitempty"`
	Notes        string          `json:"notes"`
}

type Filter struct {
	CustomerID *uint
	From       *time.Time
	To         *time.Time // exclusivo
}

// VirtualID arma el id de un cobro de contado: "<venta>-cash-<índice>".
func VirtualID(saleID uint, index int) string {
	return fmt.Sprintf("%d-cash-%d", saleID, index)
}

func IsVirtualID(id string) bool {
	return strings.Contains(id, "-cash-")
}

// ParseID devuelve el id numérico de un cobro persistido.
func ParseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

type collectionRow struct {
	models.Collection
	SaleNumber   string
	CustomerName string
}

type saleRow struct {
	models.Sale
	CustomerName string
}

// History junta cobros persistidos y virtuales, ordenados por fecha descendente.
func History(db *gorm.DB, orgID uint, f Filter) ([]HistoryRow, error) {
	cq := db.Model(&models.Collection{}).
		Select("collections.*, sales.sale_number AS sale_number, customers.name AS customer_name").
		Joins("LEFT JOIN sales ON sales.id = collections.sale_id").
		Joins("LEFT JOIN customers ON customers.id = collections.customer_id").
		Where("collections.organization_id = ?", orgID)
	if f.CustomerID != nil {
		cq = cq.Where("collections.customer_id = ?", *f.CustomerID)
	}
	if f.From != nil {
		cq = cq.Where("collections.collection_date >= ?", *f.From)
	}
	if f.To != nil {
		cq = cq.Where("collections.collection_date < ?", *f.To)
	}
	var persisted []collectionRow
	if err := cq.Find(&persisted).Error; err != nil {
		return nil, err
	}

	sq := db.Model(&models.Sale{}).
		Select("sales.*, customers.name AS customer_name").
		Joins("LEFT JOIN customers ON customers.id = sales.customer_id").
		Where("sales.organization_id = ? AND sales.payment_type = ? AND sales.status <> ?",
			orgID, models.PaymentCash, models.StatusAnulada)
	if f.CustomerID != nil {
		sq = sq.Where("sales.customer_id = ?", *f.CustomerID)
	}
	if f.From != nil {
		sq = sq.Where("sales.sale_date >= ?", *f.From)
	}
	if f.To != nil {
		sq = sq.Where("sales.sale_date < ?", *f.To)
	}
	var cash []saleRow
	if err := sq.Find(&cash).Error; err != nil {
		return nil, err
	}

	rows := make([]HistoryRow, 0, len(persisted)+len(cash))
	for _, p := range persisted {
		rows = append(rows, HistoryRow{
			ID:           strconv.FormatUint(uint64(p.ID), 10),
			SaleID:       p.SaleID,
			SaleNumber:   p.SaleNumber,
			CustomerID:   p.CustomerID,
			CustomerName: p.CustomerName,
			Date:         p.CollectionDate,
			Amount:       p.Amount,
			Method:       p.Method,
			CheckNumber:  p.CheckNumber,
			CheckBank:    p.CheckBank,
			Notes:        p.Notes,
		})
	}
	for _, s := range cash {
		for i, m := range s.PaymentMethods {
			row := HistoryRow{
				ID:           VirtualID(s.ID, i),
				Virtual:      true,
				SaleID:       s.ID,
				SaleNumber:   s.SaleNumber,
				CustomerID:   s.CustomerID,
				CustomerName: s.CustomerName,
				Date:         s.SaleDate,
				Amount:       m.Amount,
				Method:       m.Method,
				Notes:        "Venta de contado",
			}
			if m.CheckDetails != nil {
				row.CheckNumber = m.CheckDetails.CheckNumber
				row.CheckBank = m.CheckDetails.Bank
			}
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return historyBefore(rows[i], rows[j]) })
	return rows, nil
}

// historyBefore: fecha descendente; a igual fecha van primero los registrados (id numérico
// descendente) y después los virtuales (comprobante descendente, medio en orden de carga).
func historyBefore(a, b HistoryRow) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	if a.Virtual != b.Virtual {
		return !a.Virtual
	}
	if !a.Virtual {
		ai, _ := ParseID(a.ID)
		bi, _ := ParseID(b.ID)
		return ai > bi
	}
	if a.SaleID != b.SaleID {
		return a.SaleID > b.SaleID
	}
	return virtualIndex(a.ID) < virtualIndex(b.ID)
}

func virtualIndex(id string) int {
	_, idx, ok := strings.Cut(id, "-cash-")
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(idx)
	return n
}

// PendingSale es una venta en cuenta corriente con saldo.
type PendingSale struct {
	ID           uint            `json:"id"`
	SaleNumber   string          `json:"sale_number"`
	Type         models.SaleType `json:"type"`
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	SaleDate     time.Time       `json:"sale_date"`
	DueDate      *time.Time      `json:"due_date"`
	Total        decimal.Decimal `json:"total"`
	Balance      decimal.Decimal `json:"balance"`
	DaysUntilDue *int            `json:"days_until_due"`
}

// Pending lista ventas adeudadas, primero las que vencen antes y al final las sin vencimiento.
func Pending(db *gorm.DB, orgID uint, customerID *uint, now time.Time) ([]PendingSale, error) {
	q := db.Model(&models.Sale{}).
		Select("sales.*, customers.name AS customer_name").
		Joins("LEFT JOIN customers ON customers.id = sales.customer_id").
		Where("sales.organization_id = ? AND sales.payment_type = ? AND sales.status = ? AND sales.balance > ?",
			orgID, models.PaymentAccount, models.StatusPendienteDePago, ledger.Epsilon)
	if customerID != nil {
		q = q.Where("sales.customer_id = ?", *customerID)
	}
	var rows []saleRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	res := make([]PendingSale, 0, len(rows))
	for _, r := range rows {
		res = append(res, PendingSale{
			ID:           r.ID,
			SaleNumber:   r.SaleNumber,
			Type:         r.Type,
			CustomerID:   r.CustomerID,
			CustomerName: r.CustomerName,
			SaleDate:     r.SaleDate,
			DueDate:      r.DueDate,
			Total:        r.Total,
			Balance:      r.Balance,
			DaysUntilDue: ledger.DaysUntilDue(r.DueDate, now),
		})
	}
	SortByDue(res)
	return res, nil
}

// SortByDue ordena por días al vencimiento ascendente; sin fecha van al final.
func SortByDue(list []PendingSale) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].DaysUntilDue, list[j].DaysUntilDue
		switch {
		case a == nil && b == nil:
			return list[i].SaleDate.Before(list[j].SaleDate)
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
}
