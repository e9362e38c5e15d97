// Package payments registra los pagos a proveedores de compras en cuenta corriente y
// arma el historial junto con los pagos implícitos de las compras de contado.
package payments

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

// HistoryRow es un pago persistido o uno virtual sacado del desglose de una compra de contado.
type HistoryRow struct {
	ID             string          `json:"id"`
	Virtual        bool            `json:"virtual"`
	PurchaseID     uint            `json:"purchase_id"`
	DocumentNumber string          `json:"document_number"`
	SupplierID     uint            `json:"supplier_id"`
	SupplierName   string          `json:"supplier_name"`
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	CheckNumber    string          `json:"check_number,omitempty"`
	CheckBank      string          `json:"check_bank,omitempty"`
	Notes          string          `json:"notes"`
}

type Filter struct {
	SupplierID *uint
	From       *time.Time
	To         *time.Time // exclusivo
}

// VirtualID arma el id de un pago de contado: "<compra>-cash-<índice>".
func VirtualID(purchaseID uint, index int) string {
	return fmt.Sprintf("%d-cash-%d", purchaseID, index)
}

func IsVirtualID(id string) bool {
	return strings.Contains(id, "-cash-")
}

// ParseID devuelve el id numérico de un pago persistido.
func ParseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

type paymentRow struct {
	models.Payment
	DocumentNumber string
	SupplierName   string
}

type purchaseRow struct {
	models.Purchase
	SupplierName string
}

// History junta pagos persistidos y virtuales, ordenados por fecha descendente.
func History(db *gorm.DB, orgID uint, f Filter) ([]HistoryRow, error) {
	cq := db.Model(&models.Payment{}).
		Select("payments.*, purchases.document_number AS document_number, suppliers.name AS supplier_name").
		Joins("LEFT JOIN purchases ON purchases.id = payments.purchase_id").
		Joins("LEFT JOIN suppliers ON suppliers.id = payments.supplier_id").
		Where("payments.organization_id = ?", orgID)
	if f.SupplierID != nil {
		cq = cq.Where("payments.supplier_id = ?", *f.SupplierID)
	}
	if f.From != nil {
		cq = cq.Where("payments.payment_date >= ?", *f.From)
	}
	if f.To != nil {
		cq = cq.Where("payments.payment_date < ?", *f.To)
	}
	var persisted []paymentRow
	if err := cq.Find(&persisted).Error; err != nil {
		return nil, err
	}

	sq := db.Model(&models.Purchase{}).
		Select("purchases.*, suppliers.name AS supplier_name").
		Joins("LEFT JOIN suppliers ON suppliers.id = purchases.supplier_id").
		Where("purchases.organization_id = ? AND purchases.payment_type = ? AND purchases.status <> ?",
			orgID, models.PaymentCash, models.StatusAnulada)
	if f.SupplierID != nil {
		sq = sq.Where("purchases.supplier_id = ?", *f.SupplierID)
	}
	if f.From != nil {
		sq = sq.Where("purchases.purchase_date >= ?", *f.From)
	}
	if f.To != nil {
		sq = sq.Where("purchases.purchase_date < ?", *f.To)
	}
	var cash []purchaseRow
	if err := sq.Find(&cash).Error; err != nil {
		return nil, err
	}

	rows := make([]HistoryRow, 0, len(persisted)+len(cash))
	// Los montos en cero no son pagos.
	for _, p := range persisted {
		if !p.Amount.IsPositive() {
			continue
		}
		rows = append(rows, HistoryRow{
			ID:             strconv.FormatUint(uint64(p.ID), 10),
			PurchaseID:     p.PurchaseID,
			DocumentNumber: p.DocumentNumber,
			SupplierID:     p.SupplierID,
			SupplierName:   p.SupplierName,
			Date:           p.PaymentDate,
			Amount:         p.Amount,
			Method:         p.Method,
			CheckNumber:    p.CheckNumber,
			CheckBank:      p.CheckBank,
			Notes:          p.Notes,
		})
	}
	for _, s := range cash {
		for i, m := range s.PaymentMethods {
			if !m.Amount.IsPositive() {
				continue
			}
			row := HistoryRow{
				ID:             VirtualID(s.ID, i),
				Virtual:        true,
				PurchaseID:     s.ID,
				DocumentNumber: s.DocumentNumber,
				SupplierID:     s.SupplierID,
				SupplierName:   s.SupplierName,
				Date:           s.PurchaseDate,
				Amount:         m.Amount,
				Method:         m.Method,
				Notes:          "Compra de contado",
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
	if a.PurchaseID != b.PurchaseID {
		return a.PurchaseID > b.PurchaseID
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

// PendingPurchase es una compra en cuenta corriente con saldo.
type PendingPurchase struct {
	ID             uint            `json:"id"`
	DocumentNumber string          `json:"document_number"`
	DocumentType   string          `json:"document_type"`
	SupplierID     uint            `json:"supplier_id"`
	SupplierName   string          `json:"supplier_name"`
	PurchaseDate   time.Time       `json:"purchase_date"`
	DueDate        *time.Time      `json:"due_date"`
	Total          decimal.Decimal `json:"total"`
	Balance        decimal.Decimal `json:"balance"`
	DaysUntilDue   *int            `json:"days_until_due"`
}

// Pending lista compras adeudadas, primero las que vencen antes y al final las sin vencimiento.
func Pending(db *gorm.DB, orgID uint, supplierID *uint, now time.Time) ([]PendingPurchase, error) {
	q := db.Model(&models.Purchase{}).
		Select("purchases.*, suppliers.name AS supplier_name").
		Joins("LEFT JOIN suppliers ON suppliers.id = purchases.supplier_id").
		Where("purchases.organization_id = ? AND purchases.payment_type = ? AND purchases.status = ? AND purchases.balance > ?",
			orgID, models.PaymentAccount, models.StatusPendienteDePago, ledger.Epsilon)
	if supplierID != nil {
		q = q.Where("purchases.supplier_id = ?", *supplierID)
	}
	var rows []purchaseRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	res := make([]PendingPurchase, 0, len(rows))
	for _, r := range rows {
		res = append(res, PendingPurchase{
			ID:             r.ID,
			DocumentNumber: r.DocumentNumber,
			DocumentType:   r.DocumentType,
			SupplierID:     r.SupplierID,
			SupplierName:   r.SupplierName,
			PurchaseDate:   r.PurchaseDate,
			DueDate:        r.DueDate,
			Total:          r.Total,
			Balance:        r.Balance,
			DaysUntilDue:   ledger.DaysUntilDue(r.DueDate, now),
		})
	}
	SortByDue(res)
	return res, nil
}

// SortByDue ordena por días al vencimiento ascendente; sin fecha van al final.
func SortByDue(list []PendingPurchase) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].DaysUntilDue, list[j].DaysUntilDue
		switch {
		case a == nil && b == nil:
			return list[i].PurchaseDate.Before(list[j].PurchaseDate)
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
}
