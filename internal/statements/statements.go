// Package statements arma el estado de cuenta de clientes y proveedores, en JSON o XLSX.
package statements

import (
	"strconv"
	"time"

	"taller-backend/internal/collections"
	"taller-backend/internal/ledger"
	"taller-backend/internal/models"
	"taller-backend/internal/payments"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	KindPending = "pending"
	KindHistory = "history"
	KindAll     = "all"
)

func ValidKind(k string) bool {
	return k == KindPending || k == KindHistory || k == KindAll
}

// Statement es el resumen que se devuelve en JSON y se vuelca al XLSX.
type Statement struct {
	Kind       string          `json:"kind"`
	PartyID    uint            `json:"party_id"`
	PartyName  string          `json:"party_name"`
	Rows       any             `json:"rows"`
	Total      decimal.Decimal `json:"total"`
	Balance    decimal.Decimal `json:"balance"`
	Generated  time.Time       `json:"generated_at"`
	sheetRows  [][]any
	sheetHead  []string
	sheetTotal []any
}

type saleLine struct {
	ID            uint            `json:"id"`
	SaleNumber    string          `json:"sale_number"`
	Type          models.SaleType `json:"type"`
	SaleDate      time.Time       `json:"sale_date"`
	PaymentType   string          `json:"payment_type"`
	Status        string          `json:"status"`
	DisplayStatus string          `json:"display_status"`
	Total         decimal.Decimal `json:"total"`
	Balance       decimal.Decimal `json:"balance"`
}

type purchaseLine struct {
	ID             uint            `json:"id"`
	DocumentNumber string          `json:"document_number"`
	DocumentType   string          `json:"document_type"`
	PurchaseDate   time.Time       `json:"purchase_date"`
	PaymentType    string          `json:"payment_type"`
	Status         string          `json:"status"`
	Total          decimal.Decimal `json:"total"`
	Balance        decimal.Decimal `json:"balance"`
}

func day(t time.Time) string {
	return t.Format("02/01/2006")
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// ForCustomer arma el estado de cuenta de un cliente.
func ForCustomer(db *gorm.DB, orgID uint, customer models.Customer, kind string, now time.Time) (*Statement, error) {
	st := &Statement{Kind: kind, PartyID: customer.ID, PartyName: customer.Name, Generated: now}
	id := customer.ID

	switch kind {
	case KindPending:
		list, err := collections.Pending(db, orgID, &id, now)
		if err != nil {
			return nil, err
		}
		st.sheetHead = []string{"Comprobante", "Fecha", "Vencimiento", "Días", "Total", "Saldo"}
		for _, p := range list {
			st.Total = st.Total.Add(p.Total)
			st.Balance = st.Balance.Add(p.Balance)
			due, days := "", ""
			if p.DueDate != nil {
				due = day(*p.DueDate)
			}
			if p.DaysUntilDue != nil {
				days = strconv.Itoa(*p.DaysUntilDue)
			}
			st.sheetRows = append(st.sheetRows, []any{p.SaleNumber, day(p.SaleDate), due, days, money(p.Total), money(p.Balance)})
		}
		st.Rows = list
		st.sheetTotal = []any{"Total pendiente", "", "", "", money(st.Total), money(st.Balance)}

	case KindHistory:
		rows, err := collections.History(db, orgID, collections.Filter{CustomerID: &id})
		if err != nil {
			return nil, err
		}
		st.sheetHead = []string{"Fecha", "Comprobante", "Medio", "Cheque", "Monto"}
		for _, r := range rows {
			st.Total = st.Total.Add(r.Amount)
			st.sheetRows = append(st.sheetRows, []any{day(r.Date), r.SaleNumber, r.Method, r.CheckNumber, money(r.Amount)})
		}
		st.Rows = rows
		st.sheetTotal = []any{"Total cobrado", "", "", "", money(st.Total)}

	default:
		var sales []models.Sale
		if err := db.Where("organization_id = ? AND customer_id = ?", orgID, id).
			Order("sale_date DESC, id DESC").Find(&sales).Error; err != nil {
			return nil, err
		}
		st.sheetHead = []string{"Comprobante", "Tipo", "Fecha", "Forma de pago", "Estado", "Total", "Saldo"}
		lines := make([]saleLine, 0, len(sales))
		for _, s := range sales {
			display := ledger.DisplayStatus(s.Type, s.Status, s.Balance)
			st.Total = st.Total.Add(s.Total)
			st.Balance = st.Balance.Add(s.Balance)
			lines = append(lines, saleLine{
				ID:            s.ID,
				SaleNumber:    s.SaleNumber,
				Type:          s.Type,
				SaleDate:      s.SaleDate,
				PaymentType:   string(s.PaymentType),
				Status:        s.Status,
				DisplayStatus: display,
				Total:         s.Total,
				Balance:       s.Balance,
			})
			st.sheetRows = append(st.sheetRows, []any{s.SaleNumber, string(s.Type), day(s.SaleDate), string(s.PaymentType), display, money(s.Total), money(s.Balance)})
		}
		st.Rows = lines
		st.sheetTotal = []any{"Totales", "", "", "", "", money(st.Total), money(st.Balance)}
	}
	return st, nil
}

// ForSupplier arma el estado de cuenta de un proveedor.
func ForSupplier(db *gorm.DB, orgID uint, supplier models.Supplier, kind string, now time.Time) (*Statement, error) {
	st := &Statement{Kind: kind, PartyID: supplier.ID, PartyName: supplier.Name, Generated: now}
	id := supplier.ID

	switch kind {
	case KindPending:
		list, err := payments.Pending(db, orgID, &id, now)
		if err != nil {
			return nil, err
		}
		st.sheetHead = []string{"Comprobante", "Fecha", "Vencimiento", "Días", "Total", "Saldo"}
		for _, p := range list {
			st.Total = st.Total.Add(p.Total)
			st.Balance = st.Balance.Add(p.Balance)
			due, days := "", ""
			if p.DueDate != nil {
				due = day(*p.DueDate)
			}
			if p.DaysUntilDue != nil {
				days = strconv.Itoa(*p.DaysUntilDue)
			}
			st.sheetRows = append(st.sheetRows, []any{p.DocumentNumber, day(p.PurchaseDate), due, days, money(p.Total), money(p.Balance)})
		}
		st.Rows = list
		st.sheetTotal = []any{"Total pendiente", "", "", "", money(st.Total), money(st.Balance)}

	case KindHistory:
		rows, err := payments.History(db, orgID, payments.Filter{SupplierID: &id})
		if err != nil {
			return nil, err
		}
		st.sheetHead = []string{"Fecha", "Comprobante", "Medio", "Cheque", "Monto"}
		for _, r := range rows {
			st.Total = st.Total.Add(r.Amount)
			st.sheetRows = append(st.sheetRows, []any{day(r.Date), r.DocumentNumber, r.Method, r.CheckNumber, money(r.Amount)})
		}
		st.Rows = rows
		st.sheetTotal = []any{"Total pagado", "", "", "", money(st.Total)}

	default:
		var purchases []models.Purchase
		if err := db.Where("organization_id = ? AND supplier_id = ?", orgID, id).
			Order("purchase_date DESC, id DESC").Find(&purchases).Error; err != nil {
			return nil, err
		}
		st.sheetHead = []string{"Comprobante", "Tipo", "Fecha", "Forma de pago", "Estado", "Total", "Saldo"}
		lines := make([]purchaseLine, 0, len(purchases))
		for _, p := range purchases {
			st.Total = st.Total.Add(p.Total)
			st.Balance = st.Balance.Add(p.Balance)
			lines = append(lines, purchaseLine{
				ID:             p.ID,
				DocumentNumber: p.DocumentNumber,
				DocumentType:   p.DocumentType,
				PurchaseDate:   p.PurchaseDate,
				PaymentType:    string(p.PaymentType),
				Status:         p.Status,
				Total:          p.Total,
				Balance:        p.Balance,
			})
			st.sheetRows = append(st.sheetRows, []any{p.DocumentNumber, p.DocumentType, day(p.PurchaseDate), string(p.PaymentType), p.Status, money(p.Total), money(p.Balance)})
		}
		st.Rows = lines
		st.sheetTotal = []any{"Totales", "", "", "", "", money(st.Total), money(st.Balance)}
	}
	return st, nil
}
