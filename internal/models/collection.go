package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection es un cobro contra una venta en cuenta corriente.
type Collection struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrganizationID uint            `gorm:"index;not null" json:"organization_id"`
	SaleID         uint            `gorm:"index;not null" json:"sale_id"`
	CustomerID     uint            `gorm:"index;not null" json:"customer_id"`
	CollectionDate time.Time       `gorm:"index;not null" json:"collection_date"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Method         string          `gorm:"size:30;not null" json:"method"`
	CheckNumber    string          `gorm:"size:50" json:"check_number"`
	CheckBank      string          `gorm:"size:100" json:"check_bank"`
	CheckDueDate   *time.Time      `json:"check_due_date"`
	Notes          string          `gorm:"size:500" json:"notes"`
	CreatedBy      uint            `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Payment es un pago a proveedor contra una compra en cuenta corriente.
type Payment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrganizationID uint            `gorm:"index;not null" json:"organization_id"`
	PurchaseID     uint            `gorm:"index;not null" json:"purchase_id"`
	SupplierID     uint            `gorm:"index;not null" json:"supplier_id"`
	PaymentDate    time.Time       `gorm:"index;not null" json:"payment_date"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Method         string          `gorm:"size:30;not null" json:"method"`
	CheckNumber    string          `gorm:"size:50" json:"check_number"`
	CheckBank      string          `gorm:"size:100" json:"check_bank"`
	CheckDueDate   *time.Time      `json:"check_due_date"`
	Notes          string          `gorm:"size:500" json:"notes"`
	CreatedBy      uint            `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
