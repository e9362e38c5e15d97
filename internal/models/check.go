package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckType string

const (
	CheckReceived CheckType = "recibido"
	CheckIssued   CheckType = "emitido"
)

const (
	CheckStatusInPortfolio = "en_cartera"
	CheckStatusDeposited   = "depositado"
	CheckStatusCashed      = "cobrado"
	CheckStatusEndorsed    = "entregado"
	CheckStatusBounced     = "rechazado"
	CheckStatusVoided      = "anulado"
)

var CheckStatuses = []string{
	CheckStatusInPortfolio, CheckStatusDeposited, CheckStatusCashed,
	CheckStatusEndorsed, CheckStatusBounced, CheckStatusVoided,
}

// Origen del cheque
const (
	CheckSourceSale       = "sale"
	CheckSourcePurchase   = "purchase"
	CheckSourceCollection = "collection"
	CheckSourcePayment    = "payment"
)

type Check struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrganizationID uint            `gorm:"index;not null" json:"organization_id"`
	CheckNumber    string          `gorm:"size:50;not null" json:"check_number"`
	Bank           string          `gorm:"size:100" json:"bank"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	IssueDate      time.Time       `gorm:"not null" json:"issue_date"`
	DueDate        *time.Time      `gorm:"index" json:"due_date"`
	Status         string          `gorm:"size:20;not null;index" json:"status"`
	Type           CheckType       `gorm:"size:10;not null;index" json:"type"`
	Holder         string          `gorm:"size:150" json:"holder"`

	// Documento que originó el cheque (venta, compra, cobro o pago)
	SourceType string `gorm:"size:20;not null;index:idx_checks_source,priority:1" json:"source_type"`
	SourceID   uint   `gorm:"not null;index:idx_checks_source,priority:2" json:"source_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
