package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type NumberingMode string

const (
	NumberingAutomatic NumberingMode = "automatic"
	NumberingManual    NumberingMode = "manual"
)

// Organization es el taller (tenant). Todas las tablas de negocio llevan organization_id.
type Organization struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:150;not null;unique" json:"name"`
	TaxID   string `gorm:"size:20" json:"tax_id"`
	Address string `gorm:"size:255" json:"address"`
	Phone   string `gorm:"size:50" json:"phone"`
	Email   string `gorm:"size:100" json:"email"`

	// Valor de la hora de mano de obra, usado para precio de servicios y repuestos de órdenes.
	WorkPriceHour          decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"work_price_hour"`
	SaleDocumentNumberMode NumberingMode   `gorm:"size:20;not null;default:automatic" json:"sale_document_number_mode"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Users []User `json:"-"`
}
