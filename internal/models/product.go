package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleProduct: productos y servicios que se venden. Si tiene horas de trabajo,
// el precio sale de work_hours * valor hora de la organización.
type SaleProduct struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrganizationID uint            `gorm:"index;not null" json:"organization_id"`
	Name           string          `gorm:"size:150;not null" json:"name"`
	Description    string          `gorm:"size:500" json:"description"`
	Category       string          `gorm:"size:60;not null;index" json:"category"`
	Price          decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"price"`
	WorkHours      decimal.Decimal `gorm:"type:decimal(8,2);not null;default:0" json:"work_hours"`
	VAT            decimal.Decimal `gorm:"type:decimal(5,2);not null;default:21" json:"vat"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// UnitPrice devuelve el precio de lista con el valor hora dado.
func (p SaleProduct) UnitPrice(workPriceHour decimal.Decimal) decimal.Decimal {
	if p.WorkHours.IsPositive() {
		return p.WorkHours.Mul(workPriceHour).Round(2)
	}
	return p.Price
}

type PurchaseProduct struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrganizationID uint            `gorm:"index;not null" json:"organization_id"`
	Name           string          `gorm:"size:150;not null" json:"name"`
	Description    string          `gorm:"size:500" json:"description"`
	Category       string          `gorm:"size:60;not null;index" json:"category"`
	Cost           decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cost"`
	VAT            decimal.Decimal `gorm:"type:decimal(5,2);not null;default:21" json:"vat"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
