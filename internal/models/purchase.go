package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Purchase struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	OrganizationID uint   `gorm:"not null;index;uniqueIndex:idx_purchases_number,priority:1" json:"organization_id"`
	SupplierID     uint   `gorm:"index;not null;uniqueIndex:idx_purchases_number,priority:2" json:"supplier_id"`
	DocumentType   string `gorm:"size:20;not null;uniqueIndex:idx_purchases_number,priority:3" json:"document_type"`

	Letter         string `gorm:"size:1;not null" json:"letter"`
	PointOfSale    string `gorm:"size:4;not null;uniqueIndex:idx_purchases_number,priority:4" json:"point_of_sale"`
	Number         string `gorm:"size:8;not null;uniqueIndex:idx_purchases_number,priority:5" json:"number"`
	DocumentNumber string `gorm:"size:20;index" json:"document_number"`

	PurchaseDate time.Time   `gorm:"index;not null" json:"purchase_date"`
	DueDate      *time.Time  `json:"due_date"`
	PaymentType  PaymentType `gorm:"size:20;not null" json:"payment_type"`
	Status       string      `gorm:"size:30;not null;index" json:"status"`

	Items          datatypes.JSONSlice[DocumentItem]       `json:"items"`
	PaymentMethods datatypes.JSONSlice[PaymentMethodEntry] `json:"payment_methods"`

	Total   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	Balance decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"balance"`
	Notes   string          `gorm:"size:1000" json:"notes"`

	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
