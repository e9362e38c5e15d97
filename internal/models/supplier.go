package models

import "time"

type Supplier struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"index;not null" json:"organization_id"`
	Name           string    `gorm:"size:150;not null" json:"name"`
	TaxID          string    `gorm:"size:20" json:"tax_id"`
	ContactName    string    `gorm:"size:100" json:"contact_name"`
	Phone          string    `gorm:"size:50" json:"phone"`
	Email          string    `gorm:"size:100" json:"email"`
	Address        string    `gorm:"size:255" json:"address"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
