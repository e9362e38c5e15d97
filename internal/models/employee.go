package models

import "time"

type Employee struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OrganizationID uint       `gorm:"index;not null" json:"organization_id"`
	Name           string     `gorm:"size:100;not null" json:"name"`
	Position       string     `gorm:"size:60" json:"position"`
	Phone          string     `gorm:"size:50" json:"phone"`
	Email          string     `gorm:"size:100" json:"email"`
	HireDate       *time.Time `json:"hire_date"`
	Active         bool       `gorm:"not null" json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
