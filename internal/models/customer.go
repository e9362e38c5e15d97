package models

import "time"

type Customer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"index;not null" json:"organization_id"`
	Name           string    `gorm:"size:150;not null" json:"name"`
	TaxID          string    `gorm:"size:20;index" json:"tax_id"`  // CUIT / DNI
	TaxCondition   string    `gorm:"size:50" json:"tax_condition"` // Responsable Inscripto, Monotributo, Consumidor Final...
	Phone          string    `gorm:"size:50" json:"phone"`
	Email          string    `gorm:"size:100" json:"email"`
	Address        string    `gorm:"size:255" json:"address"`
	Notes          string    `gorm:"size:1000" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Vehicle struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;uniqueIndex:idx_vehicles_plate,priority:1" json:"organization_id"`
	CustomerID     uint      `gorm:"index;not null" json:"customer_id"`
	Brand          string    `gorm:"size:60" json:"brand"`
	Model          string    `gorm:"size:60;not null" json:"model"`
	Year           int       `json:"year"`
	Plate          string    `gorm:"size:15;not null;uniqueIndex:idx_vehicles_plate,priority:2" json:"plate"`
	VIN            string    `gorm:"size:30" json:"vin"`
	Color          string    `gorm:"size:30" json:"color"`
	VehicleType    string    `gorm:"size:30" json:"vehicle_type"`
	Mileage        int       `json:"mileage"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
