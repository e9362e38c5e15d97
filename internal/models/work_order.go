package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	WorkOrderReceived   = "Ingresado"
	WorkOrderInProgress = "En Proceso"
	WorkOrderFinished   = "Finalizado"
	WorkOrderCancelled  = "Cancelado"
)

var WorkOrderStatuses = []string{WorkOrderReceived, WorkOrderInProgress, WorkOrderFinished, WorkOrderCancelled}

type WorkOrderPart struct {
	ProductID *uint           `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// WorkOrderItem es un servicio o repuesto con descuento e IVA.
type WorkOrderItem struct {
	ProductID   *uint           `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	VAT         decimal.Decimal `json:"vat"`
	Total       decimal.Decimal `json:"total"`
}

type WorkOrder struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;uniqueIndex:idx_work_orders_number,priority:1" json:"organization_id"`
	OrderNumber    int       `gorm:"not null;uniqueIndex:idx_work_orders_number,priority:2" json:"order_number"`
	CreationDate   time.Time `gorm:"index;not null" json:"creation_date"`
	CustomerID     uint      `gorm:"index;not null" json:"customer_id"`
	VehicleID      uint      `gorm:"index;not null" json:"vehicle_id"`
	EmployeeID     *uint     `gorm:"index" json:"employee_id"`
	AssignedTo     string    `gorm:"size:100" json:"assigned_to"`
	Description    string    `gorm:"size:1000" json:"description"`
	Status         string    `gorm:"size:20;not null;index" json:"status"`

	Parts        datatypes.JSONSlice[WorkOrderPart] `json:"parts"`
	ServiceItems datatypes.JSONSlice[WorkOrderItem] `json:"service_items"`
	ProductItems datatypes.JSONSlice[WorkOrderItem] `json:"product_items"`

	Notes       string          `gorm:"size:2000" json:"notes"`
	FinalCost   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"final_cost"`
	CompletedAt *time.Time      `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
