package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taller-backend/internal/database"
	"taller-backend/internal/logger"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"

	"gorm.io/gorm"
)

// Tipos de entidad registrados en el audit log
const (
	EntityOrganization    = "organization"
	EntityUser            = "user"
	EntityCustomer        = "customer"
	EntityVehicle         = "vehicle"
	EntitySupplier        = "supplier"
	EntityEmployee        = "employee"
	EntitySaleProduct     = "sale_product"
	EntityPurchaseProduct = "purchase_product"
	EntitySale            = "sale"
	EntityPurchase        = "purchase"
	EntityCollection      = "collection"
	EntityPayment         = "payment"
	EntityCheck           = "check"
	EntityWorkOrder       = "work_order"
)

var (
	ErrAlreadyUndone = errors.New("esta operación ya fue revertida")
	ErrNotUndoable   = errors.New("esta operación no se puede revertir")
	ErrInUse         = errors.New("el registro está en uso y no se puede eliminar")
)

// Sólo los datos maestros se pueden revertir; los comprobantes mueven saldos.
var undoable = map[string]func() any{
	EntityCustomer:        func() any { return &models.Customer{} },
	EntityVehicle:         func() any { return &models.Vehicle{} },
	EntitySupplier:        func() any { return &models.Supplier{} },
	EntityEmployee:        func() any { return &models.Employee{} },
	EntitySaleProduct:     func() any { return &models.SaleProduct{} },
	EntityPurchaseProduct: func() any { return &models.PurchaseProduct{} },
}

type LogOptions struct {
	OrganizationID *uint
	UserID         uint
	UserName       string
	EntityType     string
	EntityID       uint
	Action         models.AuditAction
	Description    string
	Before         any
	After          any
}

func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// WriteLogTx escribe el log dentro de la transacción de la operación.
func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	// jsonb no acepta string vacío
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	entry := models.AuditLog{
		OrganizationID: opts.OrganizationID,
		UserID:         opts.UserID,
		UserName:       opts.UserName,
		EntityType:     opts.EntityType,
		EntityID:       opts.EntityID,
		Action:         opts.Action,
		Description:    opts.Description,
		BeforeData:     beforeStr,
		AfterData:      afterStr,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("no se pudo guardar el audit log: %w", err)
	}
	return nil
}

// Record escribe el log de una operación del usuario que hizo el request. Con tx nil usa
// la conexión global y sólo registra el error: el cambio ya quedó guardado.
func Record(tx *gorm.DB, caller scope.Caller, entityType string, entityID uint, action models.AuditAction, description string, before, after any) error {
	opts := LogOptions{
		OrganizationID: caller.OrgPtr(),
		UserID:         caller.UserID,
		UserName:       caller.UserName,
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         action,
		Description:    description,
		Before:         before,
		After:          after,
	}
	if tx != nil {
		return WriteLogTx(tx, opts)
	}
	if err := WriteLog(opts); err != nil {
		logger.LogError("audit", "Record", "audit log no guardado", opts.EntityType, err)
	}
	return nil
}

// UndoLog revierte una operación sobre datos maestros y registra el undo.
func UndoLog(logID uint, userID uint, userName string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("log no encontrado: %w", err)
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}
		newFn, ok := undoable[entry.EntityType]
		// Las importaciones masivas se registran sin id de entidad.
		if !ok || entry.EntityID == 0 {
			return ErrNotUndoable
		}

		switch entry.Action {
		case models.AuditActionCreate:
			if err := ensureUnreferenced(tx, entry.EntityType, entry.EntityID); err != nil {
				return err
			}
			if err := tx.Delete(newFn(), "id = ?", entry.EntityID).Error; err != nil {
				return fmt.Errorf("no se pudo eliminar: %w", err)
			}

		case models.AuditActionUpdate:
			obj := newFn()
			if err := json.Unmarshal([]byte(entry.BeforeData), obj); err != nil {
				return err
			}
			if err := tx.Save(obj).Error; err != nil {
				return fmt.Errorf("no se pudo restaurar: %w", err)
			}

		case models.AuditActionDelete:
			// Se recrea con el mismo id para que las referencias sigan valiendo.
			obj := newFn()
			if err := json.Unmarshal([]byte(entry.BeforeData), obj); err != nil {
				return err
			}
			if err := tx.Create(obj).Error; err != nil {
				return fmt.Errorf("no se pudo recrear: %w", err)
			}

		default:
			return ErrNotUndoable
		}

		now := time.Now()
		entry.IsUndone = true
		entry.UndoneBy = &userID
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("no se pudo actualizar el log: %w", err)
		}

		return tx.Create(&models.AuditLog{
			OrganizationID: entry.OrganizationID,
			UserID:         userID,
			UserName:       userName,
			EntityType:     entry.EntityType,
			EntityID:       entry.EntityID,
			Action:         models.AuditActionUndo,
			Description:    fmt.Sprintf("Revertido: %s", entry.Description),
			BeforeData:     entry.AfterData,
			AfterData:      entry.BeforeData,
			Undone:         true,
		}).Error
	})
}

// ensureUnreferenced aplica las mismas reglas que el borrado manual.
func ensureUnreferenced(tx *gorm.DB, entityType string, id uint) error {
	type ref struct {
		model any
		where string
	}
	var refs []ref
	switch entityType {
	case EntityCustomer:
		refs = []ref{
			{&models.Sale{}, "customer_id = ?"},
			{&models.Vehicle{}, "customer_id = ?"},
			{&models.WorkOrder{}, "customer_id = ?"},
		}
	case EntityVehicle:
		refs = []ref{{&models.WorkOrder{}, "vehicle_id = ?"}}
	case EntitySupplier:
		refs = []ref{{&models.Purchase{}, "supplier_id = ?"}}
	case EntityEmployee:
		refs = []ref{{&models.WorkOrder{}, "employee_id = ?"}}
	}

	for _, r := range refs {
		var count int64
		if err := tx.Model(r.model).Where(r.where, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrInUse
		}
	}
	return nil
}
