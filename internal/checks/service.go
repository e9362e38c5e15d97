// Package checks lleva la cartera de cheques. Los cheques se crean y se borran sólo junto
// con el comprobante, cobro o pago que los originó.
package checks

import (
	"errors"
	"strings"
	"time"

	"taller-backend/internal/models"
	"taller-backend/internal/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrMissingNumber = errors.New("el número de cheque es obligatorio")

// Source identifica al documento que originó los cheques.
type Source struct {
	OrganizationID uint
	Type           string // models.CheckSource*
	ID             uint
	CheckType      models.CheckType
	Holder         string
	IssueDate      time.Time
}

// Create guarda un cheque dentro de la transacción del documento.
func Create(tx *gorm.DB, src Source, number, bank string, amount decimal.Decimal, due *time.Time) (*models.Check, error) {
	if strings.TrimSpace(number) == "" {
		return nil, ErrMissingNumber
	}
	check := models.Check{
		OrganizationID: src.OrganizationID,
		CheckNumber:    strings.TrimSpace(number),
		Bank:           strings.TrimSpace(bank),
		Amount:         amount,
		IssueDate:      src.IssueDate,
		DueDate:        due,
		Status:         models.CheckStatusInPortfolio,
		Type:           src.CheckType,
		Holder:         src.Holder,
		SourceType:     src.Type,
		SourceID:       src.ID,
	}
	if err := tx.Create(&check).Error; err != nil {
		return nil, err
	}
	return &check, nil
}

// CreateForMethods crea un cheque por cada medio de pago "Cheque" y deja el id en el detalle.
func CreateForMethods(tx *gorm.DB, src Source, methods []models.PaymentMethodEntry) error {
	for i := range methods {
		m := &methods[i]
		if m.Method != models.MethodCheque || m.CheckDetails == nil {
			continue
		}
		due, err := validation.ParseDate(m.CheckDetails.DueDate)
		if err != nil {
			return err
		}
		check, err := Create(tx, src, m.CheckDetails.CheckNumber, m.CheckDetails.Bank, m.Amount, due)
		if err != nil {
			return err
		}
		m.CheckDetails.CheckID = &check.ID
	}
	return nil
}

// DeleteForSource borra los cheques del documento.
func DeleteForSource(tx *gorm.DB, sourceType string, sourceID uint) error {
	return tx.Where("source_type = ? AND source_id = ?", sourceType, sourceID).Delete(&models.Check{}).Error
}

// DeleteForSources borra los cheques de varios documentos del mismo tipo.
func DeleteForSources(tx *gorm.DB, sourceType string, sourceIDs []uint) error {
	if len(sourceIDs) == 0 {
		return nil
	}
	return tx.Where("source_type = ? AND source_id IN ?", sourceType, sourceIDs).Delete(&models.Check{}).Error
}

func ValidStatus(s string) bool {
	for _, v := range models.CheckStatuses {
		if v == s {
			return true
		}
	}
	return false
}
