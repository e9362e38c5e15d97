package numbering

import (
	"taller-backend/internal/models"

	"gorm.io/gorm"
)

// NextSaleNumber calcula el próximo número para {tipo, punto de venta} de la organización.
// Debe llamarse con el lock de SaleKey tomado y dentro de la transacción que inserta.
func NextSaleNumber(tx *gorm.DB, orgID uint, t models.SaleType, pointOfSale string) (string, error) {
	var numbers []string
	if err := tx.Model(&models.Sale{}).
		Where("organization_id = ? AND type = ? AND point_of_sale = ?", orgID, t, pointOfSale).
		Pluck("number", &numbers).Error; err != nil {
		return "", err
	}
	return Pad(Next(numbers), SequenceWidth), nil
}

// NextPurchaseNumber numera por proveedor: cada proveedor tiene su propia serie.
func NextPurchaseNumber(tx *gorm.DB, orgID, supplierID uint, documentType, pointOfSale string) (string, error) {
	var numbers []string
	if err := tx.Model(&models.Purchase{}).
		Where("organization_id = ? AND supplier_id = ? AND document_type = ? AND point_of_sale = ?",
			orgID, supplierID, documentType, pointOfSale).
		Pluck("number", &numbers).Error; err != nil {
		return "", err
	}
	return Pad(Next(numbers), SequenceWidth), nil
}

func NextWorkOrderNumber(tx *gorm.DB, orgID uint) (int, error) {
	var max int
	if err := tx.Model(&models.WorkOrder{}).
		Where("organization_id = ?", orgID).
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

type Duplicate struct {
	Kind           string `json:"kind"`
	OrganizationID uint   `json:"organization_id"`
	SupplierID     uint   `json:"supplier_id,omitempty"`
	DocumentType   string `json:"document_type"`
	PointOfSale    string `json:"point_of_sale"`
	Number         string `json:"number"`
	Count          int64  `json:"count"`
}

// FindDuplicates lista números repetidos (ventas por tipo y punto de venta, compras además por proveedor).
func FindDuplicates(db *gorm.DB) ([]Duplicate, error) {
	var sales []Duplicate
	if err := db.Model(&models.Sale{}).
		Select("'sale' AS kind, organization_id, type AS document_type, point_of_sale, number, COUNT(*) AS count").
		Group("organization_id, type, point_of_sale, number").
		Having("COUNT(*) > 1").
		Scan(&sales).Error; err != nil {
		return nil, err
	}

	var purchases []Duplicate
	if err := db.Model(&models.Purchase{}).
		Select("'purchase' AS kind, organization_id, supplier_id, document_type, point_of_sale, number, COUNT(*) AS count").
		Group("organization_id, supplier_id, document_type, point_of_sale, number").
		Having("COUNT(*) > 1").
		Scan(&purchases).Error; err != nil {
		return nil, err
	}

	return append(sales, purchases...), nil
}
