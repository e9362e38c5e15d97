package catalog

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"taller-backend/internal/audit"
	"taller-backend/internal/database"
	"taller-backend/internal/logger"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportRow es una fila de la planilla: nombre, categoría, precio (o costo), IVA y horas de trabajo.
type ImportRow struct {
	Line      int
	Name      string
	Category  string
	Price     decimal.Decimal
	VAT       decimal.Decimal
	WorkHours decimal.Decimal
}

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped"`
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToUpper(strings.TrimSpace(row[0]))
	return first == "NOMBRE" || strings.Contains(first, "PRODUCTO") || strings.Contains(first, "DESCRIPCI")
}

func cellDecimal(row []string, i int, def decimal.Decimal) (decimal.Decimal, error) {
	if i >= len(row) || strings.TrimSpace(row[i]) == "" {
		return def, nil
	}
	raw := strings.ReplaceAll(strings.TrimSpace(row[i]), ",", ".")
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return def, fmt.Errorf("valor inválido %q", row[i])
	}
	return d, nil
}

// ParseRows convierte las filas de la primera hoja. Las filas vacías se ignoran y las
// inválidas se devuelven como omitidas con el motivo.
func ParseRows(rows [][]string) ([]ImportRow, []string) {
	var (
		out     []ImportRow
		skipped []string
	)
	start := 0
	if len(rows) > 0 && isHeader(rows[0]) {
		start = 1
	}
	for i := start; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		r := ImportRow{Line: line, Name: strings.TrimSpace(row[0])}
		if len(row) > 1 {
			r.Category = strings.TrimSpace(row[1])
		}
		if r.Category == "" {
			skipped = append(skipped, fmt.Sprintf("fila %d: falta la categoría", line))
			continue
		}
		var err error
		if r.Price, err = cellDecimal(row, 2, decimal.Zero); err != nil {
			skipped = append(skipped, fmt.Sprintf("fila %d: precio %v", line, err))
			continue
		}
		if r.VAT, err = cellDecimal(row, 3, defaultVAT); err != nil || r.VAT.GreaterThan(decimal.NewFromInt(100)) {
			skipped = append(skipped, fmt.Sprintf("fila %d: IVA inválido", line))
			continue
		}
		if r.WorkHours, err = cellDecimal(row, 4, decimal.Zero); err != nil {
			skipped = append(skipped, fmt.Sprintf("fila %d: horas %v", line, err))
			continue
		}
		out = append(out, r)
	}
	return out, skipped
}

func readSheet(c *fiber.Ctx) ([][]string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Falta el archivo")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Sólo se aceptan archivos .xlsx")
	}
	file, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "No se pudo abrir el archivo")
	}
	defer file.Close()
	return sheetRows(file)
}

func sheetRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "El archivo no es una planilla válida")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "La planilla no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No se pudo leer la hoja")
	}
	if len(rows) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "La planilla está vacía")
	}
	return rows, nil
}

// ImportSaleProducts crea o actualiza por nombre (sin distinguir mayúsculas) dentro de la organización.
func ImportSaleProducts(tx *gorm.DB, orgID uint, rows []ImportRow) (ImportResult, error) {
	var res ImportResult
	for _, r := range rows {
		var p models.SaleProduct
		err := tx.Where("organization_id = ? AND LOWER(name) = ?", orgID, strings.ToLower(r.Name)).First(&p).Error
		switch {
		case err == nil:
			res.Updated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			p = models.SaleProduct{OrganizationID: orgID, Name: r.Name}
			res.Created++
		default:
			return res, err
		}
		p.Category = r.Category
		p.Price = r.Price
		p.VAT = r.VAT
		p.WorkHours = r.WorkHours
		if err := tx.Save(&p).Error; err != nil {
			return res, err
		}
	}
	return res, nil
}

// ImportPurchaseProducts usa la columna de precio como costo; las horas se ignoran.
func ImportPurchaseProducts(tx *gorm.DB, orgID uint, rows []ImportRow) (ImportResult, error) {
	var res ImportResult
	for _, r := range rows {
		var p models.PurchaseProduct
		err := tx.Where("organization_id = ? AND LOWER(name) = ?", orgID, strings.ToLower(r.Name)).First(&p).Error
		switch {
		case err == nil:
			res.Updated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			p = models.PurchaseProduct{OrganizationID: orgID, Name: r.Name}
			res.Created++
		default:
			return res, err
		}
		p.Category = r.Category
		p.Cost = r.Price
		p.VAT = r.VAT
		if err := tx.Save(&p).Error; err != nil {
			return res, err
		}
	}
	return res, nil
}

func importHandler(entity string, run func(tx *gorm.DB, orgID uint, rows []ImportRow) (ImportResult, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		raw, err := readSheet(c)
		if err != nil {
			return err
		}
		rows, skipped := ParseRows(raw)

		var res ImportResult
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			res, err = run(tx, caller.OrganizationID, rows)
			return err
		})
		if err != nil {
			logger.LogError("catalog", "importHandler", "importar planilla", entity, err)
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo importar la planilla")
		}
		if skipped == nil {
			skipped = []string{}
		}
		res.Skipped = skipped

		_ = audit.Record(nil, caller, entity, 0, models.AuditActionUpdate,
			fmt.Sprintf("Importación de planilla: %d creados, %d actualizados, %d omitidos",
				res.Created, res.Updated, len(res.Skipped)), nil, nil)

		return c.JSON(res)
	}
}

// POST /api/sale-products/import
func ImportSaleProductsHandler() fiber.Handler {
	return importHandler(audit.EntitySaleProduct, ImportSaleProducts)
}

// POST /api/purchase-products/import
func ImportPurchaseProductsHandler() fiber.Handler {
	return importHandler(audit.EntityPurchaseProduct, ImportPurchaseProducts)
}
