package statements

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Estado de cuenta"

// WriteXLSX vuelca el estado de cuenta: título, encabezados, una fila por línea y la fila de totales.
func (s *Statement) WriteXLSX() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s - %s (%s)", s.PartyName, kindTitle(s.Kind), s.Generated.Format("02/01/2006"))
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writeRow(f, 3, toAny(s.sheetHead)); err != nil {
		return nil, err
	}
	row := 4
	for _, r := range s.sheetRows {
		if err := writeRow(f, row, r); err != nil {
			return nil, err
		}
		row++
	}
	if err := writeRow(f, row, s.sheetTotal); err != nil {
		return nil, err
	}

	last, _ := excelize.ColumnNumberToName(len(s.sheetHead))
	_ = f.SetCellStyle(sheetName, "A1", "A1", bold)
	_ = f.SetCellStyle(sheetName, "A3", fmt.Sprintf("%s3", last), bold)
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", last, row), bold)
	_ = f.SetColWidth(sheetName, "A", last, 18)

	return f.WriteToBuffer()
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &values)
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func kindTitle(kind string) string {
	switch kind {
	case KindPending:
		return "Pendientes"
	case KindHistory:
		return "Historial de pagos"
	}
	return "Todos los comprobantes"
}
