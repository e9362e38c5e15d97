package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"Nombre", "Categoría", "Precio", "IVA", "Horas"},
		{"Pastillas de freno", "Frenos", "12500,75"},
		{},
		{"Balanceo", "Servicios", "", "10.5", "0,5"},
		{"Lámpara", ""},
		{"Correa", "Motor", "-3"},
		{"Batería", "Eléctrico", "90000", "150"},
	}

	got, skipped := ParseRows(rows)
	require.Len(t, got, 2)

	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, "Pastillas de freno", got[0].Name)
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("12500.75")))
	assert.True(t, got[0].VAT.Equal(decimal.NewFromInt(21)))

	assert.Equal(t, 4, got[1].Line)
	assert.True(t, got[1].VAT.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, got[1].WorkHours.Equal(decimal.RequireFromString("0.5")))

	require.Len(t, skipped, 3)
	assert.Equal(t, "fila 5: falta la categoría", skipped[0])
	assert.Contains(t, skipped[1], "fila 6: precio")
	assert.Equal(t, "fila 7: IVA inválido", skipped[2])
}

func TestParseRowsWithoutHeader(t *testing.T) {
	got, skipped := ParseRows([][]string{{"Aceite 10W40", "Lubricantes", "9800"}})
	require.Len(t, got, 1)
	assert.Empty(t, skipped)
	assert.Equal(t, 1, got[0].Line)
}
