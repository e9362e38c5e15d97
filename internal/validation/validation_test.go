package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
}

type payload struct {
	Name   string           `json:"name" validate:"required,max=10"`
	Amount decimal.Decimal  `json:"amount" validate:"gt=0"`
	Rate   *decimal.Decimal `json:"rate" validate:"omitempty,gte=0,lte=100"`
	Lines  []line           `json:"lines" validate:"dive"`
}

func TestStructOK(t *testing.T) {
	rate := decimal.NewFromInt(21)
	err := Struct(&payload{
		Name:   "Aceite",
		Amount: decimal.RequireFromString("10.5"),
		Rate:   &rate,
		Lines:  []line{{Description: "x", Quantity: decimal.NewFromInt(1)}},
	})
	assert.NoError(t, err)
}

func TestStructFields(t *testing.T) {
	rate := decimal.NewFromInt(150)
	err := Struct(&payload{
		Name:   "",
		Amount: decimal.Zero,
		Rate:   &rate,
		Lines:  []line{{Description: "", Quantity: decimal.NewFromInt(-1)}},
	})
	require.Error(t, err)

	verr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "required", verr.Fields["name"])
	assert.Equal(t, "gt", verr.Fields["amount"])
	assert.Equal(t, "lte", verr.Fields["rate"])
	assert.Equal(t, "required", verr.Fields["lines[0].description"])
	assert.Equal(t, "gt", verr.Fields["lines[0].quantity"])
}
