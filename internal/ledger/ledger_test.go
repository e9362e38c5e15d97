package ledger

import (
	"errors"
	"testing"
	"time"

	"taller-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		amount  string
		want    string
		status  string
	}{
		{"partial", "1000", "400", "600", models.StatusPendienteDePago},
		{"exact", "1000", "1000", "0", models.StatusPagado},
		{"within epsilon", "1000.005", "1000", "0.005", models.StatusPagado},
		{"just above epsilon", "1000.01", "1000", "0.01", models.StatusPendienteDePago},
		{"overpayment", "100", "150", "-50", models.StatusPagado},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Apply(d(tt.balance), d(tt.amount), SaleLabels)
			require.NoError(t, err)
			assert.True(t, r.Balance.Equal(d(tt.want)), "balance %s", r.Balance)
			assert.Equal(t, tt.status, r.Status)
		})
	}
}

func TestApplyRejectsNonPositive(t *testing.T) {
	_, err := Apply(d("100"), d("0"), SaleLabels)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = Apply(d("100"), d("-5"), PurchaseLabels)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReverseRestoresBalanceExactly(t *testing.T) {
	start := d("1234.56")
	amounts := []string{"0.1", "0.2", "333.33", "1234.56"}
	for _, a := range amounts {
		applied, err := Apply(start, d(a), PurchaseLabels)
		require.NoError(t, err)
		back := Reverse(applied.Balance, d(a), applied.Status, PurchaseLabels)
		assert.True(t, back.Balance.Equal(start), "amount %s", a)
		assert.Equal(t, models.StatusPendienteDePago, back.Status)
	}
}

func TestReverseKeepsStatusWhenStillSettled(t *testing.T) {
	r := Reverse(d("-50"), d("50"), models.StatusPagado, SaleLabels)
	assert.True(t, r.Balance.IsZero())
	assert.Equal(t, models.StatusPagado, r.Status)
}

func TestAdjust(t *testing.T) {
	r, err := Adjust(d("600"), d("400"), d("1000"), models.StatusPendienteDePago, SaleLabels)
	require.NoError(t, err)
	assert.True(t, r.Balance.IsZero())
	assert.Equal(t, models.StatusPagado, r.Status)
}

func TestItemTotal(t *testing.T) {
	assert.True(t, ItemTotal(d("2"), d("1000"), d("21")).Equal(d("2420")))
	assert.True(t, ItemTotal(d("1"), d("99.99"), d("0")).Equal(d("99.99")))
	assert.True(t, ItemTotal(d("3"), d("10.10"), d("10.5")).Equal(d("33.48")))
}

func TestLineTotal(t *testing.T) {
	// 1000 - 10% = 900, x2 = 1800, +21% = 2178
	assert.True(t, LineTotal(d("1000"), d("10"), d("2"), d("21")).Equal(d("2178")))
	assert.True(t, LineTotal(d("500"), d("0"), d("1"), d("0")).Equal(d("500")))
}

func TestCheckCashBreakdown(t *testing.T) {
	methods := []models.PaymentMethodEntry{
		{Method: models.MethodEfectivo, Amount: d("1000")},
		{Method: models.MethodTransferencia, Amount: d("210")},
	}
	assert.NoError(t, CheckCashBreakdown(d("1210"), methods))
	assert.NoError(t, CheckCashBreakdown(d("1210.01"), methods))

	err := CheckCashBreakdown(d("1300"), methods)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCashMismatch))
	assert.Contains(t, err.Error(), "Falta $90.00")

	err = CheckCashBreakdown(d("1200"), methods)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sobra $10.00")
}

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, models.StatusPagado, DisplayStatus(models.SaleTypeFactura, models.StatusPendienteDePago, d("0")))
	assert.Equal(t, models.StatusPendienteDePago, DisplayStatus(models.SaleTypeRecibo, models.StatusPagado, d("10")))
	assert.Equal(t, models.StatusAnulada, DisplayStatus(models.SaleTypeFactura, models.StatusAnulada, d("10")))
	assert.Equal(t, models.StatusAprobado, DisplayStatus(models.SaleTypePresupuesto, models.StatusAprobado, d("10")))
}

func TestDaysUntilDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)
	assert.Nil(t, DaysUntilDue(nil, now))

	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	require.NotNil(t, DaysUntilDue(&due, now))
	assert.Equal(t, 5, *DaysUntilDue(&due, now))

	past := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, -2, *DaysUntilDue(&past, now))
}
