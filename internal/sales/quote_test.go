package sales

import (
	"testing"
	"time"

	"taller-backend/internal/models"
	"taller-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionQuoteOnlyFromPending(t *testing.T) {
	db := testutil.SetupDB(t)
	org := testutil.CreateOrganization(t, db, "Taller Norte")

	quote := models.Sale{
		OrganizationID: org.ID,
		CustomerID:     1,
		Type:           models.SaleTypePresupuesto,
		Letter:         "X",
		PointOfSale:    "0001",
		Number:         "00000001",
		SaleNumber:     "X-0001-00000001",
		SaleDate:       time.Now(),
		PaymentType:    models.PaymentNotApplicable,
		Status:         models.StatusPendiente,
		Total:          decimal.NewFromInt(121),
		Balance:        decimal.Zero,
	}
	require.NoError(t, db.Create(&quote).Error)

	// Otra petición lo facturó entre la lectura y la escritura.
	require.NoError(t, db.Model(&models.Sale{}).Where("id = ?", quote.ID).
		Update("status", models.StatusFacturado).Error)

	err := transitionQuote(db, quote.ID, models.StatusAprobado)
	assert.ErrorIs(t, err, ErrQuoteChanged)

	var got models.Sale
	require.NoError(t, db.First(&got, quote.ID).Error)
	assert.Equal(t, models.StatusFacturado, got.Status)

	require.NoError(t, db.Model(&models.Sale{}).Where("id = ?", quote.ID).
		Update("status", models.StatusPendiente).Error)
	assert.NoError(t, transitionQuote(db, quote.ID, models.StatusRechazado))
	require.NoError(t, db.First(&got, quote.ID).Error)
	assert.Equal(t, models.StatusRechazado, got.Status)
}
