package workorders

import (
	"testing"
	"time"

	"taller-backend/internal/models"
	"taller-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestFinalCost(t *testing.T) {
	parts := []models.WorkOrderPart{
		{Name: "Filtro", Quantity: d("2"), Price: d("1500")},
		{Name: "Junta", Quantity: d("0.5"), Price: d("99.99")},
	}
	services := []models.WorkOrderItem{{Total: d("1089")}}
	products := []models.WorkOrderItem{{Total: d("121")}}

	// 3000 + 49.995 + 1089 + 121
	assert.True(t, FinalCost(parts, services, products).Equal(d("4260")))
	assert.True(t, FinalCost(nil, nil, nil).IsZero())
}

func TestBuildItemsAndParts(t *testing.T) {
	db := testutil.SetupDB(t)
	org := testutil.CreateOrganization(t, db, "Taller Oeste")

	labor := models.SaleProduct{OrganizationID: org.ID, Name: "Cambio de embrague", Category: "Servicios",
		WorkHours: d("3"), VAT: d("10.5")}
	require.NoError(t, db.Create(&labor).Error)

	items, err := buildItems(org, []ItemInput{
		{ProductID: &labor.ID, Quantity: d("1")},
		{Description: "Lavado", Quantity: d("2"), Price: dp("500"), Discount: d("10")},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Cambio de embrague", items[0].Description)
	assert.True(t, items[0].Price.Equal(d("30000")))
	assert.True(t, items[0].Total.Equal(d("33150")), items[0].Total.String())

	// 500 - 10% = 450, por 2 = 900, + 21% = 1089
	assert.True(t, items[1].Total.Equal(d("1089")), items[1].Total.String())

	_, err = buildItems(org, []ItemInput{{Quantity: d("1")}})
	assert.Error(t, err)

	parts, err := buildParts(org, []PartInput{
		{ProductID: &labor.ID, Quantity: d("1"), Price: dp("25000")},
		{Name: "Tornillo", Quantity: d("4")},
	})
	require.NoError(t, err)
	assert.True(t, parts[0].Price.Equal(d("25000")))
	assert.True(t, parts[1].Price.IsZero())
}

func TestSetStatus(t *testing.T) {
	wo := &models.WorkOrder{}
	now := time.Now()

	setStatus(wo, models.WorkOrderFinished, now)
	require.NotNil(t, wo.CompletedAt)
	assert.Equal(t, now, *wo.CompletedAt)

	setStatus(wo, models.WorkOrderFinished, now.Add(time.Hour))
	assert.Equal(t, now, *wo.CompletedAt)

	setStatus(wo, models.WorkOrderInProgress, now)
	assert.Nil(t, wo.CompletedAt)
	assert.True(t, validStatus(models.WorkOrderCancelled))
	assert.False(t, validStatus("Perdida"))
}
