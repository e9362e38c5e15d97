package server_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workOrderOut struct {
	ID          uint            `json:"id"`
	OrderNumber int             `json:"order_number"`
	Status      string          `json:"status"`
	AssignedTo  string          `json:"assigned_to"`
	EmployeeID  *uint           `json:"employee_id"`
	FinalCost   decimal.Decimal `json:"final_cost"`
	CompletedAt *time.Time      `json:"completed_at"`
	Parts       []struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	} `json:"parts"`
	ServiceItems []struct {
		Total decimal.Decimal `json:"total"`
	} `json:"service_items"`
	CustomerName string `json:"customer_name"`
	VehiclePlate string `json:"vehicle_plate"`
}

func TestWorkOrderLifecycle(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Marta Gómez")
	veh := e.vehicle(cust, "AB123CD")

	var prod idOut
	e.mustDo("POST", "/api/sale-products", fiber.Map{
		"name": "Embrague", "category": "Transmisión", "work_hours": 2,
	}, fiber.StatusCreated, &prod)
	var emp idOut
	e.mustDo("POST", "/api/employees", fiber.Map{"name": "Hugo"}, fiber.StatusCreated, &emp)

	var wo workOrderOut
	e.mustDo("POST", "/api/work-orders", fiber.Map{
		"customer_id": cust,
		"vehicle_id":  veh,
		"employee_id": emp.ID,
		"description": "Ruido al embragar",
		"parts":       []fiber.Map{{"product_id": prod.ID, "quantity": 1}},
		"service_items": []fiber.Map{
			{"description": "Diagnóstico", "quantity": 1, "price": 1000, "discount": 10, "vat": 21},
		},
	}, fiber.StatusCreated, &wo)

	assert.Equal(t, 1, wo.OrderNumber)
	assert.Equal(t, "Ingresado", wo.Status)
	assert.Equal(t, "Hugo", wo.AssignedTo)
	require.Len(t, wo.Parts, 1)
	assert.Equal(t, "Embrague", wo.Parts[0].Name)
	assert.True(t, wo.Parts[0].Price.Equal(dec("20000")), wo.Parts[0].Price.String())
	require.Len(t, wo.ServiceItems, 1)
	assert.True(t, wo.ServiceItems[0].Total.Equal(dec("1089")))
	assert.True(t, wo.FinalCost.Equal(dec("21089")), wo.FinalCost.String())
	assert.Nil(t, wo.CompletedAt)

	var second workOrderOut
	e.mustDo("POST", "/api/work-orders", fiber.Map{
		"customer_id": cust, "vehicle_id": veh, "status": "En Proceso",
	}, fiber.StatusCreated, &second)
	assert.Equal(t, 2, second.OrderNumber)

	var done workOrderOut
	e.mustDo("PUT", fmt.Sprintf("/api/work-orders/%d/status", wo.ID), fiber.Map{"status": "Finalizado"}, fiber.StatusOK, &done)
	assert.Equal(t, "Finalizado", done.Status)
	assert.NotNil(t, done.CompletedAt)

	var open []workOrderOut
	e.mustDo("GET", "/api/work-orders?state=open", nil, fiber.StatusOK, &open)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)
	assert.Equal(t, "Marta Gómez", open[0].CustomerName)
	assert.Equal(t, "AB123CD", open[0].VehiclePlate)

	var finished []workOrderOut
	e.mustDo("GET", "/api/work-orders?state=finished", nil, fiber.StatusOK, &finished)
	require.Len(t, finished, 1)
	assert.Equal(t, wo.ID, finished[0].ID)

	assert.Equal(t, fiber.StatusBadRequest, e.do("GET", "/api/work-orders?state=todos", nil, nil))

	var reopened workOrderOut
	e.mustDo("PUT", fmt.Sprintf("/api/work-orders/%d/status", wo.ID), fiber.Map{"status": "En Proceso"}, fiber.StatusOK, &reopened)
	assert.Nil(t, reopened.CompletedAt)

	assert.Equal(t, fiber.StatusBadRequest,
		e.do("PUT", fmt.Sprintf("/api/work-orders/%d/status", wo.ID), fiber.Map{"status": "Perdido"}, nil))

	e.mustDo("DELETE", fmt.Sprintf("/api/work-orders/%d", second.ID), nil, fiber.StatusNoContent, nil)
	assert.Equal(t, fiber.StatusNotFound, e.do("GET", fmt.Sprintf("/api/work-orders/%d", second.ID), nil, nil))
}

func TestWorkOrderVehicleMustBelongToCustomer(t *testing.T) {
	e := newEnv(t)
	owner := e.customer("Dueño")
	other := e.customer("Otro")
	veh := e.vehicle(owner, "XY999ZZ")

	code, data, _ := e.raw("POST", "/api/work-orders", fiber.Map{"customer_id": other, "vehicle_id": veh})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, string(data), "no pertenece al cliente")
}
