package server_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCustomerStatementXLSX(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Raúl Pérez")
	s := e.accountSale(cust)

	var pending struct {
		Kind    string          `json:"kind"`
		Balance decimal.Decimal `json:"balance"`
	}
	e.mustDo("GET", fmt.Sprintf("/api/customers/%d/statement", cust), nil, fiber.StatusOK, &pending)
	assert.Equal(t, "pending", pending.Kind)
	assert.True(t, dec("121").Equal(pending.Balance), pending.Balance.String())

	code, data, contentType := e.raw("GET", fmt.Sprintf("/api/customers/%d/statement?kind=all&format=xlsx", cust), nil)
	require.Equal(t, fiber.StatusOK, code, string(data))
	assert.Contains(t, contentType, "spreadsheetml")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	head, err := f.GetCellValue("Estado de cuenta", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Comprobante", head)
	first, err := f.GetCellValue("Estado de cuenta", "A4")
	require.NoError(t, err)
	assert.Equal(t, s.SaleNumber, first)

	assert.Equal(t, fiber.StatusBadRequest,
		e.do("GET", fmt.Sprintf("/api/customers/%d/statement?kind=todo", cust), nil, nil))
}

type auditOut struct {
	ID         uint   `json:"id"`
	EntityID   uint   `json:"entity_id"`
	Action     string `json:"action"`
	IsUndone   bool   `json:"is_undone"`
	EntityType string `json:"entity_type"`
}

func TestUndoCustomerDelete(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Borrable")
	e.mustDo("DELETE", fmt.Sprintf("/api/customers/%d", cust), nil, fiber.StatusNoContent, nil)
	assert.Equal(t, fiber.StatusNotFound, e.do("GET", fmt.Sprintf("/api/customers/%d", cust), nil, nil))

	var logs []auditOut
	e.mustDo("GET", "/api/audit-logs?entity_type=customer", nil, fiber.StatusOK, &logs)
	require.Len(t, logs, 2)
	assert.Equal(t, "delete", logs[0].Action)
	assert.Equal(t, cust, logs[0].EntityID)

	e.mustDo("POST", fmt.Sprintf("/api/audit-logs/%d/undo", logs[0].ID), nil, fiber.StatusOK, nil)
	e.mustDo("GET", fmt.Sprintf("/api/customers/%d", cust), nil, fiber.StatusOK, nil)

	assert.Equal(t, fiber.StatusConflict, e.do("POST", fmt.Sprintf("/api/audit-logs/%d/undo", logs[0].ID), nil, nil))
}

func TestCustomerWithSalesCannotBeDeleted(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Con ventas")
	e.accountSale(cust)

	assert.Equal(t, fiber.StatusConflict, e.do("DELETE", fmt.Sprintf("/api/customers/%d", cust), nil, nil))
}

func TestDashboardSummary(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Cliente")
	e.cashSale(cust, []fiber.Map{{"method": "Efectivo", "amount": 121}})
	s := e.accountSale(cust)
	e.mustDo("POST", "/api/collections", fiber.Map{
		"sale_id": s.ID, "amount": 21, "method": "Efectivo",
	}, fiber.StatusCreated, nil)

	sup := e.supplier("Proveedor")
	e.mustDo("POST", "/api/purchases", fiber.Map{
		"supplier_id": sup, "document_type": "Factura",
		"document_number_parts": fiber.Map{"letter": "A", "point_of_sale": "1", "number": "10"},
		"payment_type":          "Cuenta Corriente",
		"items":                 []fiber.Map{item()},
	}, fiber.StatusCreated, nil)

	veh := e.vehicle(cust, "AA000AA")
	e.mustDo("POST", "/api/work-orders", fiber.Map{"customer_id": cust, "vehicle_id": veh}, fiber.StatusCreated, nil)

	var sum struct {
		SalesTotal            decimal.Decimal `json:"sales_total"`
		SalesCount            int64           `json:"sales_count"`
		PurchasesTotal        decimal.Decimal `json:"purchases_total"`
		Collected             decimal.Decimal `json:"collected"`
		Paid                  decimal.Decimal `json:"paid"`
		ReceivableOutstanding decimal.Decimal `json:"receivable_outstanding"`
		PayableOutstanding    decimal.Decimal `json:"payable_outstanding"`
		OpenWorkOrders        int64           `json:"open_work_orders"`
	}
	e.mustDo("GET", "/api/dashboard/summary", nil, fiber.StatusOK, &sum)

	assert.True(t, dec("242").Equal(sum.SalesTotal), sum.SalesTotal.String())
	assert.Equal(t, int64(2), sum.SalesCount)
	assert.True(t, dec("121").Equal(sum.PurchasesTotal), sum.PurchasesTotal.String())
	assert.True(t, dec("142").Equal(sum.Collected), sum.Collected.String())
	assert.True(t, sum.Paid.IsZero(), sum.Paid.String())
	assert.True(t, dec("100").Equal(sum.ReceivableOutstanding), sum.ReceivableOutstanding.String())
	assert.True(t, dec("121").Equal(sum.PayableOutstanding), sum.PayableOutstanding.String())
	assert.Equal(t, int64(1), sum.OpenWorkOrders)

	var chart struct {
		Period      string `json:"period"`
		GrandTotals struct {
			In  decimal.Decimal `json:"in"`
			Out decimal.Decimal `json:"out"`
		} `json:"grand_totals"`
	}
	e.mustDo("GET", "/api/dashboard/cash-chart?period=daily&count=1", nil, fiber.StatusOK, &chart)
	assert.Equal(t, "daily", chart.Period)
	assert.True(t, dec("142").Equal(chart.GrandTotals.In), chart.GrandTotals.In.String())
	assert.True(t, chart.GrandTotals.Out.IsZero())

	assert.Equal(t, fiber.StatusBadRequest, e.do("GET", "/api/dashboard/cash-chart?period=yearly", nil, nil))
	assert.Equal(t, fiber.StatusBadRequest, e.do("GET", "/api/dashboard/cash-chart?count=0", nil, nil))
}

func (e *env) upload(path string, rows [][]any) (int, []byte) {
	e.t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(e.t, err)
		require.NoError(e.t, f.SetSheetRow("Sheet1", cell, &r))
	}
	sheet, err := f.WriteToBuffer()
	require.NoError(e.t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "productos.xlsx")
	require.NoError(e.t, err)
	_, err = part.Write(sheet.Bytes())
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, data
}

func TestImportSaleProducts(t *testing.T) {
	e := newEnv(t)
	rows := [][]any{
		{"Nombre", "Categoría", "Precio", "IVA", "Horas"},
		{"Filtro de aceite", "Filtros", "1500,50", "10.5"},
		{"Alineación", "Servicios", "", "", "1"},
		{"Sin categoría"},
	}

	code, data := e.upload("/api/sale-products/import", rows)
	require.Equal(t, fiber.StatusOK, code, string(data))
	assert.JSONEq(t, `{"created":2,"updated":0,"skipped":["fila 4: falta la categoría"]}`, string(data))

	code, data = e.upload("/api/sale-products/import", rows[:2])
	require.Equal(t, fiber.StatusOK, code, string(data))
	assert.JSONEq(t, `{"created":0,"updated":1,"skipped":[]}`, string(data))

	var products []struct {
		Name      string          `json:"name"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	}
	e.mustDo("GET", "/api/sale-products", nil, fiber.StatusOK, &products)
	require.Len(t, products, 2)
	prices := map[string]decimal.Decimal{}
	for _, p := range products {
		prices[p.Name] = p.UnitPrice
	}
	assert.True(t, dec("1500.5").Equal(prices["Filtro de aceite"]))
	assert.True(t, dec("10000").Equal(prices["Alineación"]))

	code, _ = e.upload("/api/purchase-products/import", [][]any{{"Bujía", "Encendido", "800"}})
	assert.Equal(t, fiber.StatusOK, code)
}
