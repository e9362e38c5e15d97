package server_test

import (
	"fmt"
	"testing"

	"taller-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectionOut struct {
	Collection struct {
		ID     uint            `json:"id"`
		Amount decimal.Decimal `json:"amount"`
	} `json:"collection"`
	SaleBalance decimal.Decimal `json:"sale_balance"`
	SaleStatus  string          `json:"sale_status"`
}

type historyOut struct {
	ID      string          `json:"id"`
	Virtual bool            `json:"virtual"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
}

func TestCollectionsApplyAdjustAndReverse(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Roberto")
	s := e.accountSale(cust)
	assert.Equal(t, models.StatusPendienteDePago, s.Status)

	var first collectionOut
	e.mustDo("POST", "/api/collections", fiber.Map{
		"sale_id": s.ID, "amount": 21, "method": "Efectivo", "collection_date": "2026-03-01",
	}, fiber.StatusCreated, &first)
	assert.True(t, dec("100").Equal(first.SaleBalance), first.SaleBalance.String())
	assert.Equal(t, models.StatusPendienteDePago, first.SaleStatus)

	var second collectionOut
	e.mustDo("POST", "/api/collections", fiber.Map{
		"sale_id": s.ID, "amount": 100, "method": "Transferencia", "collection_date": "2026-03-02",
	}, fiber.StatusCreated, &second)
	assert.True(t, second.SaleBalance.IsZero(), second.SaleBalance.String())
	assert.Equal(t, models.StatusPagado, second.SaleStatus)

	// Bajar el monto vuelve a dejar saldo.
	var adjusted collectionOut
	e.mustDo("PUT", fmt.Sprintf("/api/collections/%d", second.Collection.ID), fiber.Map{
		"amount": 60,
	}, fiber.StatusOK, &adjusted)
	assert.True(t, dec("40").Equal(adjusted.SaleBalance), adjusted.SaleBalance.String())
	assert.Equal(t, models.StatusPendienteDePago, adjusted.SaleStatus)

	var reversed struct {
		SaleBalance decimal.Decimal `json:"sale_balance"`
		SaleStatus  string          `json:"sale_status"`
	}
	e.mustDo("DELETE", fmt.Sprintf("/api/collections/%d", first.Collection.ID), nil, fiber.StatusOK, &reversed)
	assert.True(t, dec("61").Equal(reversed.SaleBalance), reversed.SaleBalance.String())

	var sale models.Sale
	require.NoError(t, e.db.First(&sale, s.ID).Error)
	assert.True(t, dec("61").Equal(sale.Balance))
	assert.Equal(t, models.StatusPendienteDePago, sale.Status)
}

func TestOverpaymentLeavesNegativeBalance(t *testing.T) {
	e := newEnv(t)
	s := e.accountSale(e.customer("Sofía"))

	var out collectionOut
	e.mustDo("POST", "/api/collections", fiber.Map{
		"sale_id": s.ID, "amount": 150, "method": "Efectivo",
	}, fiber.StatusCreated, &out)
	assert.True(t, dec("-29").Equal(out.SaleBalance), out.SaleBalance.String())
	assert.Equal(t, models.StatusPagado, out.SaleStatus)
}

func TestCollectionsRejectCashAndVoidedSales(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Diego")
	cash := e.cashSale(cust, []fiber.Map{{"method": "Efectivo", "amount": 121}})

	assert.Equal(t, fiber.StatusBadRequest, e.do("POST", "/api/collections", fiber.Map{
		"sale_id": cash.ID, "amount": 10, "method": "Efectivo",
	}, nil))

	s := e.accountSale(cust)
	require.NoError(t, e.db.Model(&models.Sale{}).Where("id = ?", s.ID).Update("status", models.StatusAnulada).Error)
	assert.Equal(t, fiber.StatusConflict, e.do("POST", "/api/collections", fiber.Map{
		"sale_id": s.ID, "amount": 10, "method": "Efectivo",
	}, nil))

	// Cheque sin número
	s2 := e.accountSale(cust)
	assert.Equal(t, fiber.StatusBadRequest, e.do("POST", "/api/collections", fiber.Map{
		"sale_id": s2.ID, "amount": 10, "method": "Cheque",
	}, nil))
}

func TestCollectionHistoryIncludesCashSales(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Lucía")
	cash := e.cashSale(cust, []fiber.Map{
		{"method": "Efectivo", "amount": 100},
		{"method": "Tarjeta de Débito", "amount": 21},
	})
	s := e.accountSale(cust)
	e.mustDo("POST", "/api/collections", fiber.Map{
		"sale_id": s.ID, "amount": 50, "method": "Efectivo",
	}, fiber.StatusCreated, nil)

	var rows []historyOut
	e.mustDo("GET", fmt.Sprintf("/api/collections?customer_id=%d", cust), nil, fiber.StatusOK, &rows)
	require.Len(t, rows, 3)

	virtual := 0
	for _, r := range rows {
		if r.Virtual {
			virtual++
		}
	}
	assert.Equal(t, 2, virtual)

	vid := fmt.Sprintf("%d-cash-0", cash.ID)
	var errOut struct {
		Error string `json:"error"`
	}
	assert.Equal(t, fiber.StatusBadRequest, e.do("PUT", "/api/collections/"+vid, fiber.Map{"amount": 1}, &errOut))
	assert.Contains(t, errOut.Error, "no se pueden editar")
	assert.Equal(t, fiber.StatusBadRequest, e.do("DELETE", "/api/collections/"+vid, nil, &errOut))
	assert.Contains(t, errOut.Error, "no se pueden eliminar")
}

func TestPendingCollectionsSortedByDueDate(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Martín")

	mk := func(due string) uint {
		body := fiber.Map{
			"customer_id": cust, "type": "Factura", "payment_type": "Cuenta Corriente",
			"items": []fiber.Map{item()},
		}
		if due != "" {
			body["due_date"] = due
		}
		var s saleOut
		e.mustDo("POST", "/api/sales", body, fiber.StatusCreated, &s)
		return s.ID
	}
	noDue := mk("")
	late := mk("2030-06-01")
	early := mk("2030-01-01")

	paid := e.accountSale(cust)
	e.mustDo("POST", "/api/collections", fiber.Map{"sale_id": paid.ID, "amount": 121, "method": "Efectivo"}, fiber.StatusCreated, nil)

	var list []struct {
		ID           uint `json:"id"`
		DaysUntilDue *int `json:"days_until_due"`
	}
	e.mustDo("GET", "/api/collections/pending", nil, fiber.StatusOK, &list)
	require.Len(t, list, 3)
	assert.Equal(t, []uint{early, late, noDue}, []uint{list[0].ID, list[1].ID, list[2].ID})
	assert.NotNil(t, list[0].DaysUntilDue)
	assert.Nil(t, list[2].DaysUntilDue)
}

func TestDeleteSaleCascadesToCollectionsAndChecks(t *testing.T) {
	e := newEnv(t)
	s := e.accountSale(e.customer("Andrea"))

	e.mustDo("POST", "/api/collections", fiber.Map{
		"sale_id": s.ID, "amount": 50, "method": "Cheque",
		"check_details": fiber.Map{"check_number": "778899", "bank": "Galicia", "due_date": "2026-11-30"},
	}, fiber.StatusCreated, nil)

	var count int64
	e.db.Model(&models.Check{}).Where("source_type = ?", models.CheckSourceCollection).Count(&count)
	require.Equal(t, int64(1), count)

	e.mustDo("DELETE", fmt.Sprintf("/api/sales/%d", s.ID), nil, fiber.StatusNoContent, nil)

	e.db.Model(&models.Check{}).Count(&count)
	assert.Zero(t, count)
	e.db.Model(&models.Collection{}).Count(&count)
	assert.Zero(t, count)
	e.db.Model(&models.Sale{}).Count(&count)
	assert.Zero(t, count)
}

func TestPurchasesAndPayments(t *testing.T) {
	e := newEnv(t)
	sup := e.supplier("Repuestos del Sur")

	type purchaseOut struct {
		ID             uint            `json:"id"`
		DocumentNumber string          `json:"document_number"`
		Status         string          `json:"status"`
		Balance        decimal.Decimal `json:"balance"`
		SupplierName   string          `json:"supplier_name"`
	}
	var p purchaseOut
	e.mustDo("POST", "/api/purchases", fiber.Map{
		"supplier_id": sup, "document_type": "Factura",
		"document_number_parts": fiber.Map{"letter": "a", "point_of_sale": "2", "number": "1500"},
		"payment_type":          "Cuenta Corriente",
		"items":                 []fiber.Map{{"description": "Filtros", "quantity": 10, "unit_price": 10, "iva": 21}},
	}, fiber.StatusCreated, &p)
	assert.Equal(t, "A-0002-00001500", p.DocumentNumber)
	assert.Equal(t, models.StatusPendienteDePago, p.Status)
	assert.Equal(t, "Repuestos del Sur", p.SupplierName)

	// Mismo número del mismo proveedor: conflicto.
	assert.Equal(t, fiber.StatusConflict, e.do("POST", "/api/purchases", fiber.Map{
		"supplier_id": sup, "document_type": "Factura",
		"document_number_parts": fiber.Map{"letter": "A", "point_of_sale": "2", "number": "1500"},
		"items":                 []fiber.Map{item()},
	}, nil))

	var pay struct {
		Payment struct {
			ID uint `json:"id"`
		} `json:"payment"`
		PurchaseBalance decimal.Decimal `json:"purchase_balance"`
		PurchaseStatus  string          `json:"purchase_status"`
	}
	e.mustDo("POST", "/api/payments", fiber.Map{
		"purchase_id": p.ID, "amount": 121, "method": "Cheque",
		"check_details": fiber.Map{"check_number": "5001", "bank": "Santander", "due_date": "2026-12-15"},
	}, fiber.StatusCreated, &pay)
	assert.True(t, pay.PurchaseBalance.IsZero(), pay.PurchaseBalance.String())
	assert.Equal(t, models.StatusPagada, pay.PurchaseStatus)

	var issued models.Check
	require.NoError(t, e.db.Where("source_type = ?", models.CheckSourcePayment).First(&issued).Error)
	assert.Equal(t, models.CheckIssued, issued.Type)
	assert.Equal(t, "Repuestos del Sur", issued.Holder)

	var pending []struct {
		ID uint `json:"id"`
	}
	e.mustDo("GET", "/api/payments/pending", nil, fiber.StatusOK, &pending)
	assert.Empty(t, pending)

	e.mustDo("DELETE", fmt.Sprintf("/api/payments/%d", pay.Payment.ID), nil, fiber.StatusOK, nil)
	e.mustDo("GET", "/api/payments/pending", nil, fiber.StatusOK, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, p.ID, pending[0].ID)

	var count int64
	e.db.Model(&models.Check{}).Count(&count)
	assert.Zero(t, count)
}

func TestCheckStatusUpdate(t *testing.T) {
	e := newEnv(t)
	s := e.cashSale(e.customer("Gabriel"), []fiber.Map{{
		"method": "Cheque", "amount": 121,
		"check_details": fiber.Map{"check_number": "42", "bank": "BBVA", "due_date": "2026-10-30"},
	}})

	var list []models.Check
	e.mustDo("GET", "/api/checks?type=recibido", nil, fiber.StatusOK, &list)
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].SourceID)

	var updated models.Check
	e.mustDo("PUT", fmt.Sprintf("/api/checks/%d/status", list[0].ID), fiber.Map{"status": "depositado"}, fiber.StatusOK, &updated)
	assert.Equal(t, models.CheckStatusDeposited, updated.Status)

	assert.Equal(t, fiber.StatusBadRequest,
		e.do("PUT", fmt.Sprintf("/api/checks/%d/status", list[0].ID), fiber.Map{"status": "perdido"}, nil))
}

func TestEditWithoutStatusKeepsVoidedDocuments(t *testing.T) {
	e := newEnv(t)
	cust := e.customer("Marcelo")
	s := e.accountSale(cust)
	path := fmt.Sprintf("/api/sales/%d", s.ID)

	var out saleOut
	e.mustDo("PUT", path, fiber.Map{
		"customer_id": cust, "items": []fiber.Map{item()}, "status": models.StatusAnulada,
	}, fiber.StatusOK, &out)
	require.Equal(t, models.StatusAnulada, out.Status)

	e.mustDo("PUT", path, fiber.Map{
		"customer_id": cust, "items": []fiber.Map{item()}, "notes": "Se corrige la observación",
	}, fiber.StatusOK, &out)
	assert.Equal(t, models.StatusAnulada, out.Status)

	var stored models.Sale
	require.NoError(t, e.db.First(&stored, s.ID).Error)
	assert.Equal(t, models.StatusAnulada, stored.Status)
	assert.Equal(t, fiber.StatusConflict, e.do("POST", "/api/collections", fiber.Map{
		"sale_id": s.ID, "amount": 10, "method": "Efectivo",
	}, nil))

	sup := e.supplier("Lubricantes Oeste")
	var p struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	e.mustDo("POST", "/api/purchases", fiber.Map{
		"supplier_id": sup, "document_type": "Factura",
		"document_number_parts": fiber.Map{"letter": "A", "point_of_sale": "1", "number": "77"},
		"payment_type":          "Cuenta Corriente",
		"items":                 []fiber.Map{item()},
	}, fiber.StatusCreated, &p)
	ppath := fmt.Sprintf("/api/purchases/%d", p.ID)

	e.mustDo("PUT", ppath, fiber.Map{"items": []fiber.Map{item()}, "status": models.StatusAnulada}, fiber.StatusOK, &p)
	require.Equal(t, models.StatusAnulada, p.Status)

	e.mustDo("PUT", ppath, fiber.Map{"items": []fiber.Map{item()}, "notes": "Remito adjunto"}, fiber.StatusOK, &p)
	assert.Equal(t, models.StatusAnulada, p.Status)
	assert.Equal(t, fiber.StatusConflict, e.do("POST", "/api/payments", fiber.Map{
		"purchase_id": p.ID, "amount": 10, "method": "Efectivo",
	}, nil))
}

func TestPaymentHistoryAndAdjust(t *testing.T) {
	e := newEnv(t)
	sup := e.supplier("Neumáticos Ruta 3")

	var cash struct {
		ID uint `json:"id"`
	}
	e.mustDo("POST", "/api/purchases", fiber.Map{
		"supplier_id": sup, "document_type": "Factura",
		"document_number_parts": fiber.Map{"letter": "B", "point_of_sale": "3", "number": "10"},
		"payment_type":          "Contado",
		"items":                 []fiber.Map{item()},
		"payment_methods": []fiber.Map{
			{"method": "Efectivo", "amount": 121},
			{"method": "Transferencia", "amount": 0},
		},
	}, fiber.StatusCreated, &cash)

	// El medio en cero no aparece en el historial.
	var rows []historyOut
	e.mustDo("GET", fmt.Sprintf("/api/payments?supplier_id=%d", sup), nil, fiber.StatusOK, &rows)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Virtual)
	assert.Equal(t, fmt.Sprintf("%d-cash-0", cash.ID), rows[0].ID)
	assert.Equal(t, models.MethodEfectivo, rows[0].Method)
	assert.True(t, dec("121").Equal(rows[0].Amount), rows[0].Amount.String())

	vid := fmt.Sprintf("%d-cash-0", cash.ID)
	var errOut struct {
		Error string `json:"error"`
	}
	assert.Equal(t, fiber.StatusBadRequest, e.do("PUT", "/api/payments/"+vid, fiber.Map{"amount": 1}, &errOut))
	assert.Contains(t, errOut.Error, "no se pueden editar")
	assert.Equal(t, fiber.StatusBadRequest, e.do("DELETE", "/api/payments/"+vid, nil, &errOut))
	assert.Contains(t, errOut.Error, "no se pueden eliminar")

	var account struct {
		ID uint `json:"id"`
	}
	e.mustDo("POST", "/api/purchases", fiber.Map{
		"supplier_id": sup, "document_type": "Factura",
		"document_number_parts": fiber.Map{"letter": "B", "point_of_sale": "3", "number": "11"},
		"payment_type":          "Cuenta Corriente",
		"items":                 []fiber.Map{item()},
	}, fiber.StatusCreated, &account)

	var pay struct {
		Payment struct {
			ID     uint            `json:"id"`
			Amount decimal.Decimal `json:"amount"`
		} `json:"payment"`
		PurchaseBalance decimal.Decimal `json:"purchase_balance"`
		PurchaseStatus  string          `json:"purchase_status"`
	}
	e.mustDo("POST", "/api/payments", fiber.Map{
		"purchase_id": account.ID, "amount": 100, "method": "Efectivo",
	}, fiber.StatusCreated, &pay)
	assert.True(t, dec("21").Equal(pay.PurchaseBalance), pay.PurchaseBalance.String())

	e.mustDo("PUT", fmt.Sprintf("/api/payments/%d", pay.Payment.ID), fiber.Map{"amount": 60}, fiber.StatusOK, &pay)
	assert.True(t, dec("60").Equal(pay.Payment.Amount), pay.Payment.Amount.String())
	assert.True(t, dec("61").Equal(pay.PurchaseBalance), pay.PurchaseBalance.String())
	assert.Equal(t, models.StatusPendienteDePago, pay.PurchaseStatus)

	var stored models.Purchase
	require.NoError(t, e.db.First(&stored, account.ID).Error)
	assert.True(t, dec("61").Equal(stored.Balance), stored.Balance.String())
}
