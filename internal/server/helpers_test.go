package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"taller-backend/internal/models"
	"taller-backend/internal/server"
	"taller-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	t     *testing.T
	app   *fiber.App
	db    *gorm.DB
	org   models.Organization
	user  models.User
	token string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupDB(t)
	org := testutil.CreateOrganization(t, db, "Taller Central")
	user := testutil.CreateUser(t, db, "admin@central.com", models.RoleOrgAdmin, &org.ID)
	return &env{
		t:     t,
		app:   server.New(testutil.Config()),
		db:    db,
		org:   org,
		user:  user,
		token: testutil.Token(t, user),
	}
}

// as devuelve otro env sobre la misma base con el token de otro usuario.
func (e *env) as(user models.User) *env {
	cp := *e
	cp.user = user
	cp.token = testutil.Token(e.t, user)
	return &cp
}

func (e *env) raw(method, path string, body any) (int, []byte, string) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, data, resp.Header.Get("Content-Type")
}

// do manda el request y, si out no es nil, decodifica la respuesta.
func (e *env) do(method, path string, body any, out any) int {
	e.t.Helper()
	code, data, _ := e.raw(method, path, body)
	if out != nil && len(data) > 0 {
		require.NoError(e.t, json.Unmarshal(data, out), string(data))
	}
	return code
}

func (e *env) mustDo(method, path string, body any, want int, out any) {
	e.t.Helper()
	code, data, _ := e.raw(method, path, body)
	require.Equal(e.t, want, code, string(data))
	if out != nil && len(data) > 0 {
		require.NoError(e.t, json.Unmarshal(data, out), string(data))
	}
}

type idOut struct {
	ID uint `json:"id"`
}

func (e *env) customer(name string) uint {
	e.t.Helper()
	var out idOut
	e.mustDo("POST", "/api/customers", fiber.Map{"name": name}, fiber.StatusCreated, &out)
	return out.ID
}

func (e *env) vehicle(customerID uint, plate string) uint {
	e.t.Helper()
	var out idOut
	e.mustDo("POST", "/api/vehicles", fiber.Map{
		"customer_id": customerID, "model": "Corsa", "brand": "Chevrolet", "plate": plate,
	}, fiber.StatusCreated, &out)
	return out.ID
}

func (e *env) supplier(name string) uint {
	e.t.Helper()
	var out idOut
	e.mustDo("POST", "/api/suppliers", fiber.Map{"name": name}, fiber.StatusCreated, &out)
	return out.ID
}

type saleOut struct {
	ID            uint               `json:"id"`
	Type          models.SaleType    `json:"type"`
	SaleNumber    string             `json:"sale_number"`
	PaymentType   models.PaymentType `json:"payment_type"`
	Status        string             `json:"status"`
	DisplayStatus string             `json:"display_status"`
	Total         decimal.Decimal    `json:"total"`
	Balance       decimal.Decimal    `json:"balance"`
	SourceSaleID  *uint              `json:"source_sale_id"`
}

// item de 100 + 21% de IVA = 121
func item() fiber.Map {
	return fiber.Map{"description": "Cambio de aceite", "quantity": 1, "unit_price": 100, "iva": 21}
}

func (e *env) accountSale(customerID uint) saleOut {
	e.t.Helper()
	var s saleOut
	e.mustDo("POST", "/api/sales", fiber.Map{
		"customer_id":  customerID,
		"type":         "Factura",
		"payment_type": "Cuenta Corriente",
		"items":        []fiber.Map{item()},
	}, fiber.StatusCreated, &s)
	return s
}

func (e *env) cashSale(customerID uint, methods []fiber.Map) saleOut {
	e.t.Helper()
	var s saleOut
	e.mustDo("POST", "/api/sales", fiber.Map{
		"customer_id":     customerID,
		"type":            "Factura",
		"payment_type":    "Contado",
		"items":           []fiber.Map{item()},
		"payment_methods": methods,
	}, fiber.StatusCreated, &s)
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
