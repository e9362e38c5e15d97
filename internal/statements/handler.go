package statements

import (
	"fmt"
	"time"

	"taller-backend/internal/customers"
	"taller-backend/internal/database"
	"taller-backend/internal/scope"
	"taller-backend/internal/suppliers"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func send(c *fiber.Ctx, st *Statement, prefix string) error {
	if c.Query("format") != "xlsx" {
		return c.JSON(st)
	}
	buf, err := st.WriteXLSX()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el Excel")
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s-%d-%s.xlsx"`, prefix, st.PartyID, st.Kind))
	return c.Send(buf.Bytes())
}

func kindParam(c *fiber.Ctx) (string, error) {
	kind := c.Query("kind", KindPending)
	if !ValidKind(kind) {
		return "", fiber.NewError(fiber.StatusBadRequest, "kind debe ser pending, history o all")
	}
	return kind, nil
}

// GET /api/customers/:id/statement?kind=pending|history|all&format=xlsx
func CustomerStatementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		kind, err := kindParam(c)
		if err != nil {
			return err
		}

		customer, err := customers.FindCustomer(orgID, id)
		if err != nil {
			return err
		}

		st, err := ForCustomer(database.DB, orgID, *customer, kind, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo armar el estado de cuenta")
		}
		return send(c, st, "cliente")
	}
}

// GET /api/suppliers/:id/statement?kind=pending|history|all&format=xlsx
func SupplierStatementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		kind, err := kindParam(c)
		if err != nil {
			return err
		}

		supplier, err := suppliers.FindSupplier(orgID, id)
		if err != nil {
			return err
		}

		st, err := ForSupplier(database.DB, orgID, *supplier, kind, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo armar el estado de cuenta")
		}
		return send(c, st, "proveedor")
	}
}
