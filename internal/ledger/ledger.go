// Package ledger reúne las reglas de dinero de ventas, compras, cobros y pagos:
// totales de línea, control del desglose de contado y saldos.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"taller-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// Un saldo menor o igual a Epsilon se considera cancelado.
	Epsilon = decimal.RequireFromString("0.009")
	// Diferencia admitida entre el desglose de contado y el total.
	CashTolerance = decimal.RequireFromString("0.01")

	hundred = decimal.NewFromInt(100)
)

var (
	ErrCashMismatch  = errors.New("el desglose de pagos no coincide con el total")
	ErrInvalidAmount = errors.New("el monto debe ser mayor a cero")
)

// Labels: nombres de estado pagado/pendiente de cada tipo de comprobante.
type Labels struct {
	Paid    string
	Pending string
}

var (
	SaleLabels     = Labels{Paid: models.StatusPagado, Pending: models.StatusPendienteDePago}
	PurchaseLabels = Labels{Paid: models.StatusPagada, Pending: models.StatusPendienteDePago}
)

type Result struct {
	Balance decimal.Decimal
	Status  string
}

func IsSettled(balance decimal.Decimal) bool {
	return balance.LessThanOrEqual(Epsilon)
}

func StatusFor(balance decimal.Decimal, l Labels) string {
	if IsSettled(balance) {
		return l.Paid
	}
	return l.Pending
}

// Apply descuenta un pago del saldo. Un pago de más deja el saldo negativo.
func Apply(balance, amount decimal.Decimal, l Labels) (Result, error) {
	if !amount.IsPositive() {
		return Result{}, ErrInvalidAmount
	}
	nb := balance.Sub(amount)
	return Result{Balance: nb, Status: StatusFor(nb, l)}, nil
}

// Reverse deshace Apply. El estado vuelve a pendiente sólo si queda deuda.
func Reverse(balance, amount decimal.Decimal, current string, l Labels) Result {
	nb := balance.Add(amount)
	status := current
	if nb.GreaterThan(Epsilon) {
		status = l.Pending
	}
	return Result{Balance: nb, Status: status}
}

// Adjust reemplaza un monto ya registrado por otro.
func Adjust(balance, oldAmount, newAmount decimal.Decimal, current string, l Labels) (Result, error) {
	r := Reverse(balance, oldAmount, current, l)
	return Apply(r.Balance, newAmount, l)
}

// ItemTotal = cantidad * precio unitario * (1 + iva/100), redondeado a centavos.
func ItemTotal(quantity, unitPrice, iva decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Mul(decimal.NewFromInt(1).Add(iva.Div(hundred))).Round(2)
}

// LineTotal aplica el descuento porcentual antes del IVA (ítems de órdenes de trabajo).
func LineTotal(price, discount, quantity, vat decimal.Decimal) decimal.Decimal {
	net := price.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))
	return net.Mul(quantity).Mul(decimal.NewFromInt(1).Add(vat.Div(hundred))).Round(2)
}

func SumItems(items []models.DocumentItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total)
	}
	return total
}

func SumPaymentMethods(methods []models.PaymentMethodEntry) decimal.Decimal {
	total := decimal.Zero
	for _, m := range methods {
		total = total.Add(m.Amount)
	}
	return total
}

// CheckCashBreakdown controla que los medios de pago cubran el total de contado.
func CheckCashBreakdown(total decimal.Decimal, methods []models.PaymentMethodEntry) error {
	diff := SumPaymentMethods(methods).Sub(total)
	if diff.Abs().LessThanOrEqual(CashTolerance) {
		return nil
	}
	if diff.IsPositive() {
		return fmt.Errorf("%w: Sobra $%s", ErrCashMismatch, diff.StringFixed(2))
	}
	return fmt.Errorf("%w: Falta $%s", ErrCashMismatch, diff.Abs().StringFixed(2))
}

// DisplayStatus: facturas y recibos no anulados muestran el estado que indica su saldo.
func DisplayStatus(t models.SaleType, status string, balance decimal.Decimal) string {
	if (t == models.SaleTypeFactura || t == models.SaleTypeRecibo) && status != models.StatusAnulada {
		return StatusFor(balance, SaleLabels)
	}
	return status
}

// DaysUntilDue devuelve los días corridos hasta el vencimiento, o nil si no hay fecha.
func DaysUntilDue(due *time.Time, now time.Time) *int {
	if due == nil {
		return nil
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dy, dm, dd := due.Date()
	dueDay := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	days := int(dueDay.Sub(today).Hours() / 24)
	return &days
}

// ValidateMethods controla cada medio de pago: método conocido, monto no negativo y
// datos del cheque completos.
func ValidateMethods(methods []models.PaymentMethodEntry) error {
	for i, m := range methods {
		if !models.ValidPaymentMethod(m.Method) {
			return fmt.Errorf("medio de pago %d: %q no es válido", i+1, m.Method)
		}
		if m.Amount.IsNegative() {
			return fmt.Errorf("medio de pago %d: el monto no puede ser negativo", i+1)
		}
		if m.Method == models.MethodCheque {
			if m.CheckDetails == nil || m.CheckDetails.CheckNumber == "" {
				return fmt.Errorf("medio de pago %d: falta el número de cheque", i+1)
			}
			if m.CheckDetails.DueDate != "" {
				if _, err := time.Parse("2006-01-02", m.CheckDetails.DueDate); err != nil {
					return fmt.Errorf("medio de pago %d: vencimiento del cheque inválido", i+1)
				}
			}
		}
	}
	return nil
}
