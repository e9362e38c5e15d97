package models

import "github.com/shopspring/decimal"

type SaleType string

const (
	SaleTypeFactura     SaleType = "Factura"
	SaleTypePresupuesto SaleType = "Presupuesto"
	SaleTypeRecibo      SaleType = "Recibo"
	SaleTypeRemito      SaleType = "Remito"
)

func (t SaleType) Valid() bool {
	switch t {
	case SaleTypeFactura, SaleTypePresupuesto, SaleTypeRecibo, SaleTypeRemito:
		return true
	}
	return false
}

type PaymentType string

const (
	PaymentCash          PaymentType = "Contado"
	PaymentAccount       PaymentType = "Cuenta Corriente"
	PaymentNotApplicable PaymentType = "N/A"
)

// Estados de comprobantes. Las ventas usan "Pagado" y las compras "Pagada".
const (
	StatusPendiente       = "Pendiente"
	StatusAprobado        = "Aprobado"
	StatusRechazado       = "Rechazado"
	StatusFacturado       = "Facturado"
	StatusPendienteDePago = "Pendiente de Pago"
	StatusPagado          = "Pagado"
	StatusPagada          = "Pagada"
	StatusAnulada         = "Anulada"
)

// Medios de pago
const (
	MethodEfectivo      = "Efectivo"
	MethodTransferencia = "Transferencia"
	MethodCredito       = "Tarjeta de Crédito"
	MethodDebito        = "Tarjeta de Débito"
	MethodCheque        = "Cheque"
	MethodDolares       = "Dolares"
)

var PaymentMethods = []string{
	MethodEfectivo, MethodTransferencia, MethodCredito, MethodDebito, MethodCheque, MethodDolares,
}

func ValidPaymentMethod(m string) bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// DocumentItem es una línea de venta o compra, guardada como JSON en el comprobante.
type DocumentItem struct {
	ProductID   *uint           `json:"product_id,omitempty"`
	VehicleID   *uint           `json:"vehicle_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IVA         decimal.Decimal `json:"iva"`
	Total       decimal.Decimal `json:"total"`
}

type CheckDetails struct {
	CheckNumber string `json:"check_number"`
	Bank        string `json:"bank"`
	DueDate     string `json:"due_date"` // 2006-01-02
	CheckID     *uint  `json:"check_id,omitempty"`
}

type DollarDetails struct {
	USDAmount    decimal.Decimal `json:"usd_amount"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

// PaymentMethodEntry es una parte del desglose de pago de un comprobante de contado.
type PaymentMethodEntry struct {
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	CheckDetails  *CheckDetails   `json:"check_details,omitempty"`
	DollarDetails *DollarDetails  `json:"dollar_details,omitempty"`
}
