package numbering

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"taller-backend/internal/models"
)

const (
	SequenceWidth      = 8
	PointOfSaleWidth   = 4
	DefaultPointOfSale = "0001"
)

var ErrNotNumeric = errors.New("el número debe ser numérico")

// Pad rellena con ceros a la izquierda.
func Pad(n int64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// ParseSequence devuelve el entero de un número de comprobante; false si no es numérico.
func ParseSequence(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Next toma el máximo número existente (ignorando los no numéricos) y suma uno.
func Next(existing []string) int64 {
	var max int64
	for _, s := range existing {
		if n, ok := ParseSequence(s); ok && n > max {
			max = n
		}
	}
	return max + 1
}

// NormalizeNumber valida y rellena un número ingresado manualmente.
func NormalizeNumber(s string) (string, error) {
	n, ok := ParseSequence(s)
	if !ok || n == 0 {
		return "", ErrNotNumeric
	}
	return Pad(n, SequenceWidth), nil
}

// NormalizePointOfSale rellena a 4 dígitos; vacío usa el punto de venta por defecto.
func NormalizePointOfSale(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultPointOfSale, nil
	}
	n, ok := ParseSequence(s)
	if !ok || n == 0 || n > 9999 {
		return "", fmt.Errorf("punto de venta inválido: %q", s)
	}
	return Pad(n, PointOfSaleWidth), nil
}

func Format(letter, pointOfSale, number string) string {
	return fmt.Sprintf("%s-%s-%s", letter, pointOfSale, number)
}

func DefaultLetter(t models.SaleType) string {
	switch t {
	case models.SaleTypeFactura:
		return "A"
	case models.SaleTypePresupuesto:
		return "P"
	case models.SaleTypeRecibo, models.SaleTypeRemito:
		return "R"
	}
	return "X"
}

// NormalizeLetter: las facturas admiten A, B o C; el resto de los tipos tiene letra fija.
func NormalizeLetter(t models.SaleType, letter string) string {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if t == models.SaleTypeFactura {
		switch letter {
		case "A", "B", "C":
			return letter
		}
	}
	return DefaultLetter(t)
}

// PurchaseLetter: las compras guardan la letra del comprobante del proveedor.
func PurchaseLetter(letter string) string {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	switch letter {
	case "A", "B", "C", "M", "R", "X":
		return letter
	}
	return "X"
}
