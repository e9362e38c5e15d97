package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// Los montos decimales se validan como float (gt=0, gte=0, lte=100...).
		validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	})
	return validate
}

// Error lleva el detalle campo -> regla que falló.
type Error struct {
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return &Error{Message: "Datos inválidos", Fields: fields}
}

// ParseBody parsea el JSON del request y lo valida.
func ParseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
	}
	return Struct(out)
}

// fieldPath saca el nombre del struct raíz: "createSaleRequest.items[0].quantity" -> "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// ParseDate acepta "2006-01-02" o RFC3339. Vacío devuelve nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("fecha inválida: %q", s)
	}
	return &t, nil
}

// DateOr parsea una fecha del body; vacía usa def. Un formato inválido es 400.
func DateOr(field, s string, def time.Time) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, &Error{Message: "Fecha inválida", Fields: map[string]string{field: "date"}}
	}
	if t == nil {
		return def, nil
	}
	return *t, nil
}

// OptionalDate es DateOr para fechas que pueden quedar vacías (vencimientos).
func OptionalDate(field, s string) (*time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return nil, &Error{Message: "Fecha inválida", Fields: map[string]string{field: "date"}}
	}
	return t, nil
}
