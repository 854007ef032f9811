package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale decimales de precios, subtotales y totales; coincide con NUMERIC(14,2).
const MoneyScale = 2

// maxMoney primer valor que ya no cabe en NUMERIC(14,2).
var maxMoney = decimal.New(1, 12)

// CheckPrice rechaza con ErrInvalidInput montos negativos, con más de MoneyScale decimales
// o fuera de rango. Así lo guardado coincide con lo calculado y total = Σ subtotales.
func CheckPrice(field string, d decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return fmt.Errorf("%w: %s no puede ser negativo", ErrInvalidInput, field)
	case !d.Equal(d.Truncate(MoneyScale)):
		return fmt.Errorf("%w: %s admite hasta %d decimales", ErrInvalidInput, field, MoneyScale)
	case d.GreaterThanOrEqual(maxMoney):
		return fmt.Errorf("%w: %s fuera de rango", ErrInvalidInput, field)
	}
	return nil
}
