package ledger

import "github.com/shopspring/decimal"

// Scale decimales fijos para cantidades y montos persistidos (NUMERIC(15,3)).
const Scale int32 = 3

// Normalize redondea a 3 decimales, mitad hacia arriba (alejándose de cero),
// para que la aritmética de lotes y agregado sea exacta.
func Normalize(v decimal.Decimal) decimal.Decimal {
	return v.Round(Scale)
}

// NormalizePtr igual que Normalize pero respeta nil.
func NormalizePtr(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	n := Normalize(*v)
	return &n
}
