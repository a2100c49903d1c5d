package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material representa un insumo/SKU del maestro. Se administra fuera del libro de stock;
// aquí solo se lee por ID para obtener el código (número de LOT) y el stock óptimo.
type Material struct {
	ID              string
	Code            string // prefijo del número de LOT
	Name            string
	BaseUnit        string
	SalesUnit       string
	ConversionRate  decimal.Decimal
	OptimalQuantity *decimal.Decimal // nil = sin stock óptimo definido
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
