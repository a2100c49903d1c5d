package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del stock agregado.
const (
	StockStatusSufficient = "SUFFICIENT" // igual o por encima del óptimo
	StockStatusLow        = "LOW"        // por debajo del óptimo
	StockStatusShortage   = "SHORTAGE"   // cantidad <= 0
)

// OwnerKey identifica la fila agregada: material en la sede central (StoreID vacío)
// o material en una tienda franquiciada.
type OwnerKey struct {
	MaterialID string
	StoreID    string
}

// IsHQ indica si la llave pertenece a la sede central.
func (k OwnerKey) IsHQ() bool { return k.StoreID == "" }

// Less ordena llaves por material y luego tienda; se usa para bloquear varias filas sin deadlocks.
func (k OwnerKey) Less(o OwnerKey) bool {
	if k.MaterialID != o.MaterialID {
		return k.MaterialID < o.MaterialID
	}
	return k.StoreID < o.StoreID
}

// StockLevel es la fila autoritativa de cantidad/estado por dueño+material.
// Debe coincidir siempre con la suma de RemainingQuantity de sus lotes.
type StockLevel struct {
	ID              string
	Key             OwnerKey
	Quantity        decimal.Decimal
	OptimalQuantity *decimal.Decimal
	Status          string
	UpdatedAt       time.Time
}

// StatusFor calcula el estado para una cantidad y un óptimo (nil-safe).
func StatusFor(quantity decimal.Decimal, optimal *decimal.Decimal) string {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return StockStatusShortage
	}
	if optimal == nil {
		return StockStatusSufficient
	}
	if quantity.LessThan(*optimal) {
		return StockStatusLow
	}
	return StockStatusSufficient
}

// ApplyDelta suma delta (positivo o negativo), recalcula estado y fecha. Devuelve la nueva cantidad.
// No permite quedar por debajo de cero: el llamador debe haber validado disponibilidad.
func (s *StockLevel) ApplyDelta(delta decimal.Decimal, now time.Time) (decimal.Decimal, bool) {
	next := s.Quantity.Add(delta)
	if next.IsNegative() {
		return s.Quantity, false
	}
	s.touch(next, now)
	return next, true
}

// SetAbsolute fija la cantidad (solo ajustes manuales) con el mismo recálculo de estado.
func (s *StockLevel) SetAbsolute(quantity decimal.Decimal, now time.Time) {
	s.touch(quantity, now)
}

func (s *StockLevel) touch(quantity decimal.Decimal, now time.Time) {
	s.Quantity = quantity
	s.Status = StatusFor(quantity, s.OptimalQuantity)
	s.UpdatedAt = now
}
