package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un registro de salida.
const (
	OutboundStatusDraft     = "DRAFT"
	OutboundStatusConfirmed = "CONFIRMED"
	OutboundStatusCancelled = "CANCELLED"
	OutboundStatusReversed  = "REVERSED"
)

// OutboundRecord cabecera de un despacho. Quantity es igual a la suma de sus AllocationLine.
type OutboundRecord struct {
	ID          string
	MaterialID  string
	StoreID     string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	StockAfter  decimal.Decimal
	Status      string
	ReversalFor *string
	Memo        string
	OutAt       time.Time
	CreatedAt   time.Time
}

// AllocationLine porción FIFO de un despacho tomada de un lote concreto.
type AllocationLine struct {
	ID         string
	OutboundID string
	BatchID    string
	Quantity   decimal.Decimal
}

// AllocationLineView línea de asignación con datos del lote, para consultas.
type AllocationLineView struct {
	AllocationLine
	LotNo          string
	BatchRemaining decimal.Decimal
	OutAt          time.Time
	StoreID        string
}
