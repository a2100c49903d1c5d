package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InboundRecord registra una recepción (entrada). Relación 1:1 con el lote que genera (LotNo).
type InboundRecord struct {
	ID           string
	MaterialID   string
	StoreID      string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	SellingPrice *decimal.Decimal
	LotNo        string
	InAt         time.Time
	StockAfter   decimal.Decimal // snapshot del agregado tras la entrada
	Memo         string
	CreatedAt    time.Time
}
