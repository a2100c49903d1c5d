package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Motivos de ajuste manual.
const (
	AdjustmentReasonManual = "MANUAL"
	AdjustmentReasonDamage = "DAMAGE"
	AdjustmentReasonLoss   = "LOSS"
	AdjustmentReasonError  = "ERROR"
)

// ValidAdjustmentReason indica si el motivo es uno de los admitidos.
func ValidAdjustmentReason(r string) bool {
	switch r {
	case AdjustmentReasonManual, AdjustmentReasonDamage, AdjustmentReasonLoss, AdjustmentReasonError:
		return true
	}
	return false
}

// AdjustmentRecord registra una corrección absoluta de cantidad.
// Difference == QuantityAfter - QuantityBefore.
type AdjustmentRecord struct {
	ID             string
	StockLevelID   string
	MaterialID     string
	StoreID        string
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	Difference     decimal.Decimal
	UnitPrice      decimal.Decimal
	Reason         string
	Memo           string
	CreatedAt      time.Time
}
