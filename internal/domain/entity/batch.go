package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch es un LOT: una recepción concreta de un material con su propio saldo.
// Inmutable salvo RemainingQuantity, que solo disminuye.
type Batch struct {
	ID                string
	LotNo             string // único global
	MaterialID        string
	StoreID           string // vacío = sede central
	ReceivedAt        time.Time
	ExpirationDate    *time.Time
	ReceivedQuantity  decimal.Decimal
	RemainingQuantity decimal.Decimal
	UnitPrice         decimal.Decimal
	CreatedAt         time.Time
}

// Key devuelve la llave del agregado al que pertenece el lote.
func (b *Batch) Key() OwnerKey {
	return OwnerKey{MaterialID: b.MaterialID, StoreID: b.StoreID}
}

// ConsumedQuantity cantidad ya despachada o descontada del lote.
func (b *Batch) ConsumedQuantity() decimal.Decimal {
	return b.ReceivedQuantity.Sub(b.RemainingQuantity)
}

// DaysUntilExpiry días hasta el vencimiento respecto a now; nil si el lote no vence.
func (b *Batch) DaysUntilExpiry(now time.Time) *int {
	if b.ExpirationDate == nil {
		return nil
	}
	d := int(b.ExpirationDate.Sub(now).Hours() / 24)
	return &d
}

// FIFOLess es el orden canónico de consumo: vencimiento ascendente (sin vencimiento al final),
// luego fecha de recepción ascendente, luego ID ascendente.
func FIFOLess(a, b *Batch) bool {
	switch {
	case a.ExpirationDate != nil && b.ExpirationDate == nil:
		return true
	case a.ExpirationDate == nil && b.ExpirationDate != nil:
		return false
	case a.ExpirationDate != nil && b.ExpirationDate != nil && !a.ExpirationDate.Equal(*b.ExpirationDate):
		return a.ExpirationDate.Before(*b.ExpirationDate)
	}
	if !a.ReceivedAt.Equal(b.ReceivedAt) {
		return a.ReceivedAt.Before(b.ReceivedAt)
	}
	return a.ID < b.ID
}
