package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de precio.
const (
	PriceTypePurchase = "PURCHASE"
	PriceTypeSelling  = "SELLING"
)

// ValidPriceType indica si el tipo de precio es admitido.
func ValidPriceType(t string) bool {
	return t == PriceTypePurchase || t == PriceTypeSelling
}

// PriceEntry precio versionado con intervalo semiabierto [ValidFrom, ValidTo).
// ValidTo nil = vigente sin fecha de cierre.
type PriceEntry struct {
	ID         string
	MaterialID string
	Type       string
	Amount     decimal.Decimal
	ValidFrom  time.Time
	ValidTo    *time.Time
	CreatedAt  time.Time
}

// Contains indica si ts cae dentro del intervalo de vigencia.
func (p *PriceEntry) Contains(ts time.Time) bool {
	if ts.Before(p.ValidFrom) {
		return false
	}
	return p.ValidTo == nil || ts.Before(*p.ValidTo)
}

// NewerThan desempate determinista: ValidFrom más reciente, luego ID mayor.
func (p *PriceEntry) NewerThan(o *PriceEntry) bool {
	if !p.ValidFrom.Equal(o.ValidFrom) {
		return p.ValidFrom.After(o.ValidFrom)
	}
	return p.ID > o.ID
}
