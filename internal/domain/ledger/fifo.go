package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// PlanLine porción del pedido asignada a un lote.
type PlanLine struct {
	BatchID        string
	LotNo          string
	ExpirationDate *time.Time
	Quantity       decimal.Decimal
}

// Plan resultado de la asignación FIFO, en orden de consumo.
type Plan struct {
	Requested decimal.Decimal
	Lines     []PlanLine
}

// Total suma de las líneas del plan.
func (p Plan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// Allocate calcula el plan FIFO sin mutar nada. candidates ya viene en orden FIFO.
//
//   - requested <= 0                → ErrInvalidInput
//   - requested > available         → ErrInsufficientStock (sin más trabajo)
//   - lotes agotados antes de cubrir → ErrAllocationMismatch (agregado y lotes divergieron)
func Allocate(available decimal.Decimal, candidates []entity.Batch, requested decimal.Decimal) (Plan, error) {
	if !requested.IsPositive() {
		return Plan{}, domain.ErrInvalidInput
	}
	if requested.GreaterThan(available) {
		return Plan{}, fmt.Errorf("%w: disponible=%s, solicitado=%s", domain.ErrInsufficientStock, available, requested)
	}

	plan := Plan{Requested: requested}
	remaining := requested
	for i := range candidates {
		if !remaining.IsPositive() {
			break
		}
		c := &candidates[i]
		take := decimal.Min(remaining, c.RemainingQuantity)
		if !take.IsPositive() {
			continue
		}
		plan.Lines = append(plan.Lines, PlanLine{
			BatchID:        c.ID,
			LotNo:          c.LotNo,
			ExpirationDate: c.ExpirationDate,
			Quantity:       take,
		})
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return Plan{}, fmt.Errorf("%w: faltante=%s", domain.ErrAllocationMismatch, remaining)
	}
	return plan, nil
}
