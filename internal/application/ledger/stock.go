package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// requireMaterial devuelve ErrNotFound si el material no existe.
func requireMaterial(ctx context.Context, s Stores, materialID string) (*entity.Material, error) {
	if materialID == "" {
		return nil, domain.ErrInvalidInput
	}
	m, err := s.Materials.GetByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: material %s", domain.ErrNotFound, materialID)
	}
	return m, nil
}

// lockLevel bloquea (creando en cero si falta) el agregado del dueño. El óptimo inicial viene del material.
func lockLevel(ctx context.Context, s Stores, material *entity.Material, storeID string) (*entity.StockLevel, error) {
	key := entity.OwnerKey{MaterialID: material.ID, StoreID: storeID}
	return s.Levels.LockOrCreate(ctx, key, material.OptimalQuantity)
}

// applyDelta suma delta al agregado bloqueado y lo persiste. Nunca deja la cantidad negativa.
func applyDelta(ctx context.Context, s Stores, level *entity.StockLevel, delta decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	next, ok := level.ApplyDelta(dledger.Normalize(delta), now)
	if !ok {
		return level.Quantity, fmt.Errorf("%w: disponible=%s, delta=%s", domain.ErrInsufficientStock, level.Quantity, delta)
	}
	if err := s.Levels.Save(ctx, level); err != nil {
		return level.Quantity, err
	}
	return next, nil
}

// consume descuenta del agregado ya bloqueado y de sus lotes en orden FIFO (mismo plan que la vista previa).
// Si la suma de descuentos no coincide con qty la tx debe abortar: lotes y agregado divergieron.
func consume(ctx context.Context, s Stores, level *entity.StockLevel, qty decimal.Decimal) (dledger.Plan, error) {
	if qty.GreaterThan(level.Quantity) {
		return dledger.Plan{}, fmt.Errorf("%w: disponible=%s, solicitado=%s", domain.ErrInsufficientStock, level.Quantity, qty)
	}
	candidates, err := s.Batches.ListFIFOCandidates(ctx, level.Key, true)
	if err != nil {
		return dledger.Plan{}, err
	}
	plan, err := dledger.Allocate(level.Quantity, candidates, qty)
	if err != nil {
		return dledger.Plan{}, err
	}
	for _, line := range plan.Lines {
		if err := s.Batches.Decrement(ctx, line.BatchID, line.Quantity); err != nil {
			return dledger.Plan{}, err
		}
	}
	if !plan.Total().Equal(qty) {
		return dledger.Plan{}, fmt.Errorf("%w: descontado=%s, solicitado=%s", domain.ErrAllocationMismatch, plan.Total(), qty)
	}
	return plan, nil
}
