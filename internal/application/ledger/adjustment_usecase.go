package ledger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// AdjustmentUseCase ajustes manuales a cantidad absoluta, manteniendo lotes y agregado en sincronía.
type AdjustmentUseCase struct {
	core
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(d Deps) *AdjustmentUseCase {
	return &AdjustmentUseCase{core: newCore(d)}
}

// AdjustInput entrada de AdjustStock. Reason vacío = MANUAL.
type AdjustInput struct {
	StockLevelID  string
	QuantityAfter decimal.Decimal
	Reason        string
	Memo          string
}

// AdjustStock fija la cantidad del agregado en QuantityAfter.
//   - diferencia > 0: crea un lote ADJ por la diferencia al precio de compra vigente (o 0)
//   - diferencia < 0: descuenta lotes en orden FIFO; si no alcanzan, ErrAllocationMismatch
//   - diferencia = 0: solo deja el registro
func (uc *AdjustmentUseCase) AdjustStock(ctx context.Context, in AdjustInput) (_ *entity.AdjustmentRecord, err error) {
	started := uc.now()
	var rec *entity.AdjustmentRecord
	defer func() {
		uc.observe("adjust_stock", started, err, func(e *zerolog.Event) {
			e.Str("stock_level_id", in.StockLevelID).Str("quantity_after", in.QuantityAfter.String())
			if rec != nil {
				e.Str("difference", rec.Difference.String())
			}
		})
	}()

	after := dledger.Normalize(in.QuantityAfter)
	reason := in.Reason
	if reason == "" {
		reason = entity.AdjustmentReasonManual
	}
	if in.StockLevelID == "" || after.IsNegative() || !entity.ValidAdjustmentReason(reason) {
		return nil, domain.ErrInvalidInput
	}

	var events []Event
	err = uc.tx.Run(ctx, func(ctx context.Context, s Stores) error {
		level, err := s.Levels.LockByID(ctx, in.StockLevelID)
		if err != nil {
			return err
		}
		material, err := requireMaterial(ctx, s, level.Key.MaterialID)
		if err != nil {
			return err
		}
		beforeQty := level.Quantity
		beforeStatus := level.Status
		diff := after.Sub(beforeQty)

		price := decimal.Zero
		entry, err := s.Prices.LatestAt(ctx, material.ID, entity.PriceTypePurchase, started)
		if err != nil {
			return err
		}
		if entry != nil {
			price = entry.Amount
		}

		switch {
		case diff.IsPositive():
			if _, err := createBatch(ctx, s, newBatchInput{
				Material:   material,
				StoreID:    level.Key.StoreID,
				ReceivedAt: started,
				Quantity:   diff,
				UnitPrice:  price,
				Tag:        dledger.AdjustmentLotTag,
			}, started); err != nil {
				return err
			}
		case diff.IsNegative():
			if _, err := consume(ctx, s, level, diff.Abs()); err != nil {
				return err
			}
		}

		level.SetAbsolute(after, started)
		if err := s.Levels.Save(ctx, level); err != nil {
			return err
		}

		r := &entity.AdjustmentRecord{
			ID:             newID(),
			StockLevelID:   level.ID,
			MaterialID:     material.ID,
			StoreID:        level.Key.StoreID,
			QuantityBefore: beforeQty,
			QuantityAfter:  after,
			Difference:     diff,
			UnitPrice:      price,
			Reason:         reason,
			Memo:           in.Memo,
			CreatedAt:      started,
		}
		if err := s.Adjustments.Create(ctx, r); err != nil {
			return fmt.Errorf("registrar ajuste: %w", err)
		}
		rec = r
		events = append(events, newEvent(EventStockAdjusted, level.Key, r.ID, diff, after, started))
		events = append(events, statusEvent(level, beforeStatus, started)...)
		return nil
	})
	if err != nil {
		rec = nil
		return nil, err
	}
	uc.publish(ctx, events)
	return rec, nil
}

// AdjustmentDetail registro de ajuste por ID.
func (uc *AdjustmentUseCase) AdjustmentDetail(ctx context.Context, id string) (*entity.AdjustmentRecord, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := uc.repos.Adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}
