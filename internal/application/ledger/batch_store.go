package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// newBatchInput datos de un lote nuevo. Tag vacío para recepciones, "ADJ" para ajustes.
type newBatchInput struct {
	Material       *entity.Material
	StoreID        string
	ReceivedAt     time.Time
	ExpirationDate *time.Time
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	Tag            string
}

// createBatch genera un LotNo único y crea el lote con receivedQuantity = remainingQuantity = cantidad.
// Hasta MaxLotAttempts números aleatorios; si todos chocan usa el sufijo temporal.
func createBatch(ctx context.Context, s Stores, in newBatchInput, now time.Time) (*entity.Batch, error) {
	qty := dledger.Normalize(in.Quantity)
	if !qty.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	batch := &entity.Batch{
		ID:                newID(),
		MaterialID:        in.Material.ID,
		StoreID:           in.StoreID,
		ReceivedAt:        in.ReceivedAt,
		ExpirationDate:    in.ExpirationDate,
		ReceivedQuantity:  qty,
		RemainingQuantity: qty,
		UnitPrice:         dledger.Normalize(in.UnitPrice),
		CreatedAt:         now,
	}

	for attempt := 0; attempt < dledger.MaxLotAttempts; attempt++ {
		lot := dledger.LotNumber(in.Material.Code, now, in.Tag)
		taken, err := lotTaken(ctx, s, lot)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}
		batch.LotNo = lot
		err = s.Batches.Create(ctx, batch)
		if err == nil {
			return batch, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
	}

	batch.LotNo = dledger.FallbackLotNumber(in.Material.Code, now, in.Tag)
	if err := s.Batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("crear lote %s: %w", batch.LotNo, err)
	}
	return batch, nil
}

func lotTaken(ctx context.Context, s Stores, lot string) (bool, error) {
	taken, err := s.Batches.ExistsLotNo(ctx, lot)
	if err != nil || taken {
		return taken, err
	}
	return s.Inbounds.ExistsLotNo(ctx, lot)
}
