package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// InboundUseCase registra recepciones: suma al agregado y crea el lote con su LOT.
type InboundUseCase struct {
	core
}

// NewInboundUseCase construye el caso de uso.
func NewInboundUseCase(d Deps) *InboundUseCase {
	return &InboundUseCase{core: newCore(d)}
}

// InboundInput entrada de RegisterInbound. StoreID vacío = sede central. InAt nil = ahora.
type InboundInput struct {
	MaterialID     string
	StoreID        string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	SellingPrice   *decimal.Decimal
	ExpirationDate *time.Time
	InAt           *time.Time
	Memo           string
}

// InboundResult registro y lote creados.
type InboundResult struct {
	Record *entity.InboundRecord
	Batch  *entity.Batch
}

// RegisterInbound en una sola tx: precios vigentes desde ahora, agregado bloqueado (+cantidad),
// lote nuevo con saldo completo y registro de entrada con el stock resultante.
func (uc *InboundUseCase) RegisterInbound(ctx context.Context, in InboundInput) (_ *InboundResult, err error) {
	started := uc.now()
	var res *InboundResult
	defer func() {
		uc.observe("register_inbound", started, err, func(e *zerolog.Event) {
			e.Str("material_id", in.MaterialID).Str("store_id", in.StoreID).Str("quantity", in.Quantity.String())
			if res != nil {
				e.Str("lot_no", res.Batch.LotNo)
			}
		})
	}()

	qty := dledger.Normalize(in.Quantity)
	price := dledger.Normalize(in.UnitPrice)
	if in.MaterialID == "" || !qty.IsPositive() || price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if in.SellingPrice != nil && in.SellingPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	inAt := started
	if in.InAt != nil {
		inAt = *in.InAt
	}

	var events []Event
	err = uc.tx.Run(ctx, func(ctx context.Context, s Stores) error {
		material, err := requireMaterial(ctx, s, in.MaterialID)
		if err != nil {
			return err
		}
		if _, err := registerPrice(ctx, s.Prices, material.ID, entity.PriceTypePurchase, price, started, nil, started); err != nil {
			return err
		}
		if in.SellingPrice != nil {
			if _, err := registerPrice(ctx, s.Prices, material.ID, entity.PriceTypeSelling, *in.SellingPrice, started, nil, started); err != nil {
				return err
			}
		}

		level, err := lockLevel(ctx, s, material, in.StoreID)
		if err != nil {
			return err
		}
		before := level.Status
		after, err := applyDelta(ctx, s, level, qty, started)
		if err != nil {
			return err
		}

		batch, err := createBatch(ctx, s, newBatchInput{
			Material:       material,
			StoreID:        in.StoreID,
			ReceivedAt:     inAt,
			ExpirationDate: in.ExpirationDate,
			Quantity:       qty,
			UnitPrice:      price,
		}, started)
		if err != nil {
			return err
		}

		record := &entity.InboundRecord{
			ID:           newID(),
			MaterialID:   material.ID,
			StoreID:      in.StoreID,
			Quantity:     qty,
			UnitPrice:    price,
			SellingPrice: dledger.NormalizePtr(in.SellingPrice),
			LotNo:        batch.LotNo,
			InAt:         inAt,
			StockAfter:   after,
			Memo:         in.Memo,
			CreatedAt:    started,
		}
		if err := s.Inbounds.Create(ctx, record); err != nil {
			return fmt.Errorf("registrar entrada: %w", err)
		}

		res = &InboundResult{Record: record, Batch: batch}
		events = append(events, newEvent(EventInboundRegistered, level.Key, record.ID, qty, after, started))
		events = append(events, statusEvent(level, before, started)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events)
	return res, nil
}
