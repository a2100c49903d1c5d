package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// OutboundUseCase vista previa y confirmación de despachos FIFO.
type OutboundUseCase struct {
	core
}

// NewOutboundUseCase construye el caso de uso.
func NewOutboundUseCase(d Deps) *OutboundUseCase {
	return &OutboundUseCase{core: newCore(d)}
}

// OutboundInput entrada de ConfirmOutbound. StoreID es el dueño del stock que se descuenta (vacío = sede central).
type OutboundInput struct {
	MaterialID string
	StoreID    string
	Quantity   decimal.Decimal
	OutAt      *time.Time
	Memo       string
}

// OrderLine renglón de un pedido.
type OrderLine struct {
	MaterialID string
	Quantity   decimal.Decimal
}

// OrderOutboundInput pedido completo despachado desde un mismo dueño.
type OrderOutboundInput struct {
	OrderCode string
	StoreID   string
	Lines     []OrderLine
	OutAt     *time.Time
}

// OutboundResult despacho confirmado con su plan de consumo.
type OutboundResult struct {
	Record      *entity.OutboundRecord
	Plan        dledger.Plan
	PriceSource string
}

// OutboundDetail cabecera del despacho con sus líneas por lote.
type OutboundDetail struct {
	Record *entity.OutboundRecord
	Lines  []entity.AllocationLineView
}

// PreviewOutbound calcula el plan FIFO con lecturas sin bloqueo. No muta nada.
func (uc *OutboundUseCase) PreviewOutbound(ctx context.Context, materialID, storeID string, quantity decimal.Decimal) (dledger.Plan, error) {
	qty := dledger.Normalize(quantity)
	if materialID == "" || !qty.IsPositive() {
		return dledger.Plan{}, domain.ErrInvalidInput
	}
	key := entity.OwnerKey{MaterialID: materialID, StoreID: storeID}
	level, err := uc.repos.Levels.Get(ctx, key)
	if err != nil {
		return dledger.Plan{}, err
	}
	if qty.GreaterThan(level.Quantity) {
		return dledger.Plan{}, fmt.Errorf("%w: disponible=%s, solicitado=%s", domain.ErrInsufficientStock, level.Quantity, qty)
	}
	candidates, err := uc.repos.Batches.ListFIFOCandidates(ctx, key, false)
	if err != nil {
		return dledger.Plan{}, err
	}
	return dledger.Allocate(level.Quantity, candidates, qty)
}

// ConfirmOutbound descuenta agregado y lotes en una sola tx y deja el registro con sus líneas.
// Cualquier fallo deshace todo: ningún lote queda descontado a medias.
func (uc *OutboundUseCase) ConfirmOutbound(ctx context.Context, in OutboundInput) (_ *OutboundResult, err error) {
	started := uc.now()
	var res *OutboundResult
	defer func() {
		uc.observe("confirm_outbound", started, err, func(e *zerolog.Event) {
			e.Str("material_id", in.MaterialID).Str("store_id", in.StoreID).Str("quantity", in.Quantity.String())
			if res != nil {
				e.Str("outbound_id", res.Record.ID).Int("lots", len(res.Plan.Lines)).Str("price_source", res.PriceSource)
			}
		})
	}()

	qty := dledger.Normalize(in.Quantity)
	if in.MaterialID == "" || !qty.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	outAt := started
	if in.OutAt != nil {
		outAt = *in.OutAt
	}

	var events []Event
	err = uc.tx.Run(ctx, func(ctx context.Context, s Stores) error {
		material, err := requireMaterial(ctx, s, in.MaterialID)
		if err != nil {
			return err
		}
		r, evs, err := uc.confirmInTx(ctx, s, material, in.StoreID, qty, outAt, in.Memo, started)
		if err != nil {
			return err
		}
		res, events = r, evs
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.PriceFallback(res.PriceSource)
	uc.publish(ctx, events)
	return res, nil
}

// ConfirmOrderOutbound despacha todos los renglones del pedido en una sola tx. Renglones con cantidad <= 0
// se omiten. Los agregados se bloquean en orden de llave para que dos pedidos concurrentes no se crucen.
// Devuelve los IDs de despacho en el orden de los renglones aplicados.
func (uc *OutboundUseCase) ConfirmOrderOutbound(ctx context.Context, in OrderOutboundInput) (_ []string, err error) {
	started := uc.now()
	var ids []string
	defer func() {
		uc.observe("confirm_order_outbound", started, err, func(e *zerolog.Event) {
			e.Str("order_code", in.OrderCode).Str("store_id", in.StoreID).Int("outbounds", len(ids))
		})
	}()

	lines := make([]OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty := dledger.Normalize(l.Quantity)
		if !qty.IsPositive() {
			continue
		}
		if l.MaterialID == "" {
			return nil, domain.ErrInvalidInput
		}
		lines = append(lines, OrderLine{MaterialID: l.MaterialID, Quantity: qty})
	}
	if strings.TrimSpace(in.OrderCode) == "" || len(lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	outAt := started
	if in.OutAt != nil {
		outAt = *in.OutAt
	}
	memo := "pedido " + in.OrderCode

	var (
		events  []Event
		sources []string
	)
	err = uc.tx.Run(ctx, func(ctx context.Context, s Stores) error {
		events, sources, ids = nil, nil, nil

		materials := make(map[string]*entity.Material, len(lines))
		keys := make([]entity.OwnerKey, 0, len(lines))
		for _, l := range lines {
			if _, ok := materials[l.MaterialID]; ok {
				continue
			}
			m, err := requireMaterial(ctx, s, l.MaterialID)
			if err != nil {
				return err
			}
			materials[l.MaterialID] = m
			keys = append(keys, entity.OwnerKey{MaterialID: m.ID, StoreID: in.StoreID})
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
		for _, k := range keys {
			if _, err := lockLevel(ctx, s, materials[k.MaterialID], k.StoreID); err != nil {
				return err
			}
		}

		for _, l := range lines {
			r, evs, err := uc.confirmInTx(ctx, s, materials[l.MaterialID], in.StoreID, l.Quantity, outAt, memo, started)
			if err != nil {
				return fmt.Errorf("material %s: %w", l.MaterialID, err)
			}
			ids = append(ids, r.Record.ID)
			sources = append(sources, r.PriceSource)
			events = append(events, evs...)
		}
		return nil
	})
	if err != nil {
		ids = nil
		return nil, err
	}
	for _, src := range sources {
		uc.metrics.PriceFallback(src)
	}
	uc.publish(ctx, events)
	return ids, nil
}

// OutboundDetail cabecera y líneas de un despacho.
func (uc *OutboundUseCase) OutboundDetail(ctx context.Context, id string) (*OutboundDetail, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := uc.repos.Outbounds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	lines, err := uc.repos.Outbounds.ListLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OutboundDetail{Record: rec, Lines: lines}, nil
}

// confirmInTx bloquea el agregado, descuenta lotes FIFO, resuelve el precio y persiste cabecera y líneas.
func (uc *OutboundUseCase) confirmInTx(
	ctx context.Context,
	s Stores,
	material *entity.Material,
	storeID string,
	qty decimal.Decimal,
	outAt time.Time,
	memo string,
	now time.Time,
) (*OutboundResult, []Event, error) {
	level, err := lockLevel(ctx, s, material, storeID)
	if err != nil {
		return nil, nil, err
	}
	before := level.Status

	plan, err := consume(ctx, s, level, qty)
	if err != nil {
		return nil, nil, err
	}
	after, err := applyDelta(ctx, s, level, qty.Neg(), now)
	if err != nil {
		return nil, nil, err
	}

	price, source, err := resolveOutUnitPrice(ctx, s, material.ID, outAt)
	if err != nil {
		return nil, nil, err
	}
	if source == PriceSourceZero {
		uc.log.Warn().Str("material_id", material.ID).Msg("despacho sin precio de compra ni despacho previo: precio unitario 0")
	}
	if err := mirrorPrice(ctx, s, material.ID, price, now); err != nil {
		return nil, nil, err
	}

	rec := &entity.OutboundRecord{
		ID:         newID(),
		MaterialID: material.ID,
		StoreID:    storeID,
		Quantity:   qty,
		UnitPrice:  price,
		StockAfter: after,
		Status:     entity.OutboundStatusConfirmed,
		Memo:       memo,
		OutAt:      outAt,
		CreatedAt:  now,
	}
	if err := s.Outbounds.Create(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("registrar despacho: %w", err)
	}
	for _, pl := range plan.Lines {
		line := &entity.AllocationLine{
			ID:         newID(),
			OutboundID: rec.ID,
			BatchID:    pl.BatchID,
			Quantity:   pl.Quantity,
		}
		if err := s.Outbounds.CreateLine(ctx, line); err != nil {
			return nil, nil, err
		}
	}

	events := []Event{newEvent(EventOutboundConfirmed, level.Key, rec.ID, qty, after, now)}
	events = append(events, statusEvent(level, before, now)...)
	return &OutboundResult{Record: rec, Plan: plan, PriceSource: source}, events, nil
}
