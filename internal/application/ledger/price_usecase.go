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
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Origen del precio unitario de un despacho.
const (
	PriceSourceLedger       = "ledger"
	PriceSourceLastOutbound = "last_outbound"
	PriceSourceZero         = "zero"
)

// PriceLedgerUseCase historial de precios versionado por material y tipo (PURCHASE/SELLING).
type PriceLedgerUseCase struct {
	core
}

// NewPriceLedgerUseCase construye el caso de uso.
func NewPriceLedgerUseCase(d Deps) *PriceLedgerUseCase {
	return &PriceLedgerUseCase{core: newCore(d)}
}

// RegisterPriceInput entrada de RegisterPrice. ValidFrom nil = ahora; ValidTo nil = abierto.
type RegisterPriceInput struct {
	MaterialID string
	Type       string
	Amount     decimal.Decimal
	ValidFrom  *time.Time
	ValidTo    *time.Time
}

// RegisterPrice agrega una entrada nueva. Las anteriores no se cierran: la consulta por fecha elige la más reciente.
func (uc *PriceLedgerUseCase) RegisterPrice(ctx context.Context, in RegisterPriceInput) (_ *entity.PriceEntry, err error) {
	started := uc.now()
	var entry *entity.PriceEntry
	defer func() {
		uc.observe("register_price", started, err, func(e *zerolog.Event) {
			e.Str("material_id", in.MaterialID).Str("price_type", in.Type)
		})
	}()

	if _, err = requireMaterial(ctx, uc.repos, in.MaterialID); err != nil {
		return nil, err
	}
	from := started
	if in.ValidFrom != nil {
		from = *in.ValidFrom
	}
	entry, err = registerPrice(ctx, uc.repos.Prices, in.MaterialID, in.Type, in.Amount, from, in.ValidTo, started)
	return entry, err
}

// LatestPriceAt entrada vigente en ts; ErrPriceNotFound si ninguna aplica.
func (uc *PriceLedgerUseCase) LatestPriceAt(ctx context.Context, materialID, priceType string, ts time.Time) (*entity.PriceEntry, error) {
	if materialID == "" || !entity.ValidPriceType(priceType) {
		return nil, domain.ErrInvalidInput
	}
	entry, err := uc.repos.Prices.LatestAt(ctx, materialID, priceType, ts)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrPriceNotFound
	}
	return entry, nil
}

// UpdateAmount corrige el monto de una entrada existente sin tocar su vigencia.
func (uc *PriceLedgerUseCase) UpdateAmount(ctx context.Context, id string, amount decimal.Decimal) (err error) {
	started := uc.now()
	defer func() {
		uc.observe("update_price", started, err, func(e *zerolog.Event) { e.Str("price_id", id) })
	}()

	if id == "" || amount.IsNegative() {
		return domain.ErrInvalidInput
	}
	return uc.repos.Prices.UpdateAmount(ctx, id, dledger.Normalize(amount))
}

// History últimas entradas del material y tipo, valid_from desc.
func (uc *PriceLedgerUseCase) History(ctx context.Context, materialID, priceType string, limit int) ([]*entity.PriceEntry, error) {
	if materialID == "" || !entity.ValidPriceType(priceType) {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.repos.Prices.History(ctx, materialID, priceType, limit)
}

// registerPrice valida y persiste una entrada con el repositorio recibido (pool o tx del caller).
func registerPrice(
	ctx context.Context,
	prices repository.PriceRepository,
	materialID, priceType string,
	amount decimal.Decimal,
	from time.Time, to *time.Time,
	now time.Time,
) (*entity.PriceEntry, error) {
	if !entity.ValidPriceType(priceType) {
		return nil, fmt.Errorf("%w: tipo de precio %q", domain.ErrInvalidInput, priceType)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: monto negativo", domain.ErrInvalidInput)
	}
	if to != nil && !to.After(from) {
		return nil, fmt.Errorf("%w: valid_to debe ser posterior a valid_from", domain.ErrInvalidInput)
	}
	entry := &entity.PriceEntry{
		ID:         newID(),
		MaterialID: materialID,
		Type:       priceType,
		Amount:     dledger.Normalize(amount),
		ValidFrom:  from,
		ValidTo:    to,
		CreatedAt:  now,
	}
	if err := prices.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// resolveOutUnitPrice precio de un despacho en ts:
// compra vigente > 0, si no el precio del último despacho > 0, si no cero.
func resolveOutUnitPrice(ctx context.Context, s Stores, materialID string, ts time.Time) (decimal.Decimal, string, error) {
	entry, err := s.Prices.LatestAt(ctx, materialID, entity.PriceTypePurchase, ts)
	if err != nil {
		return decimal.Zero, "", err
	}
	if entry != nil && entry.Amount.IsPositive() {
		return entry.Amount, PriceSourceLedger, nil
	}
	last, err := s.Outbounds.LastUnitPrice(ctx, materialID)
	if err != nil {
		return decimal.Zero, "", err
	}
	if last != nil && last.IsPositive() {
		return *last, PriceSourceLastOutbound, nil
	}
	return decimal.Zero, PriceSourceZero, nil
}

// mirrorPrice registra el precio usado en PURCHASE y SELLING con vigencia desde now.
func mirrorPrice(ctx context.Context, s Stores, materialID string, amount decimal.Decimal, now time.Time) error {
	for _, t := range []string{entity.PriceTypePurchase, entity.PriceTypeSelling} {
		if _, err := registerPrice(ctx, s.Prices, materialID, t, amount, now, nil, now); err != nil {
			return err
		}
	}
	return nil
}
