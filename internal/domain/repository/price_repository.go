package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// PriceRepository define el puerto del historial de precios versionado.
type PriceRepository interface {
	Create(ctx context.Context, entry *entity.PriceEntry) error
	GetByID(ctx context.Context, id string) (*entity.PriceEntry, error)
	// UpdateAmount cambia solo el monto; ErrNotFound si el ID no existe.
	UpdateAmount(ctx context.Context, id string, amount decimal.Decimal) error
	// LatestAt entrada vigente en ts (valid_from <= ts < valid_to), valid_from desc, id desc; nil si no hay.
	LatestAt(ctx context.Context, materialID, priceType string, ts time.Time) (*entity.PriceEntry, error)
	History(ctx context.Context, materialID, priceType string, limit int) ([]*entity.PriceEntry, error)
}
