package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BatchRepository define el puerto del catálogo de lotes (LOT).
type BatchRepository interface {
	// Create inserta el lote; ErrDuplicate si el LotNo ya existe.
	Create(ctx context.Context, batch *entity.Batch) error
	ExistsLotNo(ctx context.Context, lotNo string) (bool, error)
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	// ListFIFOCandidates lotes con saldo > 0 en orden FIFO canónico.
	// forUpdate bloquea las filas (uso dentro de transacciones de escritura).
	ListFIFOCandidates(ctx context.Context, key entity.OwnerKey, forUpdate bool) ([]entity.Batch, error)
	// ListByKey todos los lotes de la llave (incluye agotados), orden FIFO.
	ListByKey(ctx context.Context, key entity.OwnerKey) ([]entity.Batch, error)
	// Decrement resta amount del saldo; ErrBatchUnderflow si amount > saldo. Nunca recorta.
	Decrement(ctx context.Context, batchID string, amount decimal.Decimal) error
	// SumRemaining suma de saldos de la llave (verificación de la invariante lote/agregado).
	SumRemaining(ctx context.Context, key entity.OwnerKey) (decimal.Decimal, error)
}
