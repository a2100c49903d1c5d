package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Stores agrupa los repositorios del libro de stock. Dentro de TxRunner.Run todos están
// atados a la misma transacción; fuera de ella (Deps.Repos) van contra el pool.
type Stores struct {
	Materials   repository.MaterialRepository
	Levels      repository.StockLevelRepository
	Batches     repository.BatchRepository
	Inbounds    repository.InboundRepository
	Outbounds   repository.OutboundRepository
	Adjustments repository.AdjustmentRepository
	Prices      repository.PriceRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil, Rollback en cualquier otro caso: ningún descuento de lote sobrevive a un error.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// EventPublisher publica eventos del libro después del Commit.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Recorder recibe métricas de las operaciones del libro.
type Recorder interface {
	ObserveOperation(operation string, started time.Time, err error)
	PriceFallback(source string)
}
