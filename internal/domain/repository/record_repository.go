package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InboundRepository define el puerto de persistencia para registros de entrada.
type InboundRepository interface {
	Create(ctx context.Context, record *entity.InboundRecord) error
	GetByID(ctx context.Context, id string) (*entity.InboundRecord, error)
	ExistsLotNo(ctx context.Context, lotNo string) (bool, error)
}

// OutboundRepository define el puerto de persistencia para despachos y sus líneas FIFO.
type OutboundRepository interface {
	Create(ctx context.Context, record *entity.OutboundRecord) error
	CreateLine(ctx context.Context, line *entity.AllocationLine) error
	GetByID(ctx context.Context, id string) (*entity.OutboundRecord, error)
	ListLines(ctx context.Context, outboundID string) ([]entity.AllocationLineView, error)
	ListLinesByBatch(ctx context.Context, batchID string, limit, offset int) ([]entity.AllocationLineView, error)
	// LastUnitPrice precio del despacho más reciente del material (out_at desc, id desc); nil si no hay.
	LastUnitPrice(ctx context.Context, materialID string) (*decimal.Decimal, error)
}

// AdjustmentRepository define el puerto de persistencia para ajustes manuales.
type AdjustmentRepository interface {
	Create(ctx context.Context, record *entity.AdjustmentRecord) error
	GetByID(ctx context.Context, id string) (*entity.AdjustmentRecord, error)
}
