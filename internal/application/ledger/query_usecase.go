package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// QueryUseCase consultas de solo lectura sobre agregados y lotes.
type QueryUseCase struct {
	core
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(d Deps) *QueryUseCase {
	return &QueryUseCase{core: newCore(d)}
}

// BatchStatusReport lotes de una llave frente a su agregado.
type BatchStatusReport struct {
	Key             entity.OwnerKey
	StockQuantity   decimal.Decimal
	BatchRemaining  decimal.Decimal
	InSync          bool
	AverageUnitCost decimal.Decimal
	Batches         []entity.Batch
}

// LotDetail lote con su material y días al vencimiento.
type LotDetail struct {
	Batch           *entity.Batch
	Material        *entity.Material
	DaysUntilExpiry *int
}

// StockLevel agregado por ID.
func (uc *QueryUseCase) StockLevel(ctx context.Context, id string) (*entity.StockLevel, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	level, err := uc.repos.Levels.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, domain.ErrNotFound
	}
	return level, nil
}

// BatchStatus todos los lotes de la llave (incluye agotados) con el costo promedio del saldo vivo.
// InSync=false indica que agregado y lotes divergieron; se loguea como alerta.
func (uc *QueryUseCase) BatchStatus(ctx context.Context, materialID, storeID string) (*BatchStatusReport, error) {
	if materialID == "" {
		return nil, domain.ErrInvalidInput
	}
	key := entity.OwnerKey{MaterialID: materialID, StoreID: storeID}
	level, err := uc.repos.Levels.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	batches, err := uc.repos.Batches.ListByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	remaining := decimal.Zero
	for i := range batches {
		remaining = remaining.Add(batches[i].RemainingQuantity)
	}
	report := &BatchStatusReport{
		Key:             key,
		StockQuantity:   level.Quantity,
		BatchRemaining:  remaining,
		InSync:          remaining.Equal(level.Quantity),
		AverageUnitCost: dledger.WeightedAverageCost(batches),
		Batches:         batches,
	}
	if !report.InSync {
		uc.log.Error().Bool("alert", true).
			Str("material_id", materialID).Str("store_id", storeID).
			Str("stock", level.Quantity.String()).Str("batches", remaining.String()).
			Msg("agregado y lotes divergieron")
	}
	return report, nil
}

// LotDetail lote por ID.
func (uc *QueryUseCase) LotDetail(ctx context.Context, batchID string) (*LotDetail, error) {
	batch, err := uc.batch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	material, err := requireMaterial(ctx, uc.repos, batch.MaterialID)
	if err != nil {
		return nil, err
	}
	return &LotDetail{Batch: batch, Material: material, DaysUntilExpiry: batch.DaysUntilExpiry(uc.now())}, nil
}

// BatchOutboundHistory líneas de despacho que consumieron el lote, más recientes primero.
func (uc *QueryUseCase) BatchOutboundHistory(ctx context.Context, batchID string, limit, offset int) ([]entity.AllocationLineView, error) {
	if _, err := uc.batch(ctx, batchID); err != nil {
		return nil, err
	}
	page := dto.PageRequest{Limit: limit, Offset: offset}
	page.DefaultPage()
	return uc.repos.Outbounds.ListLinesByBatch(ctx, batchID, page.Limit, page.Offset)
}

func (uc *QueryUseCase) batch(ctx context.Context, id string) (*entity.Batch, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	b, err := uc.repos.Batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	return b, nil
}
