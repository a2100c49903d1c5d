package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestBatchStatus_CostoPromedioYOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID := f.material(t, "m-1", "MAT01", nil)
	late := f.receive(t, materialID, "", "1", "20", nil).Batch.ID
	early := f.receive(t, materialID, "", "3", "10", dayAfter(3)).Batch.ID

	report, err := f.queries.BatchStatus(ctx, materialID, "")
	require.NoError(t, err)

	require.Len(t, report.Batches, 2)
	assert.Equal(t, early, report.Batches[0].ID, "el lote que vence va primero")
	assert.Equal(t, late, report.Batches[1].ID)
	assertDec(t, "12.5", report.AverageUnitCost, "costo promedio ponderado")
	assertDec(t, "4", report.StockQuantity, "agregado")
	assert.True(t, report.InSync)

	_, err = f.queries.BatchStatus(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLotDetailEHistorial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID := f.material(t, "m-1", "MAT01", nil)
	batchID := f.receive(t, materialID, "", "10", "1", dayAfter(10)).Batch.ID

	detail, err := f.queries.LotDetail(ctx, batchID)
	require.NoError(t, err)
	assert.Equal(t, "MAT01", detail.Material.Code)
	if assert.NotNil(t, detail.DaysUntilExpiry) {
		assert.Equal(t, 9, *detail.DaysUntilExpiry, "días completos hasta el vencimiento")
	}

	first, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, Quantity: dec("2")})
	require.NoError(t, err)
	second, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, Quantity: dec("3")})
	require.NoError(t, err)

	hist, err := f.queries.BatchOutboundHistory(ctx, batchID, 10, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, second.Record.ID, hist[0].OutboundID, "más reciente primero")
	assert.Equal(t, first.Record.ID, hist[1].OutboundID)
	assertDec(t, "5", hist[0].BatchRemaining, "saldo actual del lote")

	page, err := f.queries.BatchOutboundHistory(ctx, batchID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.Record.ID, page[0].OutboundID, "limit/offset")

	_, err = f.queries.LotDetail(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.queries.BatchOutboundHistory(ctx, "no-existe", 10, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockLevel_PorID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID := f.material(t, "m-1", "MAT01", nil)
	f.receive(t, materialID, "store-1", "2", "1", nil)

	id := f.level(t, materialID, "store-1").ID
	lv, err := f.queries.StockLevel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "store-1", lv.Key.StoreID)
	assertDec(t, "2", lv.Quantity, "cantidad")

	_, err = f.queries.StockLevel(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// LowStock
// ──────────────────────────────────────────────────────────────────────────────

func TestLowStock_MayorDeficitPrimero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	optimal := decPtr("10")

	low := f.material(t, "m-low", "MAT-LOW", optimal)
	empty := f.material(t, "m-empty", "MAT-EMPTY", optimal)
	ok := f.material(t, "m-ok", "MAT-OK", optimal)
	f.receive(t, low, "", "2", "1", nil)
	f.receive(t, empty, "", "4", "1", nil)
	f.receive(t, ok, "", "15", "1", nil)
	f.receive(t, low, "store-1", "1", "1", nil)

	_, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: empty, Quantity: dec("4")})
	require.NoError(t, err)

	hq := ""
	items, err := f.lowStock.LowStock(ctx, &hq, 0)
	require.NoError(t, err)
	require.Len(t, items, 2, "solo sede central y solo bajo el óptimo")

	assert.Equal(t, empty, items[0].MaterialID)
	assert.Equal(t, entity.StockStatusShortage, items[0].Status)
	assertDec(t, "10", items[0].SuggestedQty, "sugerido del agotado")
	assert.Equal(t, 1, items[0].Priority)

	assert.Equal(t, low, items[1].MaterialID)
	assert.Equal(t, entity.StockStatusLow, items[1].Status)
	assertDec(t, "8", items[1].SuggestedQty, "sugerido del bajo")
	assert.Equal(t, "MAT-LOW", items[1].MaterialCode)
	assert.Equal(t, 2, items[1].Priority)

	all, err := f.lowStock.LowStock(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "sin filtro incluye la tienda")
}
