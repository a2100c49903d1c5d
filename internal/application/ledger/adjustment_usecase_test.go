package ledger_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Recorrido completo: despacho FIFO, ajuste hacia arriba, ajuste hacia abajo, ajuste negativo
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustStock_Recorrido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID, b1, b2 := twoBatches(t, f)

	// despacho de 7: B1=0, B2=8
	_, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, Quantity: dec("7")})
	require.NoError(t, err)
	levelID := f.level(t, materialID, "").ID

	// ajuste a 20: lote ADJ por 12
	up, err := f.adjust.AdjustStock(ctx, ledger.AdjustInput{StockLevelID: levelID, QuantityAfter: dec("20")})
	require.NoError(t, err)
	assertDec(t, "8", up.QuantityBefore, "cantidad antes")
	assertDec(t, "12", up.Difference, "diferencia")
	assert.Equal(t, entity.AdjustmentReasonManual, up.Reason, "motivo por defecto")
	assertDec(t, "100", up.UnitPrice, "precio de compra vigente")

	adj := adjustmentBatch(t, f, materialID)
	assertDec(t, "12", adj.RemainingQuantity, "saldo del lote ADJ")
	assertDec(t, "20", f.level(t, materialID, "").Quantity, "agregado")
	f.assertInSync(t, materialID, "")

	// ajuste a 3: consume B2 (vence) y luego ADJ (sin vencimiento)
	down, err := f.adjust.AdjustStock(ctx, ledger.AdjustInput{StockLevelID: levelID, QuantityAfter: dec("3"), Reason: entity.AdjustmentReasonLoss})
	require.NoError(t, err)
	assertDec(t, "-17", down.Difference, "diferencia")
	assertDec(t, "0", f.batch(t, b1).RemainingQuantity, "saldo B1")
	assertDec(t, "0", f.batch(t, b2).RemainingQuantity, "saldo B2")
	assertDec(t, "3", f.batch(t, adj.ID).RemainingQuantity, "saldo ADJ")
	assertDec(t, "3", f.level(t, materialID, "").Quantity, "agregado")
	f.assertInSync(t, materialID, "")

	// ajuste a -1: rechazado antes de mutar
	_, err = f.adjust.AdjustStock(ctx, ledger.AdjustInput{StockLevelID: levelID, QuantityAfter: dec("-1")})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assertDec(t, "3", f.level(t, materialID, "").Quantity, "agregado sin cambios")
	assertDec(t, "3", f.batch(t, adj.ID).RemainingQuantity, "saldo ADJ sin cambios")

	detail, err := f.adjust.AdjustmentDetail(ctx, down.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentReasonLoss, detail.Reason)
	assert.Len(t, f.events.ofType(ledger.EventStockAdjusted), 2)
}

func TestAdjustStock_SinDiferenciaSoloRegistra(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID, _, _ := twoBatches(t, f)
	levelID := f.level(t, materialID, "").ID

	rec, err := f.adjust.AdjustStock(ctx, ledger.AdjustInput{StockLevelID: levelID, QuantityAfter: dec("15"), Memo: "conteo"})
	require.NoError(t, err)
	assert.True(t, rec.Difference.IsZero())

	report, err := f.queries.BatchStatus(ctx, materialID, "")
	require.NoError(t, err)
	assert.Len(t, report.Batches, 2, "no se crea lote ADJ")
}

func TestAdjustStock_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID, _, _ := twoBatches(t, f)
	levelID := f.level(t, materialID, "").ID

	_, err := f.adjust.AdjustStock(ctx, ledger.AdjustInput{StockLevelID: levelID, QuantityAfter: dec("1"), Reason: "ROBO"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "motivo desconocido")

	_, err = f.adjust.AdjustStock(ctx, ledger.AdjustInput{StockLevelID: "no-existe", QuantityAfter: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.adjust.AdjustmentDetail(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustStock_DivergenciaEsErrorDeSistema(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID, b1, _ := twoBatches(t, f)
	levelID := f.level(t, materialID, "").ID

	// simula una escritura por fuera del libro: los lotes quedan por debajo del agregado
	require.NoError(t, f.store.Repos().Batches.Decrement(ctx, b1, dec("5")))

	report, err := f.queries.BatchStatus(ctx, materialID, "")
	require.NoError(t, err)
	assert.False(t, report.InSync, "la consulta detecta la divergencia")

	_, err = f.adjust.AdjustStock(ctx, ledger.AdjustInput{StockLevelID: levelID, QuantityAfter: dec("0")})
	require.ErrorIs(t, err, domain.ErrAllocationMismatch)
	assert.True(t, domain.IsSystemError(err))
	assertDec(t, "15", f.level(t, materialID, "").Quantity, "el agregado no se corrige en silencio")
}

func TestAdjustStock_LoteADJConSufijoTemporal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID, _, _ := twoBatches(t, f)
	levelID := f.level(t, materialID, "").ID

	f.store.InjectFaultN("batches.Create", domain.ErrDuplicate, dledger.MaxLotAttempts)
	_, err := f.adjust.AdjustStock(ctx, ledger.AdjustInput{StockLevelID: levelID, QuantityAfter: dec("20")})
	require.NoError(t, err)

	adj := adjustmentBatch(t, f, materialID)
	assert.Regexp(t, `^MAT01-\d{6}-ADJT[0-9A-Z]+\.[0-9A-Z]+$`, adj.LotNo, "la etiqueta ADJ se conserva en el sufijo temporal")
	assertDec(t, "5", adj.RemainingQuantity, "saldo del lote ADJ")
	f.assertInSync(t, materialID, "")
}

func adjustmentBatch(t *testing.T, f *fixture, materialID string) entity.Batch {
	t.Helper()
	report, err := f.queries.BatchStatus(context.Background(), materialID, "")
	require.NoError(t, err)
	for _, b := range report.Batches {
		if strings.Contains(b.LotNo, "-ADJ") {
			return b
		}
	}
	t.Fatalf("no se encontró lote ADJ para %s", materialID)
	return entity.Batch{}
}
