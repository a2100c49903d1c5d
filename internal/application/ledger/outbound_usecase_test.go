package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// twoBatches deja el escenario base: B1(5, vence día 1) y B2(10, vence día 2) en sede central.
func twoBatches(t *testing.T, f *fixture) (materialID, b1, b2 string) {
	t.Helper()
	materialID = f.material(t, "m-1", "MAT01", nil)
	b1 = f.receive(t, materialID, "", "5", "100", dayAfter(1)).Batch.ID
	b2 = f.receive(t, materialID, "", "10", "100", dayAfter(2)).Batch.ID
	return materialID, b1, b2
}

// ──────────────────────────────────────────────────────────────────────────────
// ConfirmOutbound
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirmOutbound_ConsumeFIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID, b1, b2 := twoBatches(t, f)

	res, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, Quantity: dec("7")})
	require.NoError(t, err)

	require.Len(t, res.Plan.Lines, 2)
	assert.Equal(t, b1, res.Plan.Lines[0].BatchID, "primero el lote que vence antes")
	assertDec(t, "5", res.Plan.Lines[0].Quantity, "línea B1")
	assert.Equal(t, b2, res.Plan.Lines[1].BatchID)
	assertDec(t, "2", res.Plan.Lines[1].Quantity, "línea B2")

	assertDec(t, "0", f.batch(t, b1).RemainingQuantity, "saldo B1")
	assertDec(t, "8", f.batch(t, b2).RemainingQuantity, "saldo B2")
	assertDec(t, "8", res.Record.StockAfter, "stock después del despacho")
	assertDec(t, "8", f.level(t, materialID, "").Quantity, "agregado")
	assert.Equal(t, entity.OutboundStatusConfirmed, res.Record.Status)

	detail, err := f.outbound.OutboundDetail(ctx, res.Record.ID)
	require.NoError(t, err)
	total := dec("0")
	for _, l := range detail.Lines {
		total = total.Add(l.Quantity)
		assert.NotEmpty(t, l.LotNo, "la línea expone el número de LOT")
	}
	assertDec(t, "7", total, "suma de líneas de asignación")

	f.assertInSync(t, materialID, "")
	assert.Len(t, f.events.ofType(ledger.EventOutboundConfirmed), 1, "un evento por despacho confirmado")
}

func TestConfirmOutbound_CantidadExactaAgotaLotes(t *testing.T) {
	f := newFixture(t)
	materialID, b1, b2 := twoBatches(t, f)

	res, err := f.outbound.ConfirmOutbound(context.Background(), ledger.OutboundInput{MaterialID: materialID, Quantity: dec("15")})
	require.NoError(t, err)

	assertDec(t, "0", res.Record.StockAfter, "stock después")
	assertDec(t, "0", f.batch(t, b1).RemainingQuantity, "saldo B1")
	assertDec(t, "0", f.batch(t, b2).RemainingQuantity, "saldo B2")
	assert.Equal(t, entity.StockStatusShortage, f.level(t, materialID, "").Status)

	status := f.events.ofType(ledger.EventStockStatusChanged)
	require.NotEmpty(t, status)
	assert.Equal(t, entity.StockStatusShortage, status[len(status)-1].Status, "el agotamiento emite cambio de estado")
	f.assertInSync(t, materialID, "")
}

func TestConfirmOutbound_StockInsuficienteNoMuta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID, b1, b2 := twoBatches(t, f)

	_, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, Quantity: dec("15.001")})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assertDec(t, "5", f.batch(t, b1).RemainingQuantity, "saldo B1 intacto")
	assertDec(t, "10", f.batch(t, b2).RemainingQuantity, "saldo B2 intacto")
	assertDec(t, "15", f.level(t, materialID, "").Quantity, "agregado intacto")
	assert.Empty(t, f.events.ofType(ledger.EventOutboundConfirmed), "sin eventos si falla")

	hist, err := f.queries.BatchOutboundHistory(ctx, b1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hist, "no queda ninguna línea de asignación")
}

func TestConfirmOutbound_FalloAMitadDeshaceTodo(t *testing.T) {
	tests := []struct {
		name  string
		op    string
		fault error
	}{
		{"falla al escribir la línea", "outbounds.CreateLine", errBoom},
		{"lote en negativo", "batches.Decrement", domain.ErrBatchUnderflow},
		{"falla al guardar el agregado", "levels.Save", errBoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			materialID, b1, b2 := twoBatches(t, f)

			f.store.InjectFault(tt.op, tt.fault)
			_, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, Quantity: dec("7")})
			require.ErrorIs(t, err, tt.fault)

			assertDec(t, "5", f.batch(t, b1).RemainingQuantity, "saldo B1 restaurado")
			assertDec(t, "10", f.batch(t, b2).RemainingQuantity, "saldo B2 restaurado")
			assertDec(t, "15", f.level(t, materialID, "").Quantity, "agregado restaurado")
			f.assertInSync(t, materialID, "")

			// el fallo es de un solo uso: el reintento pasa
			_, err = f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, Quantity: dec("7")})
			require.NoError(t, err)
			f.assertInSync(t, materialID, "")
		})
	}
}

func TestConfirmOutbound_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID, _, _ := twoBatches(t, f)

	_, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, Quantity: dec("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")

	_, err = f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: "", Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin material")

	_, err = f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: "no-existe", Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound, "material desconocido")
}

func TestConfirmOutbound_TiendasIndependientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID := f.material(t, "m-1", "MAT01", nil)
	f.receive(t, materialID, "", "10", "5", nil)
	f.receive(t, materialID, "store-1", "4", "5", nil)

	_, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, StoreID: "store-1", Quantity: dec("5")})
	require.ErrorIs(t, err, domain.ErrInsufficientStock, "la tienda no puede tomar stock de la sede central")

	_, err = f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, StoreID: "store-1", Quantity: dec("4")})
	require.NoError(t, err)

	assertDec(t, "10", f.level(t, materialID, "").Quantity, "sede central intacta")
	assertDec(t, "0", f.level(t, materialID, "store-1").Quantity, "tienda agotada")
	f.assertInSync(t, materialID, "")
	f.assertInSync(t, materialID, "store-1")
}

func TestConfirmOutbound_ConcurrentesNuncaSobregiran(t *testing.T) {
	f := newFixture(t)
	materialID := f.material(t, "m-1", "MAT01", nil)
	f.receive(t, materialID, "", "5", "1", nil)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.outbound.ConfirmOutbound(context.Background(), ledger.OutboundInput{MaterialID: materialID, Quantity: dec("1")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok, "solo cinco despachos caben en el stock")
	assert.Equal(t, 5, rejected)
	assertDec(t, "0", f.level(t, materialID, "").Quantity, "agregado")
	f.assertInSync(t, materialID, "")
}

func TestConfirmOutbound_FalloDelBrokerNoDeshaceElCommit(t *testing.T) {
	f := newFixture(t)
	materialID, _, _ := twoBatches(t, f)
	f.events.err = errBoom

	res, err := f.outbound.ConfirmOutbound(context.Background(), ledger.OutboundInput{MaterialID: materialID, Quantity: dec("1")})
	require.NoError(t, err, "el despacho ya confirmado no depende del broker")
	assertDec(t, "14", res.Record.StockAfter, "stock después")
}

// ──────────────────────────────────────────────────────────────────────────────
// PreviewOutbound
// ──────────────────────────────────────────────────────────────────────────────

func TestPreviewOutbound_IdempotenteYSinMutacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialID, b1, b2 := twoBatches(t, f)

	first, err := f.outbound.PreviewOutbound(ctx, materialID, "", dec("7"))
	require.NoError(t, err)
	second, err := f.outbound.PreviewOutbound(ctx, materialID, "", dec("7"))
	require.NoError(t, err)

	assertSamePlan(t, first, second)
	assertDec(t, "5", f.batch(t, b1).RemainingQuantity, "saldo B1")
	assertDec(t, "10", f.batch(t, b2).RemainingQuantity, "saldo B2")

	// la confirmación sigue exactamente el mismo plan
	res, err := f.outbound.ConfirmOutbound(ctx, ledger.OutboundInput{MaterialID: materialID, Quantity: dec("7")})
	require.NoError(t, err)
	assertSamePlan(t, first, res.Plan)
}

func assertSamePlan(t *testing.T, want, got dledger.Plan) {
	t.Helper()
	require.Len(t, got.Lines, len(want.Lines), "mismo número de líneas")
	for i := range want.Lines {
		assert.Equal(t, want.Lines[i].BatchID, got.Lines[i].BatchID, "línea %d", i)
		assert.True(t, want.Lines[i].Quantity.Equal(got.Lines[i].Quantity), "cantidad de la línea %d", i)
	}
}

func TestPreviewOutbound_Insuficiente(t *testing.T) {
	f := newFixture(t)
	materialID, _, _ := twoBatches(t, f)

	_, err := f.outbound.PreviewOutbound(context.Background(), materialID, "", dec("16"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.outbound.PreviewOutbound(context.Background(), materialID, "store-sin-stock", dec("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "un dueño sin fila tiene stock cero")
}

// ──────────────────────────────────────────────────────────────────────────────
// ConfirmOrderOutbound
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirmOrderOutbound_TodoONada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.material(t, "m-a", "MATA", nil)
	b := f.material(t, "m-b", "MATB", nil)
	batchA := f.receive(t, a, "", "5", "10", nil).Batch.ID
	f.receive(t, b, "", "1", "10", nil)

	_, err := f.outbound.ConfirmOrderOutbound(ctx, ledger.OrderOutboundInput{
		OrderCode: "PED-1",
		Lines: []ledger.OrderLine{
			{MaterialID: a, Quantity: dec("3")},
			{MaterialID: b, Quantity: dec("2")},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assertDec(t, "5", f.level(t, a, "").Quantity, "el renglón A se deshace")
	assertDec(t, "5", f.batch(t, batchA).RemainingQuantity, "lote A intacto")
	assert.Empty(t, f.events.ofType(ledger.EventOutboundConfirmed))
}

func TestConfirmOrderOutbound_OmiteRenglonesEnCeroYRespetaOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.material(t, "m-a", "MATA", nil)
	b := f.material(t, "m-b", "MATB", nil)
	f.receive(t, a, "", "5", "10", nil)
	f.receive(t, b, "", "1", "10", nil)

	ids, err := f.outbound.ConfirmOrderOutbound(ctx, ledger.OrderOutboundInput{
		OrderCode: "PED-2",
		Lines: []ledger.OrderLine{
			{MaterialID: b, Quantity: dec("1")},
			{MaterialID: a, Quantity: dec("0")},
			{MaterialID: a, Quantity: dec("2")},
		},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2, "el renglón en cero no genera despacho")

	first, err := f.outbound.OutboundDetail(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, b, first.Record.MaterialID, "los IDs siguen el orden del pedido")
	assert.Equal(t, "pedido PED-2", first.Record.Memo)

	second, err := f.outbound.OutboundDetail(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, a, second.Record.MaterialID)
	assertDec(t, "3", second.Record.StockAfter, "stock de A después")

	f.assertInSync(t, a, "")
	f.assertInSync(t, b, "")
}

func TestConfirmOrderOutbound_SinRenglonesEfectivos(t *testing.T) {
	f := newFixture(t)
	a := f.material(t, "m-a", "MATA", nil)

	_, err := f.outbound.ConfirmOrderOutbound(context.Background(), ledger.OrderOutboundInput{
		OrderCode: "PED-3",
		Lines:     []ledger.OrderLine{{MaterialID: a, Quantity: dec("0")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.outbound.ConfirmOrderOutbound(context.Background(), ledger.OrderOutboundInput{
		Lines: []ledger.OrderLine{{MaterialID: a, Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el código de pedido es obligatorio")
}

func TestOutboundDetail_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.outbound.OutboundDetail(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
