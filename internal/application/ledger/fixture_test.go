package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: casos de uso sobre el almacén en memoria, reloj que avanza 1s por lectura
// ──────────────────────────────────────────────────────────────────────────────

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ledger.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...ledger.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) ofType(t string) []ledger.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ledger.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type recordingRecorder struct {
	mu      sync.Mutex
	ops     map[string]int
	sources []string
}

func (r *recordingRecorder) ObserveOperation(op string, _ time.Time, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op]++
}

func (r *recordingRecorder) PriceFallback(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

type fixture struct {
	store    *memory.Store
	clock    *clock
	events   *recordingPublisher
	metrics  *recordingRecorder
	inbound  *ledger.InboundUseCase
	outbound *ledger.OutboundUseCase
	adjust   *ledger.AdjustmentUseCase
	prices   *ledger.PriceLedgerUseCase
	queries  *ledger.QueryUseCase
	lowStock *ledger.LowStockUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:   store,
		clock:   &clock{cur: t0},
		events:  &recordingPublisher{},
		metrics: &recordingRecorder{ops: map[string]int{}},
	}
	deps := ledger.Deps{
		Tx:      store,
		Repos:   store.Repos(),
		Events:  f.events,
		Metrics: f.metrics,
		Log:     logger.Nop(),
		Now:     f.clock.Now,
	}
	f.inbound = ledger.NewInboundUseCase(deps)
	f.outbound = ledger.NewOutboundUseCase(deps)
	f.adjust = ledger.NewAdjustmentUseCase(deps)
	f.prices = ledger.NewPriceLedgerUseCase(deps)
	f.queries = ledger.NewQueryUseCase(deps)
	f.lowStock = ledger.NewLowStockUseCase(deps)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func dayAfter(n int) *time.Time {
	v := t0.AddDate(0, 0, n)
	return &v
}

// material da de alta un material en el maestro y devuelve su ID.
func (f *fixture) material(t *testing.T, id, code string, optimal *decimal.Decimal) string {
	t.Helper()
	err := f.store.Repos().Materials.Create(context.Background(), &entity.Material{
		ID:              id,
		Code:            code,
		Name:            "Material " + code,
		BaseUnit:        "kg",
		SalesUnit:       "kg",
		ConversionRate:  decimal.NewFromInt(1),
		OptimalQuantity: optimal,
		CreatedAt:       t0,
		UpdatedAt:       t0,
	})
	require.NoError(t, err, "alta del material %s", code)
	return id
}

func (f *fixture) receive(t *testing.T, materialID, storeID, qty, price string, exp *time.Time) *ledger.InboundResult {
	t.Helper()
	res, err := f.inbound.RegisterInbound(context.Background(), ledger.InboundInput{
		MaterialID:     materialID,
		StoreID:        storeID,
		Quantity:       dec(qty),
		UnitPrice:      dec(price),
		ExpirationDate: exp,
	})
	require.NoError(t, err, "recepción de %s", qty)
	return res
}

func (f *fixture) batch(t *testing.T, id string) *entity.Batch {
	t.Helper()
	b, err := f.store.Repos().Batches.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b, "el lote %s debe existir", id)
	return b
}

func (f *fixture) level(t *testing.T, materialID, storeID string) *entity.StockLevel {
	t.Helper()
	lv, err := f.store.Repos().Levels.Get(context.Background(), entity.OwnerKey{MaterialID: materialID, StoreID: storeID})
	require.NoError(t, err)
	return lv
}

// assertInSync verifica la invariante: cantidad del agregado == suma de saldos de sus lotes.
func (f *fixture) assertInSync(t *testing.T, materialID, storeID string) {
	t.Helper()
	report, err := f.queries.BatchStatus(context.Background(), materialID, storeID)
	require.NoError(t, err)
	assert.True(t, report.InSync,
		"agregado (%s) y lotes (%s) deben coincidir", report.StockQuantity, report.BatchRemaining)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, what string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: esperado %s, obtenido %s", what, want, got)
}

var errBoom = errors.New("fallo inyectado")
