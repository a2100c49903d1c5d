// Package memory implementa los puertos del libro en memoria. Run serializa las transacciones
// con un mutex y restaura una copia del estado si fn falla, igual que un Rollback.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ ledger.TxRunner = (*Store)(nil)

type state struct {
	materials   map[string]entity.Material
	levels      map[string]entity.StockLevel
	levelByKey  map[entity.OwnerKey]string
	batches     map[string]entity.Batch
	inbounds    map[string]entity.InboundRecord
	outbounds   map[string]entity.OutboundRecord
	lines       []entity.AllocationLine
	adjustments map[string]entity.AdjustmentRecord
	prices      map[string]entity.PriceEntry
}

func newState() *state {
	return &state{
		materials:   map[string]entity.Material{},
		levels:      map[string]entity.StockLevel{},
		levelByKey:  map[entity.OwnerKey]string{},
		batches:     map[string]entity.Batch{},
		inbounds:    map[string]entity.InboundRecord{},
		outbounds:   map[string]entity.OutboundRecord{},
		adjustments: map[string]entity.AdjustmentRecord{},
		prices:      map[string]entity.PriceEntry{},
	}
}

// clone copia superficial: los punteros internos (decimales, fechas) nunca se mutan en sitio.
func (s *state) clone() *state {
	c := &state{
		materials:   make(map[string]entity.Material, len(s.materials)),
		levels:      make(map[string]entity.StockLevel, len(s.levels)),
		levelByKey:  make(map[entity.OwnerKey]string, len(s.levelByKey)),
		batches:     make(map[string]entity.Batch, len(s.batches)),
		inbounds:    make(map[string]entity.InboundRecord, len(s.inbounds)),
		outbounds:   make(map[string]entity.OutboundRecord, len(s.outbounds)),
		lines:       append([]entity.AllocationLine(nil), s.lines...),
		adjustments: make(map[string]entity.AdjustmentRecord, len(s.adjustments)),
		prices:      make(map[string]entity.PriceEntry, len(s.prices)),
	}
	for k, v := range s.materials {
		c.materials[k] = v
	}
	for k, v := range s.levels {
		c.levels[k] = v
	}
	for k, v := range s.levelByKey {
		c.levelByKey[k] = v
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.inbounds {
		c.inbounds[k] = v
	}
	for k, v := range s.outbounds {
		c.outbounds[k] = v
	}
	for k, v := range s.adjustments {
		c.adjustments[k] = v
	}
	for k, v := range s.prices {
		c.prices[k] = v
	}
	return c
}

// Store estado en memoria más runner transaccional.
type Store struct {
	mu     sync.Mutex
	data   *state
	faults map[string]*fault
}

// fault error programado para las próximas `left` llamadas de una operación.
type fault struct {
	err  error
	left int
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState(), faults: map[string]*fault{}}
}

// Repos repositorios fuera de transacción: cada llamada toma el mutex.
func (s *Store) Repos() ledger.Stores {
	return s.stores(false)
}

// Run ejecuta fn con acceso exclusivo. Si fn falla el estado vuelve a la copia previa.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, st ledger.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, s.stores(true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// InjectFault hace que la operación op (p. ej. "outbounds.CreateLine") devuelva err una vez.
func (s *Store) InjectFault(op string, err error) {
	s.InjectFaultN(op, err, 1)
}

// InjectFaultN igual que InjectFault pero para las próximas n llamadas de op.
func (s *Store) InjectFaultN(op string, err error, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		delete(s.faults, op)
		return
	}
	s.faults[op] = &fault{err: err, left: n}
}

func (s *Store) stores(inTx bool) ledger.Stores {
	b := base{store: s, inTx: inTx}
	return ledger.Stores{
		Materials:   &materialRepo{b},
		Levels:      &levelRepo{b},
		Batches:     &batchRepo{b},
		Inbounds:    &inboundRepo{b},
		Outbounds:   &outboundRepo{b},
		Adjustments: &adjustmentRepo{b},
		Prices:      &priceRepo{b},
	}
}

// base comparte el acceso al estado: dentro de Run el mutex ya está tomado.
type base struct {
	store *Store
	inTx  bool
}

func (b base) do(op string, fn func(d *state) error) error {
	if !b.inTx {
		b.store.mu.Lock()
		defer b.store.mu.Unlock()
	}
	if f, ok := b.store.faults[op]; ok {
		f.left--
		if f.left <= 0 {
			delete(b.store.faults, op)
		}
		return f.err
	}
	return fn(b.store.data)
}
