package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Deps dependencias compartidas por los casos de uso del libro.
// Repos va contra el pool (lecturas sin bloqueo); Tx abre transacciones de escritura.
type Deps struct {
	Tx      TxRunner
	Repos   Stores
	Events  EventPublisher
	Metrics Recorder
	Log     *logger.Logger
	Now     func() time.Time
}

// core lo embeben todos los casos de uso: reloj, logging y métricas en un solo lugar.
type core struct {
	tx      TxRunner
	repos   Stores
	events  EventPublisher
	metrics Recorder
	log     *logger.Logger
	now     func() time.Time
}

func newCore(d Deps) core {
	c := core{
		tx:      d.Tx,
		repos:   d.Repos,
		events:  d.Events,
		metrics: d.Metrics,
		log:     d.Log,
		now:     d.Now,
	}
	if c.events == nil {
		c.events = NopPublisher{}
	}
	if c.metrics == nil {
		c.metrics = NopRecorder{}
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// observe registra la métrica de la operación y loguea según la clase de error.
// Los errores de sistema (lotes y agregado divergieron) salen en nivel error con alert=true.
func (c *core) observe(op string, started time.Time, err error, fields func(e *zerolog.Event)) {
	c.metrics.ObserveOperation(op, started, err)

	var ev *zerolog.Event
	switch {
	case err == nil:
		ev = c.log.Info()
	case domain.IsSystemError(err):
		ev = c.log.Error().Bool("alert", true).Err(err)
	case errors.Is(err, domain.ErrTransient):
		ev = c.log.Warn().Err(err)
	case isCallerError(err):
		ev = c.log.Debug().Err(err)
	default:
		ev = c.log.Error().Err(err)
	}
	ev = ev.Str("operation", op).Dur("elapsed", time.Since(started))
	if fields != nil {
		fields(ev)
	}
	if err != nil {
		ev.Msg("operación del libro fallida")
		return
	}
	ev.Msg("operación del libro aplicada")
}

// publish envía los eventos ya confirmados. Un fallo del broker no deshace el Commit: solo se loguea.
func (c *core) publish(ctx context.Context, events []Event) {
	if len(events) == 0 {
		return
	}
	if err := c.events.Publish(ctx, events...); err != nil {
		c.log.Warn().Err(err).Int("events", len(events)).Msg("no se pudieron publicar eventos del libro")
	}
}

func isCallerError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrPriceNotFound)
}

// NopRecorder descarta métricas.
type NopRecorder struct{}

func (NopRecorder) ObserveOperation(string, time.Time, error) {}
func (NopRecorder) PriceFallback(string)                      {}
