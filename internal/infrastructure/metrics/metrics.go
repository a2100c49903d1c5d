// Package metrics expone las métricas Prometheus del libro en un registro propio.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

var _ ledger.Recorder = (*Metrics)(nil)

// Metrics contadores e histogramas del servicio.
type Metrics struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	IntegrityErrors   *prometheus.CounterVec
	PriceFallbacks    *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
	HTTPRequestsTotal *prometheus.CounterVec
}

// New crea el registro con las métricas del runtime de Go y las del libro.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Operaciones del libro por resultado",
	}, []string{"operation", "result"})

	m.OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ledger_operation_duration_seconds",
		Help:      "Duración de las operaciones del libro",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	m.IntegrityErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_integrity_errors_total",
		Help:      "Divergencias entre lotes y agregado detectadas al confirmar",
	}, []string{"operation"})

	m.PriceFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_outbound_price_source_total",
		Help:      "Origen del precio unitario de los despachos",
	}, []string{"source"})

	m.EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_events_published_total",
		Help:      "Eventos del libro enviados a Kafka",
	}, []string{"event_type", "status"})

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Peticiones HTTP por ruta y estado",
	}, []string{"method", "path", "status"})

	registry.MustRegister(
		m.OperationsTotal, m.OperationDuration, m.IntegrityErrors,
		m.PriceFallbacks, m.EventsPublished, m.HTTPRequestsTotal,
	)
	return m
}

// Registry registro subyacente (tests y exportadores adicionales).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveOperation cuenta la operación por resultado y registra su duración.
func (m *Metrics) ObserveOperation(operation string, started time.Time, err error) {
	result := Result(err)
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if result == "integrity" {
		m.IntegrityErrors.WithLabelValues(operation).Inc()
	}
}

// PriceFallback cuenta el origen del precio de un despacho.
func (m *Metrics) PriceFallback(source string) {
	m.PriceFallbacks.WithLabelValues(source).Inc()
}

// ObservePublish cuenta un evento enviado o fallido.
func (m *Metrics) ObservePublish(eventType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, status).Inc()
}

// Middleware cuenta peticiones HTTP usando la ruta registrada (no la URL) para acotar la cardinalidad.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).Inc()
		return err
	}
}

// Result etiqueta de resultado para un error del libro.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsSystemError(err):
		return "integrity"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrPriceNotFound):
		return "not_found"
	default:
		return "error"
	}
}
