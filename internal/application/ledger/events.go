package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Tipos de evento publicados tras el Commit.
const (
	EventInboundRegistered  = "ledger.inbound.registered"
	EventOutboundConfirmed  = "ledger.outbound.confirmed"
	EventStockAdjusted      = "ledger.stock.adjusted"
	EventStockStatusChanged = "ledger.stock.status_changed"
)

// Event hecho del libro. Key particiona por material+dueño para mantener el orden por agregado.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	MaterialID string          `json:"material_id"`
	StoreID    string          `json:"store_id,omitempty"`
	RecordID   string          `json:"record_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	StockAfter decimal.Decimal `json:"stock_after"`
	Status     string          `json:"status,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Key llave de partición del evento.
func (e Event) Key() string {
	if e.StoreID == "" {
		return e.MaterialID
	}
	return e.MaterialID + ":" + e.StoreID
}

func newEvent(typ string, key entity.OwnerKey, recordID string, qty, after decimal.Decimal, at time.Time) Event {
	return Event{
		ID:         newID(),
		Type:       typ,
		MaterialID: key.MaterialID,
		StoreID:    key.StoreID,
		RecordID:   recordID,
		Quantity:   qty,
		StockAfter: after,
		OccurredAt: at,
	}
}

// statusEvent devuelve el evento de cambio de estado si el estado del agregado cambió.
func statusEvent(level *entity.StockLevel, before string, at time.Time) []Event {
	if level.Status == before {
		return nil
	}
	ev := newEvent(EventStockStatusChanged, level.Key, level.ID, decimal.Zero, level.Quantity, at)
	ev.Status = level.Status
	return []Event{ev}
}

// newID UUIDv7: ordenable por tiempo, así "id mayor" equivale a "creado después".
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NopPublisher descarta eventos (Kafka deshabilitado).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
