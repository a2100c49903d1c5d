// Package events publica los eventos del libro en Kafka con encabezados CloudEvents.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
)

var _ ledger.EventPublisher = (*KafkaPublisher)(nil)

// MessageWriter lo cumple *kafka.Writer; permite probar el publicador sin broker.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublishObserver recibe el resultado de cada evento (métricas).
type PublishObserver interface {
	ObservePublish(eventType string, err error)
}

// DefaultPublishTimeout tope de espera de un Publish si no se configura otro.
const DefaultPublishTimeout = 5 * time.Second

// KafkaPublisher escribe cada lote de eventos en un solo WriteMessages.
type KafkaPublisher struct {
	writer   MessageWriter
	source   string
	observer PublishObserver
	timeout  time.Duration
}

// NewKafkaWriter writer síncrono particionado por llave: los eventos de un mismo agregado quedan en orden.
// timeout acota cada escritura; con el broker caído se rinde tras MaxAttempts intentos.
func NewKafkaWriter(brokers []string, topic string, timeout time.Duration) *kafka.Writer {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: timeout,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
}

// NewKafkaPublisher construye el publicador con DefaultPublishTimeout. observer puede ser nil.
func NewKafkaPublisher(w MessageWriter, source string, observer PublishObserver) *KafkaPublisher {
	return &KafkaPublisher{writer: w, source: source, observer: observer, timeout: DefaultPublishTimeout}
}

// WithTimeout cambia el tope de espera de cada Publish; d <= 0 lo deja como estaba.
func (p *KafkaPublisher) WithTimeout(d time.Duration) *KafkaPublisher {
	if d > 0 {
		p.timeout = d
	}
	return p
}

// Publish serializa los eventos a JSON y los envía. Nunca espera más que el timeout del publicador.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...ledger.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msg, err := p.message(ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.writer.WriteMessages(ctx, msgs...)
	if p.observer != nil {
		for _, ev := range events {
			p.observer.ObservePublish(ev.Type, err)
		}
	}
	if err != nil {
		return fmt.Errorf("publicar %d eventos: %w", len(msgs), err)
	}
	return nil
}

// Close libera el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) message(ev ledger.Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serializar evento %s: %w", ev.ID, err)
	}
	return kafka.Message{
		Key:   []byte(ev.Key()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ce-specversion", Value: []byte("1.0")},
			{Key: "ce-type", Value: []byte(ev.Type)},
			{Key: "ce-source", Value: []byte(p.source)},
			{Key: "ce-id", Value: []byte(ev.ID)},
			{Key: "ce-time", Value: []byte(ev.OccurredAt.UTC().Format(time.RFC3339))},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: ev.OccurredAt,
	}, nil
}
