// Package events publica en Kafka los movimientos ya confirmados para consumidores externos
// (notificaciones de bajo stock, reportes).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

// EventTypeStockMovement tipo de evento en el header event_type.
const EventTypeStockMovement = "inventory.stock_movement.recorded"

var _ inventory.EventPublisher = (*Publisher)(nil)

// StockMovementEvent cuerpo JSON de cada mensaje.
type StockMovementEvent struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	MovementID    string          `json:"movement_id"`
	Seq           int64           `json:"seq"`
	TransactionID string          `json:"transaction_id"`
	ProductID     string          `json:"product_id"`
	WarehouseID   string          `json:"warehouse_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReasonCode    string          `json:"reason_code"`
	ReferenceKind string          `json:"reference_kind,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Publisher productor síncrono: un SendMessages por unidad de trabajo confirmada.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewProducerConfig configuración del productor: acks de todas las réplicas y reintentos.
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	return config
}

// NewKafkaPublisher conecta con los brokers.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("crear productor kafka: %w", err)
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("publicador kafka inicializado")
	return NewPublisher(producer, topic, log), nil
}

// NewPublisher envuelve un productor ya creado (en pruebas, sarama/mocks).
func NewPublisher(producer sarama.SyncProducer, topic string, log *logger.Logger) *Publisher {
	return &Publisher{producer: producer, topic: topic, log: log.Component("events")}
}

// PublishMovements envía un mensaje por movimiento con clave product_id:warehouse_id,
// de modo que los eventos de un mismo par caen en la misma partición y conservan el orden.
func (p *Publisher) PublishMovements(ctx context.Context, movements []*entity.MovementRecord) error {
	if len(movements) == 0 {
		return nil
	}
	ctx, span := otel.Tracer("github.com/jhoicas/inventario-kardex/internal/infrastructure/events").
		Start(ctx, "kafka.publish.stock_movements",
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", p.topic),
				attribute.Int("messaging.batch.message_count", len(movements)),
			),
		)
	defer span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	now := time.Now().UTC()
	msgs := make([]*sarama.ProducerMessage, 0, len(movements))
	for _, m := range movements {
		msg, err := p.message(m, now, carrier)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "marshal event")
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.producer.SendMessages(msgs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send messages")
		return fmt.Errorf("enviar eventos a kafka: %w", err)
	}
	p.log.Debug().
		Str("topic", p.topic).
		Str("transaction_id", movements[0].TransactionID).
		Int("events", len(msgs)).
		Msg("eventos de stock publicados")
	return nil
}

func (p *Publisher) message(m *entity.MovementRecord, now time.Time, carrier propagation.MapCarrier) (*sarama.ProducerMessage, error) {
	event := StockMovementEvent{
		EventID:       m.ID,
		EventType:     EventTypeStockMovement,
		MovementID:    m.ID,
		Seq:           m.Seq,
		TransactionID: m.TransactionID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		ReasonCode:    m.ReasonCode,
		ReferenceKind: m.ReferenceKind,
		ReferenceID:   m.ReferenceID,
		OccurredAt:    m.OccurredAt,
		Timestamp:     now,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(EventTypeStockMovement)},
		{Key: []byte("event_id"), Value: []byte(event.EventID)},
	}
	for key, value := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
	}
	return &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(PartitionKey(m.ProductID, m.WarehouseID)),
		Value:   sarama.ByteEncoder(body),
		Headers: headers,
	}, nil
}

// PartitionKey clave de partición de un par producto+bodega.
func PartitionKey(productID, warehouseID string) string {
	return productID + ":" + warehouseID
}

// Close cierra el productor.
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
