package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción de BD.
type TxRepos struct {
	Movements  repository.MovementRepository
	Stock      repository.StockRepository
	Orders     repository.OrderRepository
	Products   repository.ProductRepository
	Warehouses repository.WarehouseRepository
	Reasons    repository.ReasonRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil, Rollback en cualquier otro caso. Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
	// RunReadOnly ejecuta fn sobre una instantánea consistente de solo lectura.
	RunReadOnly(ctx context.Context, fn func(repos TxRepos) error) error
}

// EventPublisher publica los movimientos ya confirmados para consumidores externos
// (notificaciones de bajo stock, reportes). Nunca participa de la transacción.
type EventPublisher interface {
	PublishMovements(ctx context.Context, movements []*entity.MovementRecord) error
}

// Metrics registra contadores del núcleo de inventario.
type Metrics interface {
	MovementsAppended(movements []*entity.MovementRecord)
	OperationRejected(operation, code string)
	FulfillmentFinished(kind entity.OrderKind, result string)
	ObserveDuration(operation string, d time.Duration)
	StockDrift(pairs int)
}

// NopPublisher descarta los eventos (Kafka deshabilitado).
type NopPublisher struct{}

func (NopPublisher) PublishMovements(context.Context, []*entity.MovementRecord) error { return nil }

// NopMetrics descarta las métricas.
type NopMetrics struct{}

func (NopMetrics) MovementsAppended([]*entity.MovementRecord) {}
func (NopMetrics) OperationRejected(string, string) {}
func (NopMetrics) FulfillmentFinished(entity.OrderKind, string) {}
func (NopMetrics) ObserveDuration(string, time.Duration) {}
func (NopMetrics) StockDrift(int) {}
