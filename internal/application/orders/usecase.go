// Package orders implementa el ciclo de vida de órdenes de compra y venta:
// líneas mientras la orden está abierta y cumplimiento atómico (movimientos + transición de estado).
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	appinv "github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/order"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/inventario-kardex/internal/application/orders")

// Resultados de cumplimiento para métricas.
const (
	ResultFulfilled = "fulfilled"
	ResultRejected  = "rejected"
	ResultConflict  = "conflict"
)

// OrderUseCase máquina de estados de órdenes. Toda mutación corre en una transacción que bloquea la orden.
type OrderUseCase struct {
	txRunner     appinv.TxRunner
	orderRepo    repository.OrderRepository
	ledger       *appinv.Ledger
	aggregator   appinv.StockAggregator
	availability appinv.AvailabilityChecker
	validator    appinv.BatchValidator
	publisher    appinv.EventPublisher
	metrics      appinv.Metrics
	log          *logger.Logger
	now          func() time.Time
}

// NewOrderUseCase construye el caso de uso. orderRepo se usa solo para lecturas fuera de transacción.
func NewOrderUseCase(
	txRunner appinv.TxRunner,
	orderRepo repository.OrderRepository,
	publisher appinv.EventPublisher,
	metrics appinv.Metrics,
	log *logger.Logger,
) *OrderUseCase {
	if publisher == nil {
		publisher = appinv.NopPublisher{}
	}
	if metrics == nil {
		metrics = appinv.NopMetrics{}
	}
	return &OrderUseCase{
		txRunner:  txRunner,
		orderRepo: orderRepo,
		ledger:    appinv.NewLedger(),
		publisher: publisher,
		metrics:   metrics,
		log:       log.Component("orders"),
		now:       time.Now,
	}
}

// CreateOrderInput datos de cabecera de una orden nueva.
type CreateOrderInput struct {
	UserID      string
	Kind        entity.OrderKind
	WarehouseID string
	Currency    string
	Notes       string
}

// AddLineInput línea a agregar en una orden abierta.
type AddLineInput struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
}

// FulfillResult orden en estado terminal y movimientos emitidos.
type FulfillResult struct {
	Order     *entity.Order
	Movements []*entity.MovementRecord
}

// CreateOrder crea la orden en estado OPEN con totales en cero.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (o *entity.Order, err error) {
	defer func() {
		if err != nil {
			uc.reject("create_order", in.WarehouseID, err)
		}
	}()
	if !in.Kind.Valid() {
		return nil, domain.NewValidationError("kind", "debe ser PURCHASE o SALES")
	}
	if in.WarehouseID == "" {
		return nil, domain.NewValidationError("warehouse_id", "obligatorio")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "COP"
	}
	if len(currency) != 3 {
		return nil, domain.NewValidationError("currency", "código ISO 4217 de 3 letras")
	}
	now := uc.now().UTC()
	o = &entity.Order{
		ID:          uuid.New().String(),
		Kind:        in.Kind,
		Status:      entity.OrderStatusOpen,
		WarehouseID: in.WarehouseID,
		Currency:    currency,
		Notes:       in.Notes,
		CreatedBy:   in.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	order.Recompute(o, nil)
	err = uc.txRunner.Run(ctx, func(repos appinv.TxRepos) error {
		wh, err := repos.Warehouses.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return fmt.Errorf("get warehouse: %w", err)
		}
		if wh == nil {
			return domain.NewValidationError("warehouse_id", "bodega desconocida")
		}
		return repos.Orders.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", o.ID).Str("kind", string(o.Kind)).Msg("orden creada")
	return o, nil
}

// AddLine agrega una línea a una orden abierta y recalcula los totales desde todas las líneas.
// En ventas, la reserva se admite bajo bloqueo de la fila de stock: chequeo e inserción son atómicos.
func (uc *OrderUseCase) AddLine(ctx context.Context, orderID string, in AddLineInput) (out *entity.Order, err error) {
	defer func() {
		if err != nil {
			uc.reject("add_line", orderID, err)
		}
	}()
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "obligatorio")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser positiva")
	}
	if !inventory.WithinScale(in.Quantity) {
		return nil, domain.NewValidationError("quantity", fmt.Sprintf("máximo %d decimales", inventory.QuantityScale))
	}
	if in.UnitPrice.IsNegative() || in.TaxRate.IsNegative() {
		return nil, domain.NewValidationError("unit_price", "precio e impuesto no pueden ser negativos")
	}
	err = uc.txRunner.Run(ctx, func(repos appinv.TxRepos) error {
		o, err := uc.lockOpen(ctx, repos, orderID)
		if err != nil {
			return err
		}
		p, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if p == nil {
			return domain.NewValidationError("product_id", "producto desconocido")
		}
		for _, l := range o.Lines {
			if l.ProductID == in.ProductID {
				return domain.NewValidationError("product_id", "el producto ya tiene una línea en la orden")
			}
		}
		if order.ReservesStock(o.Kind) {
			if err := uc.availability.Require(ctx, repos, in.ProductID, o.WarehouseID, in.Quantity, ""); err != nil {
				return err
			}
		}
		line := &entity.OrderLine{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			TaxRate:   in.TaxRate,
			CreatedAt: uc.now().UTC(),
		}
		order.PriceLine(line)
		if err := repos.Orders.AddLine(ctx, line); err != nil {
			return err
		}
		out, err = uc.recompute(ctx, repos, o, append(o.Lines, line))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveLine quita una línea de una orden abierta (libera su reserva) y recalcula totales.
func (uc *OrderUseCase) RemoveLine(ctx context.Context, orderID, lineID string) (*entity.Order, error) {
	var out *entity.Order
	err := uc.txRunner.Run(ctx, func(repos appinv.TxRepos) error {
		o, err := uc.lockOpen(ctx, repos, orderID)
		if err != nil {
			return err
		}
		ok, err := repos.Orders.DeleteLine(ctx, o.ID, lineID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		remaining := make([]*entity.OrderLine, 0, len(o.Lines))
		for _, l := range o.Lines {
			if l.ID != lineID {
				remaining = append(remaining, l)
			}
		}
		out, err = uc.recompute(ctx, repos, o, remaining)
		return err
	})
	if err != nil {
		uc.reject("remove_line", orderID, err)
		return nil, err
	}
	return out, nil
}

// Fulfill recibe (compra) o entrega (venta) la orden en una sola transacción:
// bloquea la orden, verifica OPEN, chequea disponibilidad por línea (ventas), emite un movimiento
// por línea, aplica el agregado y hace el CAS de estado. Si el CAS no afecta filas todo se revierte.
func (uc *OrderUseCase) Fulfill(ctx context.Context, orderID, userID string) (res *FulfillResult, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "orders.Fulfill", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { appinv.EndSpan(span, err) }()

	var (
		kind entity.OrderKind
		movs []*entity.MovementRecord
		out  *entity.Order
	)
	err = uc.txRunner.Run(ctx, func(repos appinv.TxRepos) error {
		o, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		kind = o.Kind
		if o.Status != entity.OrderStatusOpen {
			return &domain.ConcurrentModificationError{OrderID: o.ID, Status: string(o.Status)}
		}
		if len(o.Lines) == 0 {
			return domain.NewValidationError("lines", "la orden no tiene líneas")
		}
		target := order.FulfilledStatus(o.Kind)
		if !order.CanTransition(o.Kind, o.Status, target) {
			return domain.ErrOrderNotOpen
		}

		movType, reason, refKind := order.FulfillmentMovement(o.Kind)
		lines := make([]inventory.BatchLine, 0, len(o.Lines))
		for _, l := range o.Lines {
			lines = append(lines, inventory.BatchLine{ProductID: l.ProductID, WarehouseID: o.WarehouseID, Quantity: l.Quantity})
		}

		// Disponibilidad por línea (excluye la reserva de esta misma orden); todo o nada.
		if inventory.IsOutbound(movType) {
			requested := inventory.Aggregate(lines)
			for _, k := range inventory.SortedKeys(requested) {
				if err := uc.availability.Require(ctx, repos, k.ProductID, k.WarehouseID, requested[k], o.ID); err != nil {
					return err
				}
			}
		}
		if err := uc.validator.CheckShape(ctx, repos, movType, lines); err != nil {
			return err
		}

		now := uc.now().UTC()
		batch := make([]*entity.MovementRecord, 0, len(lines))
		keys := make([]entity.StockKey, 0, len(lines))
		for _, l := range lines {
			keys = append(keys, entity.StockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID})
			batch = append(batch, &entity.MovementRecord{
				TransactionID: o.ID,
				ProductID:     l.ProductID,
				WarehouseID:   l.WarehouseID,
				Type:          movType,
				Quantity:      l.Quantity,
				ReasonCode:    reason,
				ReferenceKind: refKind,
				ReferenceID:   o.ID,
				CreatedBy:     userID,
			})
		}
		if err := uc.aggregator.Lock(ctx, repos.Stock, keys); err != nil {
			return err
		}
		if err := uc.ledger.Append(ctx, repos, batch...); err != nil {
			return err
		}
		for _, m := range batch {
			if _, err := uc.aggregator.ApplyMovement(ctx, repos.Stock, m); err != nil {
				return err
			}
		}

		swapped, err := repos.Orders.CompareAndSetStatus(ctx, o.ID, entity.OrderStatusOpen, target, now)
		if err != nil {
			return err
		}
		if !swapped {
			return &domain.ConcurrentModificationError{OrderID: o.ID}
		}
		o.Status = target
		o.FulfilledAt = &now
		o.UpdatedAt = now
		movs, out = batch, o
		return nil
	})
	if err != nil {
		result := ResultRejected
		if domain.Code(err) == "ORDER_ALREADY_PROCESSED" {
			result = ResultConflict
		}
		uc.metrics.FulfillmentFinished(kind, result)
		uc.reject("fulfill", orderID, err)
		return nil, err
	}

	uc.metrics.FulfillmentFinished(kind, ResultFulfilled)
	uc.metrics.MovementsAppended(movs)
	uc.metrics.ObserveDuration("fulfill", time.Since(start))
	uc.log.Info().
		Str("order_id", out.ID).
		Str("kind", string(out.Kind)).
		Str("status", string(out.Status)).
		Int("movements", len(movs)).
		Msg("orden cumplida")
	if err := uc.publisher.PublishMovements(ctx, movs); err != nil {
		uc.log.Error().Err(err).Str("order_id", out.ID).Msg("publicar eventos de stock")
	}
	return &FulfillResult{Order: out, Movements: movs}, nil
}

// Cancel pasa la orden abierta a CANCELLED sin emitir movimientos; las reservas de venta se liberan.
func (uc *OrderUseCase) Cancel(ctx context.Context, orderID string) (*entity.Order, error) {
	var out *entity.Order
	err := uc.txRunner.Run(ctx, func(repos appinv.TxRepos) error {
		o, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if !order.CanTransition(o.Kind, o.Status, entity.OrderStatusCancelled) {
			return &domain.ConcurrentModificationError{OrderID: o.ID, Status: string(o.Status)}
		}
		now := uc.now().UTC()
		swapped, err := repos.Orders.CompareAndSetStatus(ctx, o.ID, entity.OrderStatusOpen, entity.OrderStatusCancelled, now)
		if err != nil {
			return err
		}
		if !swapped {
			return &domain.ConcurrentModificationError{OrderID: o.ID}
		}
		o.Status = entity.OrderStatusCancelled
		o.UpdatedAt = now
		out = o
		return nil
	})
	if err != nil {
		uc.reject("cancel", orderID, err)
		return nil, err
	}
	uc.log.Info().Str("order_id", out.ID).Msg("orden cancelada")
	return out, nil
}

// Get devuelve la orden con sus líneas.
func (uc *OrderUseCase) Get(ctx context.Context, orderID string) (*entity.Order, error) {
	o, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// List lista órdenes por tipo y/o estado.
func (uc *OrderUseCase) List(ctx context.Context, filter repository.OrderFilter) ([]*entity.Order, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return uc.orderRepo.List(ctx, filter)
}

// reject cuenta el rechazo por operación y código; los errores de infraestructura van a error.
func (uc *OrderUseCase) reject(op, ref string, err error) {
	code := domain.Code(err)
	uc.metrics.OperationRejected(op, code)
	ev := uc.log.Warn()
	if code == "INTERNAL" {
		ev = uc.log.Error()
	}
	ev.Err(err).Str("operation", op).Str("ref", ref).Str("code", code).Msg("operación de órdenes rechazada")
}

// lockOpen bloquea la orden y exige estado OPEN (solo entonces se editan líneas).
func (uc *OrderUseCase) lockOpen(ctx context.Context, repos appinv.TxRepos, orderID string) (*entity.Order, error) {
	o, err := repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if o.Status != entity.OrderStatusOpen {
		return nil, domain.ErrOrderNotOpen
	}
	return o, nil
}

func (uc *OrderUseCase) recompute(ctx context.Context, repos appinv.TxRepos, o *entity.Order, lines []*entity.OrderLine) (*entity.Order, error) {
	order.Recompute(o, lines)
	o.UpdatedAt = uc.now().UTC()
	if err := repos.Orders.UpdateTotals(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
