package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/application/orders"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

const (
	wh    = memory.DemoWarehouseMain
	prodA = memory.DemoProductA
	prodB = memory.DemoProductB
)

// recordingPublisher guarda los lotes publicados tras el commit.
type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]*entity.MovementRecord
}

func (p *recordingPublisher) PublishMovements(_ context.Context, movs []*entity.MovementRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, movs)
	return nil
}

type fixture struct {
	store     *memory.Store
	orders    *orders.OrderUseCase
	movements *inventory.RegisterMovementUseCase
	stock     *inventory.StockQueryUseCase
	published *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	memory.SeedDemo(store)
	repos := store.Repos()
	pub := &recordingPublisher{}
	return &fixture{
		store:     store,
		orders:    orders.NewOrderUseCase(store, repos.Orders, pub, nil, logger.Nop()),
		movements: inventory.NewRegisterMovementUseCase(store, nil, nil, logger.Nop()),
		stock:     inventory.NewStockQueryUseCase(repos.Stock, repos.Orders, repos.Movements),
		published: pub,
	}
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) receive(t *testing.T, product, q string) {
	t.Helper()
	_, err := f.movements.RegisterMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: product, WarehouseID: wh, Type: entity.MovementTypeIN, Quantity: qty(q), ReasonCode: entity.ReasonOpeningBalance,
	})
	require.NoError(t, err)
}

func (f *fixture) newOrder(t *testing.T, kind entity.OrderKind) *entity.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), orders.CreateOrderInput{UserID: "u1", Kind: kind, WarehouseID: wh})
	require.NoError(t, err)
	return o
}

func (f *fixture) addLine(t *testing.T, orderID, product, q string) *entity.Order {
	t.Helper()
	o, err := f.orders.AddLine(context.Background(), orderID, orders.AddLineInput{
		ProductID: product, Quantity: qty(q), UnitPrice: qty("1000"), TaxRate: qty("0.19"),
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) availability(t *testing.T, product string) entity.Availability {
	t.Helper()
	a, err := f.stock.Availability(context.Background(), product, wh)
	require.NoError(t, err)
	return a
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	o := f.newOrder(t, entity.OrderKindPurchase)
	assert.Equal(t, entity.OrderStatusOpen, o.Status)
	assert.Equal(t, "COP", o.Currency)
	assert.True(t, o.Total.IsZero())

	_, err := f.orders.CreateOrder(context.Background(), orders.CreateOrderInput{Kind: "RENTAL", WarehouseID: wh})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.orders.CreateOrder(context.Background(), orders.CreateOrderInput{Kind: entity.OrderKindSales, WarehouseID: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.orders.CreateOrder(context.Background(), orders.CreateOrderInput{Kind: entity.OrderKindSales, WarehouseID: wh, Currency: "PESOS"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddLine_RecalculaTotales(t *testing.T) {
	f := newFixture(t)
	o := f.newOrder(t, entity.OrderKindPurchase)
	f.addLine(t, o.ID, prodA, "2")
	o = f.addLine(t, o.ID, prodB, "1")

	require.Len(t, o.Lines, 2)
	assert.True(t, qty("3000").Equal(o.Subtotal))
	assert.True(t, qty("570").Equal(o.TaxTotal))
	assert.True(t, qty("3570").Equal(o.Total))

	o, err := f.orders.RemoveLine(context.Background(), o.ID, o.Lines[0].ID)
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.True(t, qty("1190").Equal(o.Total))

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, qty("1190").Equal(stored.Total))

	_, err = f.orders.RemoveLine(context.Background(), o.ID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.orders.AddLine(context.Background(), o.ID, orders.AddLineInput{ProductID: prodB, Quantity: qty("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "una línea por producto")
}

func TestFulfill_CompraRecibida(t *testing.T) {
	f := newFixture(t)
	o := f.newOrder(t, entity.OrderKindPurchase)
	f.addLine(t, o.ID, prodA, "25")
	f.addLine(t, o.ID, prodB, "4")

	res, err := f.orders.Fulfill(context.Background(), o.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusReceived, res.Order.Status)
	require.NotNil(t, res.Order.FulfilledAt)
	require.Len(t, res.Movements, 2)
	for _, m := range res.Movements {
		assert.Equal(t, entity.MovementTypeIN, m.Type)
		assert.Equal(t, entity.ReasonPurchaseReceipt, m.ReasonCode)
		assert.Equal(t, entity.ReferencePurchaseOrder, m.ReferenceKind)
		assert.Equal(t, o.ID, m.ReferenceID)
	}
	assert.True(t, qty("25").Equal(f.availability(t, prodA).OnHand))
	assert.True(t, qty("4").Equal(f.availability(t, prodB).OnHand))
	require.Len(t, f.published.batches, 1)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusReceived, stored.Status)
}

func TestFulfill_VentaSobreReservaPropia(t *testing.T) {
	f := newFixture(t)
	f.receive(t, prodA, "10")

	o := f.newOrder(t, entity.OrderKindSales)
	f.addLine(t, o.ID, prodA, "10")

	a := f.availability(t, prodA)
	assert.True(t, qty("10").Equal(a.Reserved))
	assert.True(t, a.Available.IsZero())

	res, err := f.orders.Fulfill(context.Background(), o.ID, "u1")
	require.NoError(t, err, "la reserva de la propia orden no cuenta contra su entrega")
	assert.Equal(t, entity.OrderStatusCompleted, res.Order.Status)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, entity.MovementTypeOUT, res.Movements[0].Type)
	assert.Equal(t, entity.ReasonSalesDelivery, res.Movements[0].ReasonCode)

	a = f.availability(t, prodA)
	assert.True(t, a.OnHand.IsZero())
	assert.True(t, a.Reserved.IsZero(), "una orden completada ya no reserva")
}

func TestAddLine_VentaNoSobrevende(t *testing.T) {
	f := newFixture(t)
	f.receive(t, prodA, "10")

	first := f.newOrder(t, entity.OrderKindSales)
	f.addLine(t, first.ID, prodA, "7")

	second := f.newOrder(t, entity.OrderKindSales)
	_, err := f.orders.AddLine(context.Background(), second.ID, orders.AddLineInput{ProductID: prodA, Quantity: qty("4"), UnitPrice: qty("1")})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, qty("3").Equal(stockErr.Available))

	f.addLine(t, second.ID, prodA, "3")

	_, err = f.movements.RegisterMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: prodA, WarehouseID: wh, Type: entity.MovementTypeOUT, Quantity: qty("1"), ReasonCode: entity.ReasonDamage,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "el stock reservado no sale por otra vía")
}

func TestFulfill_VentaSinStockNoEmiteNada(t *testing.T) {
	f := newFixture(t)
	f.receive(t, prodA, "5")
	f.receive(t, prodB, "5")

	o := f.newOrder(t, entity.OrderKindSales)
	f.addLine(t, o.ID, prodA, "5")
	f.addLine(t, o.ID, prodB, "5")

	_, err := f.movements.RegisterMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: prodB, WarehouseID: wh, Type: entity.MovementTypeADJUSTMENT, Quantity: qty("2"), ReasonCode: entity.ReasonPhysicalCount,
	})
	require.NoError(t, err)

	_, err = f.orders.Fulfill(context.Background(), o.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusOpen, stored.Status)
	assert.True(t, qty("5").Equal(f.availability(t, prodA).OnHand), "ninguna línea se entrega")

	movs, err := f.stock.Movements(context.Background(), repository.MovementFilter{ProductID: prodA})
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestFulfill_DobleCumplimiento(t *testing.T) {
	f := newFixture(t)
	o := f.newOrder(t, entity.OrderKindPurchase)
	f.addLine(t, o.ID, prodA, "3")

	_, err := f.orders.Fulfill(context.Background(), o.ID, "u1")
	require.NoError(t, err)

	_, err = f.orders.Fulfill(context.Background(), o.ID, "u1")
	var conflict *domain.ConcurrentModificationError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "ORDER_ALREADY_PROCESSED", domain.Code(err))
	assert.True(t, qty("3").Equal(f.availability(t, prodA).OnHand), "el segundo intento no suma stock")
}

func TestFulfill_Concurrente(t *testing.T) {
	f := newFixture(t)
	o := f.newOrder(t, entity.OrderKindPurchase)
	f.addLine(t, o.ID, prodA, "6")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.Fulfill(context.Background(), o.ID, "u1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if domain.Code(err) == "ORDER_ALREADY_PROCESSED" {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	assert.True(t, qty("6").Equal(f.availability(t, prodA).OnHand))

	movs, err := f.stock.Movements(context.Background(), repository.MovementFilter{ProductID: prodA})
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestFulfill_SinLineas(t *testing.T) {
	f := newFixture(t)
	o := f.newOrder(t, entity.OrderKindPurchase)
	_, err := f.orders.Fulfill(context.Background(), o.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orders.Fulfill(context.Background(), "no-existe", "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	f.receive(t, prodA, "4")
	o := f.newOrder(t, entity.OrderKindSales)
	f.addLine(t, o.ID, prodA, "4")
	assert.True(t, f.availability(t, prodA).Available.IsZero())

	cancelled, err := f.orders.Cancel(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
	assert.True(t, qty("4").Equal(f.availability(t, prodA).Available), "cancelar libera la reserva")

	_, err = f.orders.Cancel(context.Background(), o.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.orders.Fulfill(context.Background(), o.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.orders.AddLine(context.Background(), o.ID, orders.AddLineInput{ProductID: prodB, Quantity: qty("1")})
	assert.ErrorIs(t, err, domain.ErrOrderNotOpen)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.newOrder(t, entity.OrderKindPurchase)
	f.newOrder(t, entity.OrderKindSales)
	f.newOrder(t, entity.OrderKindSales)

	all, err := f.orders.List(context.Background(), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sales, err := f.orders.List(context.Background(), repository.OrderFilter{Kind: entity.OrderKindSales})
	require.NoError(t, err)
	assert.Len(t, sales, 2)
}

// casPerdidoRunner simula que otra transacción cerró la orden entre el bloqueo y el CAS de estado.
type casPerdidoRunner struct {
	*memory.Store
}

type casPerdidoOrders struct {
	repository.OrderRepository
}

func (casPerdidoOrders) CompareAndSetStatus(context.Context, string, entity.OrderStatus, entity.OrderStatus, time.Time) (bool, error) {
	return false, nil
}

func (r casPerdidoRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	return r.Store.Run(ctx, func(repos inventory.TxRepos) error {
		repos.Orders = casPerdidoOrders{OrderRepository: repos.Orders}
		return fn(repos)
	})
}

func TestFulfill_CASPerdidoRevierteTodo(t *testing.T) {
	f := newFixture(t)
	o := f.newOrder(t, entity.OrderKindPurchase)
	f.addLine(t, o.ID, prodA, "3")

	pub := &recordingPublisher{}
	uc := orders.NewOrderUseCase(casPerdidoRunner{Store: f.store}, f.store.Repos().Orders, pub, nil, logger.Nop())
	res, err := uc.Fulfill(context.Background(), o.ID, "u1")
	require.Error(t, err)
	assert.Nil(t, res)

	var casErr *domain.ConcurrentModificationError
	require.True(t, errors.As(err, &casErr))
	assert.Equal(t, o.ID, casErr.OrderID)
	assert.Equal(t, "ORDER_ALREADY_PROCESSED", domain.Code(err))

	movs, err := f.stock.Movements(context.Background(), repository.MovementFilter{Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, movs, "los movimientos emitidos antes del CAS se revierten")
	assert.True(t, f.availability(t, prodA).OnHand.IsZero())
	assert.Empty(t, pub.batches)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusOpen, stored.Status)
}

// recordingMetrics guarda las operaciones rechazadas como "op:code".
type recordingMetrics struct {
	inventory.NopMetrics
	mu       sync.Mutex
	rejected []string
}

func (m *recordingMetrics) OperationRejected(op, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, op+":"+code)
}

func TestRechazosCuentanMetricas(t *testing.T) {
	f := newFixture(t)
	metrics := &recordingMetrics{}
	uc := orders.NewOrderUseCase(f.store, f.store.Repos().Orders, nil, metrics, logger.Nop())
	ctx := context.Background()

	_, err := uc.CreateOrder(ctx, orders.CreateOrderInput{Kind: "RENTAL", WarehouseID: wh})
	require.Error(t, err)

	o := f.newOrder(t, entity.OrderKindPurchase)
	_, err = uc.AddLine(ctx, o.ID, orders.AddLineInput{ProductID: prodA, Quantity: qty("1.00001")})
	require.Error(t, err)
	_, err = uc.RemoveLine(ctx, o.ID, "no-existe")
	require.Error(t, err)
	_, err = uc.Cancel(ctx, o.ID)
	require.NoError(t, err)
	_, err = uc.Cancel(ctx, o.ID)
	require.Error(t, err)
	_, err = uc.Fulfill(ctx, o.ID, "u1")
	require.Error(t, err)

	assert.Equal(t, []string{
		"create_order:VALIDATION",
		"add_line:VALIDATION",
		"remove_line:NOT_FOUND",
		"cancel:ORDER_ALREADY_PROCESSED",
		"fulfill:ORDER_ALREADY_PROCESSED",
	}, metrics.rejected)
}
