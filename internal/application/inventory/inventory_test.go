package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-kardex/internal/domain/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
	"github.com/jhoicas/inventario-kardex/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

const (
	whMain   = memory.DemoWarehouseMain
	whSecond = memory.DemoWarehouseSecond
	prodA    = memory.DemoProductA
	prodB    = memory.DemoProductB
)

type fixture struct {
	store     *memory.Store
	movements *inventory.RegisterMovementUseCase
	stock     *inventory.StockQueryUseCase
	kardex    *inventory.KardexUseCase
	reconcile *inventory.ReconcileUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	memory.SeedDemo(store)
	repos := store.Repos()
	return &fixture{
		store:     store,
		movements: inventory.NewRegisterMovementUseCase(store, nil, nil, logger.Nop()),
		stock:     inventory.NewStockQueryUseCase(repos.Stock, repos.Orders, repos.Movements),
		kardex:    inventory.NewKardexUseCase(repos.Products, repos.Movements),
		reconcile: inventory.NewReconcileUseCase(store, nil, logger.Nop()),
	}
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) register(t *testing.T, product, warehouse string, typ entity.MovementType, q, reason string) *entity.MovementRecord {
	t.Helper()
	m, err := f.movements.RegisterMovement(context.Background(), inventory.MovementInputDTO{
		UserID: "u1", ProductID: product, WarehouseID: warehouse, Type: typ, Quantity: qty(q), ReasonCode: reason,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) onHand(t *testing.T, product, warehouse string) decimal.Decimal {
	t.Helper()
	a, err := f.stock.Availability(context.Background(), product, warehouse)
	require.NoError(t, err)
	return a.OnHand
}

func TestRegisterMovement_EntradaYSalida(t *testing.T) {
	f := newFixture(t)
	in := f.register(t, prodA, whMain, entity.MovementTypeIN, "100", entity.ReasonPurchaseReceipt)
	f.register(t, prodA, whMain, entity.MovementTypeOUT, "30", entity.ReasonDamage)

	assert.NotEmpty(t, in.ID)
	assert.NotEmpty(t, in.TransactionID)
	assert.Equal(t, int64(1), in.Seq)
	assert.False(t, in.OccurredAt.IsZero())
	assert.True(t, qty("70").Equal(f.onHand(t, prodA, whMain)))
}

func TestRegisterMovement_SalidaSinStock(t *testing.T) {
	f := newFixture(t)
	f.register(t, prodA, whMain, entity.MovementTypeIN, "5", entity.ReasonPurchaseReceipt)

	_, err := f.movements.RegisterMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: prodA, WarehouseID: whMain, Type: entity.MovementTypeOUT, Quantity: qty("6"), ReasonCode: entity.ReasonDamage,
	})
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, qty("5").Equal(stockErr.Available))
	assert.True(t, qty("6").Equal(stockErr.Requested))
	assert.Equal(t, "INSUFFICIENT_STOCK", domain.Code(err))

	movs, err := f.stock.Movements(context.Background(), repository.MovementFilter{ProductID: prodA})
	require.NoError(t, err)
	assert.Len(t, movs, 1, "la salida rechazada no deja movimiento")
	assert.True(t, qty("5").Equal(f.onHand(t, prodA, whMain)))
}

func TestRegisterMovement_AjusteAbsoluto(t *testing.T) {
	f := newFixture(t)
	f.register(t, prodA, whMain, entity.MovementTypeIN, "40", entity.ReasonPurchaseReceipt)
	f.register(t, prodA, whMain, entity.MovementTypeADJUSTMENT, "12", entity.ReasonPhysicalCount)
	assert.True(t, qty("12").Equal(f.onHand(t, prodA, whMain)), "el ajuste fija el saldo, no lo suma")

	f.register(t, prodA, whMain, entity.MovementTypeADJUSTMENT, "0", entity.ReasonPhysicalCount)
	assert.True(t, f.onHand(t, prodA, whMain).IsZero())
}

func TestRegisterMovement_Validaciones(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		input inventory.MovementInputDTO
	}{
		{"tipo inválido", inventory.MovementInputDTO{ProductID: prodA, WarehouseID: whMain, Type: "MOVE", Quantity: qty("1"), ReasonCode: entity.ReasonPurchaseReceipt}},
		{"cantidad cero", inventory.MovementInputDTO{ProductID: prodA, WarehouseID: whMain, Type: entity.MovementTypeIN, Quantity: qty("0"), ReasonCode: entity.ReasonPurchaseReceipt}},
		{"cantidad negativa", inventory.MovementInputDTO{ProductID: prodA, WarehouseID: whMain, Type: entity.MovementTypeIN, Quantity: qty("-3"), ReasonCode: entity.ReasonPurchaseReceipt}},
		{"más de 4 decimales", inventory.MovementInputDTO{ProductID: prodA, WarehouseID: whMain, Type: entity.MovementTypeIN, Quantity: qty("1.00001"), ReasonCode: entity.ReasonPurchaseReceipt}},
		{"ajuste con más de 4 decimales", inventory.MovementInputDTO{ProductID: prodA, WarehouseID: whMain, Type: entity.MovementTypeADJUSTMENT, Quantity: qty("2.12345"), ReasonCode: entity.ReasonPhysicalCount}},
		{"producto desconocido", inventory.MovementInputDTO{ProductID: "nope", WarehouseID: whMain, Type: entity.MovementTypeIN, Quantity: qty("1"), ReasonCode: entity.ReasonPurchaseReceipt}},
		{"bodega desconocida", inventory.MovementInputDTO{ProductID: prodA, WarehouseID: "nope", Type: entity.MovementTypeIN, Quantity: qty("1"), ReasonCode: entity.ReasonPurchaseReceipt}},
		{"sin motivo", inventory.MovementInputDTO{ProductID: prodA, WarehouseID: whMain, Type: entity.MovementTypeIN, Quantity: qty("1")}},
		{"motivo desconocido", inventory.MovementInputDTO{ProductID: prodA, WarehouseID: whMain, Type: entity.MovementTypeIN, Quantity: qty("1"), ReasonCode: "GIFT"}},
		{"motivo de otro tipo", inventory.MovementInputDTO{ProductID: prodA, WarehouseID: whMain, Type: entity.MovementTypeIN, Quantity: qty("1"), ReasonCode: entity.ReasonDamage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.movements.RegisterMovement(context.Background(), tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	levels, err := f.stock.Levels(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, levels)
}

// callLog registra el orden de las llamadas a los repositorios dentro de la transacción.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

func (l *callLog) count(call string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (l *callLog) index(call string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.calls {
		if c == call {
			return i
		}
	}
	return -1
}

type loggedStock struct {
	repository.StockRepository
	log *callLog
}

func (s loggedStock) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	s.log.add("stock.lock")
	return s.StockRepository.GetForUpdate(ctx, productID, warehouseID)
}

type loggedMovements struct {
	repository.MovementRepository
	log *callLog
}

func (m loggedMovements) Create(ctx context.Context, mov *entity.MovementRecord) error {
	m.log.add("movements.insert")
	return m.MovementRepository.Create(ctx, mov)
}

func (m loggedMovements) CreateMany(ctx context.Context, movs []*entity.MovementRecord) error {
	m.log.add("movements.insert")
	return m.MovementRepository.CreateMany(ctx, movs)
}

type loggedProducts struct {
	repository.ProductRepository
	log *callLog
}

func (p loggedProducts) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p.log.add("products.get")
	return p.ProductRepository.GetByID(ctx, id)
}

type loggedRunner struct {
	*memory.Store
	log *callLog
}

func (r loggedRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	return r.Store.Run(ctx, func(repos inventory.TxRepos) error {
		repos.Stock = loggedStock{StockRepository: repos.Stock, log: r.log}
		repos.Movements = loggedMovements{MovementRepository: repos.Movements, log: r.log}
		repos.Products = loggedProducts{ProductRepository: repos.Products, log: r.log}
		return fn(repos)
	})
}

// El seq del kardex se asigna al insertar; si la fila de stock se bloqueara después, dos
// transacciones podrían aplicar el agregado en otro orden que el de replay.
func TestRegisterMovement_BloqueaStockAntesDeInsertar(t *testing.T) {
	f := newFixture(t)
	log := &callLog{}
	uc := inventory.NewRegisterMovementUseCase(loggedRunner{Store: f.store, log: log}, nil, nil, logger.Nop())

	tests := []struct {
		typ    entity.MovementType
		q      string
		reason string
	}{
		{entity.MovementTypeIN, "10", entity.ReasonPurchaseReceipt},
		{entity.MovementTypeADJUSTMENT, "42", entity.ReasonPhysicalCount},
		{entity.MovementTypeOUT, "2", entity.ReasonDamage},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			log.reset()
			_, err := uc.RegisterMovement(context.Background(), inventory.MovementInputDTO{
				UserID: "u1", ProductID: prodA, WarehouseID: whMain, Type: tt.typ, Quantity: qty(tt.q), ReasonCode: tt.reason,
			})
			require.NoError(t, err)
			lock, insert := log.index("stock.lock"), log.index("movements.insert")
			require.NotEqual(t, -1, lock)
			require.NotEqual(t, -1, insert)
			assert.Less(t, lock, insert, "calls=%v", log.calls)
			assert.Equal(t, 1, log.count("products.get"), "las referencias se validan una sola vez")
		})
	}
	assert.True(t, qty("40").Equal(f.onHand(t, prodA, whMain)))

	drift, err := f.reconcile.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestRegisterBatch_TodoONada(t *testing.T) {
	f := newFixture(t)
	f.register(t, prodA, whMain, entity.MovementTypeIN, "10", entity.ReasonPurchaseReceipt)
	f.register(t, prodB, whMain, entity.MovementTypeIN, "2", entity.ReasonPurchaseReceipt)

	_, err := f.movements.RegisterBatch(context.Background(), inventory.BatchInputDTO{
		UserID: "u1", Type: entity.MovementTypeOUT, ReasonCode: entity.ReasonInternalUse,
		Lines: []domaininv.BatchLine{
			{ProductID: prodA, WarehouseID: whMain, Quantity: qty("4")},
			{ProductID: prodB, WarehouseID: whMain, Quantity: qty("3")},
		},
	})
	var batchErr *domain.BatchValidationError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Failures, 1)
	assert.Equal(t, 1, batchErr.Failures[0].Line)
	assert.Equal(t, domain.FailureInsufficientStock, batchErr.Failures[0].Code)

	assert.True(t, qty("10").Equal(f.onHand(t, prodA, whMain)), "ninguna línea se aplica")
	assert.True(t, qty("2").Equal(f.onHand(t, prodB, whMain)))

	movs, err := f.movements.RegisterBatch(context.Background(), inventory.BatchInputDTO{
		UserID: "u1", Type: entity.MovementTypeOUT, ReasonCode: entity.ReasonInternalUse,
		Lines: []domaininv.BatchLine{
			{ProductID: prodA, WarehouseID: whMain, Quantity: qty("4")},
			{ProductID: prodB, WarehouseID: whMain, Quantity: qty("2")},
		},
	})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, movs[0].TransactionID, movs[1].TransactionID)
	assert.Less(t, movs[0].Seq, movs[1].Seq)
	assert.True(t, qty("6").Equal(f.onHand(t, prodA, whMain)))
	assert.True(t, f.onHand(t, prodB, whMain).IsZero())
}

func TestRegisterBatch_LineasInvalidas(t *testing.T) {
	f := newFixture(t)
	_, err := f.movements.RegisterBatch(context.Background(), inventory.BatchInputDTO{
		Type: entity.MovementTypeIN, ReasonCode: entity.ReasonPurchaseReceipt,
		Lines: []domaininv.BatchLine{
			{ProductID: prodA, WarehouseID: whMain, Quantity: qty("1")},
			{ProductID: "missing", WarehouseID: whMain, Quantity: qty("1")},
		},
	})
	var batchErr *domain.BatchValidationError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Failures, 1)
	assert.Equal(t, domain.FailureUnknownProduct, batchErr.Failures[0].Code)

	_, err = f.movements.RegisterBatch(context.Background(), inventory.BatchInputDTO{
		Type: entity.MovementTypeIN, ReasonCode: entity.ReasonPurchaseReceipt,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "lote vacío")
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	f.register(t, prodA, whMain, entity.MovementTypeIN, "20", entity.ReasonPurchaseReceipt)

	movs, err := f.movements.Transfer(context.Background(), inventory.TransferInputDTO{
		UserID: "u1", ProductID: prodA, FromWarehouseID: whMain, ToWarehouseID: whSecond, Quantity: qty("8"),
	})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeOUT, movs[0].Type)
	assert.Equal(t, entity.ReasonTransferOut, movs[0].ReasonCode)
	assert.Equal(t, entity.MovementTypeIN, movs[1].Type)
	assert.Equal(t, entity.ReasonTransferIn, movs[1].ReasonCode)
	assert.Equal(t, movs[0].TransactionID, movs[1].TransactionID)
	assert.True(t, qty("12").Equal(f.onHand(t, prodA, whMain)))
	assert.True(t, qty("8").Equal(f.onHand(t, prodA, whSecond)))

	_, err = f.movements.Transfer(context.Background(), inventory.TransferInputDTO{
		ProductID: prodA, FromWarehouseID: whMain, ToWarehouseID: whSecond, Quantity: qty("13"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, qty("8").Equal(f.onHand(t, prodA, whSecond)), "traslado fallido no deja la entrada")

	_, err = f.movements.Transfer(context.Background(), inventory.TransferInputDTO{
		ProductID: prodA, FromWarehouseID: whMain, ToWarehouseID: whMain, Quantity: qty("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegisterMovement_SalidasConcurrentes(t *testing.T) {
	f := newFixture(t)
	f.register(t, prodA, whMain, entity.MovementTypeIN, "10", entity.ReasonPurchaseReceipt)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.movements.RegisterMovement(context.Background(), inventory.MovementInputDTO{
				ProductID: prodA, WarehouseID: whMain, Type: entity.MovementTypeOUT, Quantity: qty("1"), ReasonCode: entity.ReasonDamage,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, fail)
	assert.True(t, f.onHand(t, prodA, whMain).IsZero(), "el stock nunca queda negativo")
}

func TestKardex_ReconstruyeSaldo(t *testing.T) {
	f := newFixture(t)
	f.register(t, prodA, whMain, entity.MovementTypeIN, "100", entity.ReasonPurchaseReceipt)
	f.register(t, prodA, whSecond, entity.MovementTypeIN, "5", entity.ReasonPurchaseReceipt)
	f.register(t, prodA, whMain, entity.MovementTypeOUT, "30", entity.ReasonDamage)
	f.register(t, prodA, whMain, entity.MovementTypeADJUSTMENT, "50", entity.ReasonPhysicalCount)
	f.register(t, prodB, whMain, entity.MovementTypeIN, "9", entity.ReasonPurchaseReceipt)

	entries, err := f.kardex.Collect(context.Background(), prodA, whMain)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, qty("100").Equal(entries[0].Balance))
	assert.True(t, qty("70").Equal(entries[1].Balance))
	assert.True(t, qty("50").Equal(entries[2].Balance))
	assert.True(t, f.onHand(t, prodA, whMain).Equal(entries[2].Balance), "el último saldo coincide con el agregado")

	all, err := f.kardex.Collect(context.Background(), prodA, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, qty("55").Equal(all[3].ProductBalance))

	seq, err := f.kardex.Reconstruct(context.Background(), prodA, "")
	require.NoError(t, err)
	n := 0
	for _, err := range seq {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)

	_, err = f.kardex.Reconstruct(context.Background(), "unknown", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKardex_ProductoSinMovimientos(t *testing.T) {
	f := newFixture(t)
	entries, err := f.kardex.Collect(context.Background(), prodB, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	f.register(t, prodA, whMain, entity.MovementTypeIN, "10", entity.ReasonPurchaseReceipt)
	f.register(t, prodB, whSecond, entity.MovementTypeIN, "4", entity.ReasonPurchaseReceipt)

	drift, err := f.reconcile.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drift)

	f.store.OverwriteStock(entity.StockLevel{ProductID: prodA, WarehouseID: whMain, Quantity: qty("11")})

	drift, err = f.reconcile.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, prodA, drift[0].ProductID)
	assert.True(t, qty("11").Equal(drift[0].Recorded))
	assert.True(t, qty("10").Equal(drift[0].Replayed))
}

func TestLowStock(t *testing.T) {
	f := newFixture(t)
	f.register(t, prodA, whMain, entity.MovementTypeIN, "10", entity.ReasonPurchaseReceipt)
	f.register(t, prodB, whMain, entity.MovementTypeIN, "50", entity.ReasonPurchaseReceipt)

	items, err := f.stock.LowStock(context.Background(), whMain)
	require.NoError(t, err)
	require.Len(t, items, 1, "10 está en el mínimo de A; B está sobre su mínimo")
	assert.Equal(t, prodA, items[0].ProductID)
	assert.Equal(t, "SKU-001", items[0].SKU)
}
