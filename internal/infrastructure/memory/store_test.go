package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

func TestRun_RevierteAlFallar(t *testing.T) {
	s := NewStore()
	SeedDemo(s)
	ctx := context.Background()
	boom := errors.New("falla")

	err := s.Run(ctx, func(repos inventory.TxRepos) error {
		require.NoError(t, repos.Movements.Create(ctx, &entity.MovementRecord{
			ID: "m1", ProductID: DemoProductA, WarehouseID: DemoWarehouseMain,
			Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(5),
		}))
		require.NoError(t, repos.Stock.Upsert(ctx, &entity.StockLevel{
			ProductID: DemoProductA, WarehouseID: DemoWarehouseMain, Quantity: decimal.NewFromInt(5),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	repos := s.Repos()
	movs, err := repos.Movements.List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movs)
	level, err := repos.Stock.Get(ctx, DemoProductA, DemoWarehouseMain)
	require.NoError(t, err)
	assert.True(t, level.Quantity.IsZero())

	// La secuencia tampoco avanza con el rollback.
	require.NoError(t, s.Run(ctx, func(repos inventory.TxRepos) error {
		m := &entity.MovementRecord{ID: "m2", ProductID: DemoProductA, WarehouseID: DemoWarehouseMain, Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(1)}
		if err := repos.Movements.Create(ctx, m); err != nil {
			return err
		}
		assert.Equal(t, int64(1), m.Seq)
		return nil
	}))
}

func TestRun_ContextoCancelado(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.Run(ctx, func(inventory.TxRepos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMovementRepo_RechazaCantidadNegativa(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	err := s.Repos().Movements.CreateMany(ctx, []*entity.MovementRecord{
		{ID: "a", Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(1)},
		{ID: "b", Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(-1)},
	})
	require.Error(t, err)
	movs, err := s.Repos().Movements.List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movs, "ninguna fila del lote se inserta")
}

func TestOrderRepo_ReservasYCAS(t *testing.T) {
	s := NewStore()
	SeedDemo(s)
	ctx := context.Background()
	orders := s.Repos().Orders

	sale := &entity.Order{ID: "o1", Kind: entity.OrderKindSales, Status: entity.OrderStatusOpen, WarehouseID: DemoWarehouseMain}
	purchase := &entity.Order{ID: "o2", Kind: entity.OrderKindPurchase, Status: entity.OrderStatusOpen, WarehouseID: DemoWarehouseMain}
	require.NoError(t, orders.Create(ctx, sale))
	require.NoError(t, orders.Create(ctx, purchase))
	require.NoError(t, orders.AddLine(ctx, &entity.OrderLine{ID: "l1", OrderID: "o1", ProductID: DemoProductA, Quantity: decimal.NewFromInt(4)}))
	require.NoError(t, orders.AddLine(ctx, &entity.OrderLine{ID: "l2", OrderID: "o2", ProductID: DemoProductA, Quantity: decimal.NewFromInt(9)}))

	reserved, err := orders.ReservedQuantity(ctx, DemoProductA, DemoWarehouseMain, "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4).Equal(reserved), "solo las ventas abiertas reservan")

	reserved, err = orders.ReservedQuantity(ctx, DemoProductA, DemoWarehouseMain, "o1")
	require.NoError(t, err)
	assert.True(t, reserved.IsZero())

	swapped, err := orders.CompareAndSetStatus(ctx, "o1", entity.OrderStatusOpen, entity.OrderStatusCompleted, sale.CreatedAt)
	require.NoError(t, err)
	assert.True(t, swapped)
	swapped, err = orders.CompareAndSetStatus(ctx, "o1", entity.OrderStatusOpen, entity.OrderStatusCompleted, sale.CreatedAt)
	require.NoError(t, err)
	assert.False(t, swapped)

	got, err := orders.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, got.Status)
	assert.NotNil(t, got.FulfilledAt)
	require.Len(t, got.Lines, 1)
}
