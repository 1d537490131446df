package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

// ReconcileUseCase recorre el kardex completo y compara el saldo reconstruido contra el agregado de stock.
// Solo reporta la deriva; no corrige (una corrección es un ADJUSTMENT explícito).
type ReconcileUseCase struct {
	txRunner TxRunner
	metrics  Metrics
	log      *logger.Logger
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(txRunner TxRunner, metrics Metrics, log *logger.Logger) *ReconcileUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &ReconcileUseCase{txRunner: txRunner, metrics: metrics, log: log.Component("reconcile")}
}

// Run devuelve los pares cuyo stock registrado difiere del saldo reconstruido.
func (uc *ReconcileUseCase) Run(ctx context.Context) ([]entity.StockDrift, error) {
	start := time.Now()
	var drifts []entity.StockDrift
	err := uc.txRunner.RunReadOnly(ctx, func(repos TxRepos) error {
		replayed := make(map[entity.StockKey]decimal.Decimal)
		err := repos.Movements.Stream(ctx, repository.MovementFilter{}, func(m *entity.MovementRecord) error {
			k := entity.StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
			replayed[k] = inventory.Apply(replayed[k], m.Type, m.Quantity)
			return nil
		})
		if err != nil {
			return err
		}
		levels, err := repos.Stock.List(ctx, "", "")
		if err != nil {
			return err
		}
		for _, l := range levels {
			k := l.Key()
			r := replayed[k]
			delete(replayed, k)
			if !r.Equal(l.Quantity) {
				drifts = append(drifts, entity.StockDrift{ProductID: k.ProductID, WarehouseID: k.WarehouseID, Recorded: l.Quantity, Replayed: r})
			}
		}
		// Pares con movimientos pero sin fila de stock.
		for _, k := range inventory.SortedKeys(replayed) {
			drifts = append(drifts, entity.StockDrift{ProductID: k.ProductID, WarehouseID: k.WarehouseID, Recorded: decimal.Zero, Replayed: replayed[k]})
		}
		return nil
	})
	if err != nil {
		uc.log.Error().Err(err).Msg("reconciliación fallida")
		return nil, err
	}
	uc.metrics.StockDrift(len(drifts))
	uc.metrics.ObserveDuration("reconcile", time.Since(start))
	for _, d := range drifts {
		uc.log.Warn().
			Str("product_id", d.ProductID).
			Str("warehouse_id", d.WarehouseID).
			Str("recorded", d.Recorded.String()).
			Str("replayed", d.Replayed.String()).
			Msg("deriva entre stock y kardex")
	}
	uc.log.Info().Int("drift_pairs", len(drifts)).Dur("elapsed", time.Since(start)).Msg("reconciliación terminada")
	return drifts, nil
}
