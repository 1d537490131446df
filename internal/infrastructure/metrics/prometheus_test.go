package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

func TestCollector_CountsByLabel(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.MovementsAppended([]*entity.MovementRecord{
		{Type: entity.MovementTypeIN},
		{Type: entity.MovementTypeIN},
		{Type: entity.MovementTypeOUT},
	})
	c.OperationRejected("fulfill", "INSUFFICIENT_STOCK")
	c.FulfillmentFinished(entity.OrderKindSales, "conflict")
	c.ObserveDuration("transfer", 15*time.Millisecond)
	c.StockDrift(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.movements.WithLabelValues("IN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.movements.WithLabelValues("OUT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rejected.WithLabelValues("fulfill", "INSUFFICIENT_STOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fulfillment.WithLabelValues("SALES", "conflict")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.drift))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}
