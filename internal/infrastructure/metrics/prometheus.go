// Package metrics colectores Prometheus del núcleo de inventario.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

var _ inventory.Metrics = (*Collector)(nil)

// Collector implementa inventory.Metrics.
type Collector struct {
	movements   *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	fulfillment *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	drift       prometheus.Gauge
}

// NewCollector crea los colectores y los registra en reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		movements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inventory",
				Name:      "movements_appended_total",
				Help:      "Movimientos insertados en el kardex por tipo",
			},
			[]string{"type"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inventory",
				Name:      "operations_rejected_total",
				Help:      "Operaciones rechazadas por operación y código de error",
			},
			[]string{"operation", "code"},
		),
		fulfillment: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inventory",
				Name:      "order_fulfillments_total",
				Help:      "Intentos de cumplimiento de órdenes por tipo y resultado",
			},
			[]string{"kind", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "inventory",
				Name:      "operation_duration_seconds",
				Help:      "Duración de las operaciones confirmadas",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		drift: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "inventory",
				Name:      "stock_drift_pairs",
				Help:      "Pares producto/bodega cuyo agregado difiere del kardex en la última reconciliación",
			},
		),
	}
	reg.MustRegister(c.movements, c.rejected, c.fulfillment, c.duration, c.drift)
	return c
}

func (c *Collector) MovementsAppended(movements []*entity.MovementRecord) {
	for _, m := range movements {
		c.movements.WithLabelValues(string(m.Type)).Inc()
	}
}

func (c *Collector) OperationRejected(operation, code string) {
	c.rejected.WithLabelValues(operation, code).Inc()
}

func (c *Collector) FulfillmentFinished(kind entity.OrderKind, result string) {
	c.fulfillment.WithLabelValues(string(kind), result).Inc()
}

func (c *Collector) ObserveDuration(operation string, d time.Duration) {
	c.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collector) StockDrift(pairs int) {
	c.drift.Set(float64(pairs))
}
