package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BasketMetrics holds all Prometheus metrics for the basket module
type BasketMetrics struct {
	// Saga metrics
	SagasStarted  *prometheus.CounterVec
	SagasFinished *prometheus.CounterVec
	SagasStalled  *prometheus.CounterVec

	// Scheduler metrics
	OperationsExecuted *prometheus.CounterVec
	OperationsDeferred *prometheus.CounterVec
	DrainSize          prometheus.Histogram
	ActionsAborted     *prometheus.CounterVec

	// Flow metrics
	DepositVolume    *prometheus.CounterVec
	RedemptionPayout *prometheus.CounterVec
}

var (
	basketMetricsOnce sync.Once
	basketMetrics     *BasketMetrics
)

// NewBasketMetrics creates and registers basket metrics (singleton pattern)
func NewBasketMetrics() *BasketMetrics {
	basketMetricsOnce.Do(func() {
		basketMetrics = &BasketMetrics{
			SagasStarted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "basket",
					Name:      "sagas_started_total",
					Help:      "Total number of sagas started",
				},
				[]string{"kind", "basket"},
			),
			SagasFinished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "basket",
					Name:      "sagas_finished_total",
					Help:      "Total number of sagas that reached a terminal stage",
				},
				[]string{"kind", "basket"},
			),
			SagasStalled: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "basket",
					Name:      "sagas_stalled_total",
					Help:      "Total number of sagas stopped by a deferred failure",
				},
				[]string{"kind", "basket"},
			),
			OperationsExecuted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "basket",
					Name:      "operations_executed_total",
					Help:      "Total number of executed operations",
				},
				[]string{"kind", "reply"},
			),
			OperationsDeferred: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "basket",
					Name:      "operations_deferred_total",
					Help:      "Total number of operations whose completion was deferred",
				},
				[]string{"kind"},
			),
			DrainSize: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "paw",
					Subsystem: "basket",
					Name:      "drain_operations",
					Help:      "Operations executed per top-level action",
					Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512},
				},
			),
			ActionsAborted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "basket",
					Name:      "actions_aborted_total",
					Help:      "Top-level actions rolled back",
				},
				[]string{"action"},
			),
			DepositVolume: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "basket",
					Name:      "deposit_volume_total",
					Help:      "Total deposited amount in base units",
				},
				[]string{"basket", "denom"},
			),
			RedemptionPayout: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "basket",
					Name:      "redemption_payout_total",
					Help:      "Total amount paid out by redemptions in base units",
				},
				[]string{"basket", "denom"},
			),
		}
	})
	return basketMetrics
}
