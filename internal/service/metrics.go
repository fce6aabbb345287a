package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results.
const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	cartOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Cart operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	cartPersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "persist_failures_total",
			Help:      "Cart mutations applied in memory but not written to storage",
		},
	)

	cartMergeAdjustmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "merge_adjustments_total",
			Help:      "Merged lines whose quantity was clamped to the available stock",
		},
	)

	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result",
		},
		[]string{"result"},
	)
)
