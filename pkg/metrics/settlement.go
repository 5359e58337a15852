package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SettlementTotal counts settlement outcomes by payment type.
var SettlementTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "settlement",
	Name:      "orders_total",
	Help:      "Settled orders by payment type and outcome.",
}, []string{"payment_type", "outcome"})

// SettlementPartialFailureTotal counts best-effort pipeline steps that failed
// without failing the order. A rising counter means the repair routines have
// work to do.
var SettlementPartialFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "settlement",
	Name:      "partial_failures_total",
	Help:      "Best-effort settlement steps that failed without failing the order.",
}, []string{"step"})
