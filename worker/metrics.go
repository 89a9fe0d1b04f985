// Copyright (c) 2025 BVK Chaitanya

package worker

import "github.com/prometheus/client_golang/prometheus"

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridbot_cycles_total",
			Help: "Worker cycles by role and outcome",
		},
		[]string{"role", "outcome"},
	)

	// OrdersTotal counts order instructions emitted by the strategies.
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridbot_orders_total",
			Help: "Order instructions emitted by side",
		},
		[]string{"side"},
	)
)

func init() {
	prometheus.MustRegister(cyclesTotal, OrdersTotal)
}
