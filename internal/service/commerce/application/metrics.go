package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 核心链路的业务指标，经由 /metrics 暴露
var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_orders_created_total",
		Help: "Number of successfully created orders.",
	})

	ordersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_orders_failed_total",
		Help: "Number of order creation attempts that failed.",
	})

	stockLockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_stock_lock_timeouts_total",
		Help: "Stock adjustments aborted because the distributed lock was not acquired in time.",
	})

	stockVersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_stock_version_conflicts_total",
		Help: "Stock writes rejected by the optimistic version check.",
	})
)
