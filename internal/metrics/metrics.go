// Package metrics は業務イベントのPrometheusカウンタ。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// チェックアウトの結果別カウント（success / insufficient_stock / invalid / error）
	CheckoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "orders",
		Name:      "checkout_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})

	// 支払いの結果別カウント（succeeded / failed / replayed）
	PaymentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "payments",
		Name:      "payment_total",
		Help:      "Payment attempts by result.",
	}, []string{"result"})

	// 注文ステータス遷移のカウント
	OrderTransitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "orders",
		Name:      "transition_total",
		Help:      "Order status transitions applied.",
	}, []string{"to"})
)
