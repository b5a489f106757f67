package metrics

import "github.com/prometheus/client_golang/prometheus"

// /metrics で公開するアプリ指標。
var (
	OrdersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Orders placed, by payment method.",
	}, []string{"payment_method"})

	PaymentConfirmations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "payments",
		Name:      "confirmations_total",
		Help:      "Payment confirmation callbacks, by result.",
	}, []string{"result"})

	GatewayRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Requests to the payment gateway, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(OrdersPlaced, PaymentConfirmations, GatewayRequests)
}
