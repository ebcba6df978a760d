package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	paymentOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_operations_total",
			Help: "Total number of payment operations by outcome",
		},
		[]string{"operation", "result"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bluesnap_request_duration_seconds",
			Help:    "Duration of BlueSnap API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ipnNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipn_notifications_total",
			Help: "Total number of IPN notifications by transaction type and outcome",
		},
		[]string{"transaction_type", "result"},
	)
)

// ObservePaymentOperation records the outcome of a payment operation
func ObservePaymentOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	paymentOperationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveGatewayRequest records the duration of a BlueSnap API call
func ObserveGatewayRequest(endpoint string, duration time.Duration) {
	gatewayRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveIPN records the outcome of an inbound notification
func ObserveIPN(transactionType string, err error) {
	result := "processed"
	if err != nil {
		result = "rejected"
	}
	ipnNotificationsTotal.WithLabelValues(transactionType, result).Inc()
}

// Handler returns the Prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
