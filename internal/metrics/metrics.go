package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OperationBook   = "book"
	OperationCancel = "cancel"

	ResultSuccess   = "success"
	ResultNotFound  = "not_found"
	ResultRejected  = "rejected"
	ResultPersist   = "persist_error"
	ResultNoBooking = "no_booking"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flightbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flightbook",
			Name:      "transactions_total",
			Help:      "Booking and cancellation attempts by result.",
		},
		[]string{"operation", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transactions)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransaction counts one book/cancel attempt.
func IncTransaction(operation, result string) {
	transactions.WithLabelValues(operation, result).Inc()
}
