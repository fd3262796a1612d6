// Package metrics defines the Prometheus collectors the backend exports on
// /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Transactions    *prometheus.CounterVec
	SalesAmount     *prometheus.CounterVec
	ShiftsOpened    prometheus.Counter
	ShiftsClosed    prometheus.Counter
	CashDifferences prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "till",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "till",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Transactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "till",
			Name:      "transactions_total",
			Help:      "Completed sales by payment method.",
		}, []string{"payment_method"}),
		SalesAmount: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "till",
			Name:      "sales_amount_total",
			Help:      "Sum of discounted sale totals by payment method.",
		}, []string{"payment_method"}),
		ShiftsOpened: f.NewCounter(prometheus.CounterOpts{
			Namespace: "till",
			Name:      "shifts_opened_total",
			Help:      "Cash shifts opened.",
		}),
		ShiftsClosed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "till",
			Name:      "shifts_closed_total",
			Help:      "Cash shifts closed.",
		}),
		CashDifferences: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "till",
			Name:      "shift_cash_difference",
			Help:      "Counted minus expected cash at shift close.",
			Buckets:   []float64{-100000, -50000, -10000, -1000, 0, 1000, 10000, 50000, 100000},
		}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(seconds)
}

// RecordSale counts a completed sale.
func (m *Metrics) RecordSale(method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(method).Inc()
	m.SalesAmount.WithLabelValues(method).Add(amount.InexactFloat64())
}

func (m *Metrics) ShiftOpened() {
	if m == nil {
		return
	}
	m.ShiftsOpened.Inc()
}

func (m *Metrics) ShiftClosed(difference decimal.Decimal) {
	if m == nil {
		return
	}
	m.ShiftsClosed.Inc()
	m.CashDifferences.Observe(difference.InexactFloat64())
}
