// Package metrics holds the Prometheus collectors of the ledger server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobmcallan/papertrade/internal/models"
)

var (
	// LedgerEntries counts committed wallet ledger entries by type.
	LedgerEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrade_ledger_entries_total",
			Help: "Wallet ledger entries committed",
		},
		[]string{"type"},
	)

	// Trades counts orders by side, order type and resulting status.
	Trades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrade_trades_total",
			Help: "Orders placed, filled or cancelled",
		},
		[]string{"side", "order_type", "status"},
	)

	FundingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrade_funding_transitions_total",
			Help: "Funding request status transitions",
		},
		[]string{"status"},
	)

	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrade_quote_requests_total",
			Help: "Quote lookups by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "papertrade_quote_duration_seconds",
			Help:    "Latency of quote source calls",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrade_http_requests_total",
			Help: "HTTP requests by method and status code",
		},
		[]string{"method", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "papertrade_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordLedger counts the ledger entries of an applied change set.
func RecordLedger(cs *models.ChangeSet) {
	for _, e := range cs.Transactions {
		LedgerEntries.WithLabelValues(string(e.Type)).Inc()
	}
}
