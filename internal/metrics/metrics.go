package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TransactionsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_transactions_initiated_total",
			Help: "Pending ledger rows created",
		},
		[]string{"type"}, // deposit|withdrawal|payment|transfer
	)

	SettlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_settlements_total",
			Help: "Settlement events by outcome",
		},
		[]string{"outcome"}, // completed|failed|refunded|noop|orphan
	)

	WebhookMalformed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_webhook_malformed_total",
			Help: "Webhook payloads rejected before processing",
		},
	)

	ReconcileAnalyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_reconcile_analyses_total",
			Help: "Reconciliation analyses by result",
		},
		[]string{"result"}, // ready|needs_review
	)

	ReconcileExecutions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_reconcile_executions_total",
			Help: "Operator-triggered reconciliation executions",
		},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

func Init() {
	prometheus.MustRegister(TransactionsInitiated)
	prometheus.MustRegister(SettlementsTotal)
	prometheus.MustRegister(WebhookMalformed)
	prometheus.MustRegister(ReconcileAnalyses)
	prometheus.MustRegister(ReconcileExecutions)
	prometheus.MustRegister(WorkerQueueDepth)
}
