// Package metrics holds the Prometheus collectors of the inventory service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteinv_transactions_recorded_total",
		Help: "Transactions written to the material logs.",
	}, []string{"material", "type"})

	TransactionsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteinv_transactions_deleted_total",
		Help: "Transactions removed from the material logs.",
	}, []string{"material"})

	RejectedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteinv_rejected_requests_total",
		Help: "Workflow requests rejected before any write.",
	}, []string{"material", "reason"})

	Clamps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteinv_ledger_clamps_total",
		Help: "Level updates that were floored at zero.",
	}, []string{"material"})

	UploadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siteinv_upload_failures_total",
		Help: "Attachment uploads that failed; the transaction proceeded without a file.",
	}, []string{"folder"})

	TallyDrift = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "siteinv_steel_tally_drift_tonnes",
		Help: "Stored minus expected steel weight per stock row at the last check.",
	}, []string{"site", "variant"})

	WorkflowDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "siteinv_workflow_duration_seconds",
		Help:    "Latency of record and delete workflows.",
		Buckets: prometheus.DefBuckets,
	}, []string{"material", "op"})
)
