package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts vault operations by kind and terminal status
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_operations_total",
			Help: "Total number of vault operations",
		},
		[]string{"kind", "status"},
	)

	// StageDuration tracks per-stage pipeline latency
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vault_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// SimulationFailures counts simulation reverts
	SimulationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_simulation_failures_total",
			Help: "Total number of simulation reverts",
		},
	)

	// SubmissionsTotal counts broadcasts by outcome
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_submissions_total",
			Help: "Total number of transaction submissions",
		},
		[]string{"outcome"},
	)

	// RPCRequests counts network client calls by method and outcome
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_rpc_requests_total",
			Help: "Total number of RPC/Horizon requests",
		},
		[]string{"method", "outcome"},
	)

	// WalletSessionState reports the current wallet session state
	// (0=disconnected, 1=connecting, 2=connected)
	WalletSessionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_wallet_session_state",
			Help: "Current wallet session state",
		},
	)

	// PartnerLogins counts partner login attempts by status
	PartnerLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_partner_logins_total",
			Help: "Total number of partner login attempts",
		},
		[]string{"status"},
	)

	// MetricsRefreshes counts vault metrics reads by outcome
	MetricsRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_metrics_refreshes_total",
			Help: "Total number of vault metrics reads",
		},
		[]string{"outcome"},
	)
)
