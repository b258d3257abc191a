package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/clientledger/internal/usecase"
)

// Metrics holds all Prometheus metrics. It implements usecase.Recorder.
type Metrics struct {
	// Command metrics
	CommandsTotal       *prometheus.CounterVec
	CommandDuration     *prometheus.HistogramVec
	DepositsRecorded    prometheus.Counter
	WithdrawalsRecorded prometheus.Counter
	InsufficientFunds   prometheus.Counter

	// Event delivery metrics
	PublishFailures    *prometheus.CounterVec
	ProjectionsApplied *prometheus.CounterVec
	ProjectionErrors   *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationDiscrepancies prometheus.Gauge
	ReconciliationRuns          prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientledger_commands_total",
				Help: "Total ledger commands by outcome",
			},
			[]string{"command", "outcome"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clientledger_command_duration_seconds",
				Help:    "Duration of ledger commands",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		DepositsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "clientledger_deposits_recorded_total",
			Help: "Total number of deposits recorded",
		}),
		WithdrawalsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "clientledger_withdrawals_recorded_total",
			Help: "Total number of withdrawals recorded",
		}),
		InsufficientFunds: factory.NewCounter(prometheus.CounterOpts{
			Name: "clientledger_insufficient_funds_total",
			Help: "Total number of withdrawals rejected for insufficient funds",
		}),

		PublishFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientledger_publish_failures_total",
				Help: "Events the bus did not accept after commit",
			},
			[]string{"event_type"},
		),
		ProjectionsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientledger_projections_applied_total",
				Help: "Events applied to the materialized balances",
			},
			[]string{"event_type"},
		),
		ProjectionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientledger_projection_errors_total",
				Help: "Events that failed to project",
			},
			[]string{"event_type"},
		),

		ReconciliationDiscrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clientledger_reconciliation_discrepancies",
			Help: "Accounts whose projection diverged from the event history in the last report",
		}),
		ReconciliationRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "clientledger_reconciliation_runs_total",
			Help: "Total reconciliation reports generated",
		}),

		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}

// ObserveCommand records one deposit or withdraw execution.
func (m *Metrics) ObserveCommand(command, outcome string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())

	switch {
	case outcome == usecase.OutcomeInsufficientFunds:
		m.InsufficientFunds.Inc()
	case outcome != usecase.OutcomeSuccess:
	case command == "deposit":
		m.DepositsRecorded.Inc()
	case command == "withdraw":
		m.WithdrawalsRecorded.Inc()
	}
}

func (m *Metrics) PublishFailed(eventType string) {
	m.PublishFailures.WithLabelValues(eventType).Inc()
}

func (m *Metrics) ProjectionApplied(eventType string) {
	m.ProjectionsApplied.WithLabelValues(eventType).Inc()
}

func (m *Metrics) ProjectionFailed(eventType string) {
	m.ProjectionErrors.WithLabelValues(eventType).Inc()
}

// Discrepancies records the outcome of a reconciliation report.
func (m *Metrics) Discrepancies(count int) {
	m.ReconciliationRuns.Inc()
	m.ReconciliationDiscrepancies.Set(float64(count))
}

var _ usecase.Recorder = (*Metrics)(nil)
