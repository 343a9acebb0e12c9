package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ReconcileOutcomeRecorded        = "recorded"
	ReconcileOutcomeUnknownPayer    = "unknown_payer"
	ReconcileOutcomeAmbiguousMember = "ambiguous_member"
	ReconcileOutcomeAlreadyRecorded = "already_recorded"
	ReconcileOutcomeDuplicateEvent  = "duplicate_event"
)

// ReconcileMetrics counts what each reconciliation run did with its records.
type ReconcileMetrics struct {
	runs     prometheus.Counter
	groups   prometheus.Counter
	outcomes *prometheus.CounterVec
}

func NewReconcileMetrics(registerer prometheus.Registerer, cfg Config) *ReconcileMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "asocmembers_reconcile_runs_total",
		Help:        "Reconciliation runs.",
		ConstLabels: labels,
	})
	groups := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "asocmembers_reconcile_payer_groups_total",
		Help:        "Payer groups seen by reconciliation.",
		ConstLabels: labels,
	})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "asocmembers_reconcile_records_total",
		Help:        "Gateway records by reconciliation outcome.",
		ConstLabels: labels,
	}, []string{"outcome"})

	registerer.MustRegister(runs, groups, outcomes)

	return &ReconcileMetrics{
		runs:     runs,
		groups:   groups,
		outcomes: outcomes,
	}
}

func (m *ReconcileMetrics) IncRun() {
	if m == nil {
		return
	}
	m.runs.Inc()
}

func (m *ReconcileMetrics) AddGroups(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.groups.Add(float64(count))
}

func (m *ReconcileMetrics) AddOutcome(outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.outcomes.WithLabelValues(outcome).Add(float64(count))
}
