package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics records sale throughput, approval decisions and commit latency.
// A nil *SaleMetrics is valid and records nothing.
type SaleMetrics struct {
	created        *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	stockConflicts prometheus.Counter
	promotions     prometheus.Counter
	commitDuration *prometheus.HistogramVec
}

// NewSaleMetrics registers the sale metrics on the provided registerer.
func NewSaleMetrics(reg prometheus.Registerer) *SaleMetrics {
	if reg == nil {
		return &SaleMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_created_total",
		Help: "Sales accepted, by initial status.",
	}, []string{"status"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_decisions_total",
		Help: "Manager decisions on pending sales.",
	}, []string{"decision"})
	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sale_stock_conflicts_total",
		Help: "Commits rejected because stock changed under the sale.",
	})
	promotions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sale_debt_limit_promotions_total",
		Help: "Sales routed to approval because of the customer debt limit.",
	})
	commitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sale_commit_duration_seconds",
		Help:    "Duration of atomic sale commits in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(created, decisions, stockConflicts, promotions, commitDuration)
	return &SaleMetrics{
		created:        created,
		decisions:      decisions,
		stockConflicts: stockConflicts,
		promotions:     promotions,
		commitDuration: commitDuration,
	}
}

func (m *SaleMetrics) IncCreated(status string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *SaleMetrics) IncDecision(decision string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

func (m *SaleMetrics) IncStockConflict() {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.Inc()
}

func (m *SaleMetrics) IncPromotion() {
	if m == nil || m.promotions == nil {
		return
	}
	m.promotions.Inc()
}

func (m *SaleMetrics) ObserveCommit(operation string, duration time.Duration) {
	if m == nil || m.commitDuration == nil {
		return
	}
	m.commitDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
