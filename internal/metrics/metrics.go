package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LifecycleArchivesTotal      prometheus.Counter
	LifecycleRestoresTotal      prometheus.Counter
	LifecyclePurgesTotal        prometheus.Counter
	LifecycleReassignmentsTotal prometheus.Counter
	LifecycleFailuresTotal      *prometheus.CounterVec
	BulkItemsProcessedTotal     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		LifecycleArchivesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parish_lifecycle_archives_total",
			Help: "Total number of records archived",
		}),
		LifecycleRestoresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parish_lifecycle_restores_total",
			Help: "Total number of records restored",
		}),
		LifecyclePurgesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parish_lifecycle_purges_total",
			Help: "Total number of records purged",
		}),
		LifecycleReassignmentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parish_lifecycle_reassignments_total",
			Help: "Total number of dependents repointed to a replacement target",
		}),
		LifecycleFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parish_lifecycle_failures_total",
			Help: "Total number of failed lifecycle operations by error code",
		}, []string{"code"}),
		BulkItemsProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parish_bulk_items_processed_total",
			Help: "Total number of items processed by bulk operations",
		}),
	}
}

func (m *Metrics) IncrementArchives() {
	m.LifecycleArchivesTotal.Inc()
}

func (m *Metrics) IncrementRestores() {
	m.LifecycleRestoresTotal.Inc()
}

func (m *Metrics) IncrementPurges() {
	m.LifecyclePurgesTotal.Inc()
}

func (m *Metrics) AddReassignments(count int) {
	m.LifecycleReassignmentsTotal.Add(float64(count))
}

func (m *Metrics) IncrementFailures(code string) {
	m.LifecycleFailuresTotal.WithLabelValues(code).Inc()
}

func (m *Metrics) AddBulkItems(count int) {
	m.BulkItemsProcessedTotal.Add(float64(count))
}
