package pool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "pinpool"

// Dispatch paths a submitted task can take
const (
	pathDirect = "direct"
	pathQueued = "queued"
)

// metrics holds the pool's Prometheus collectors. A nil *metrics records
// nothing, which is what a pool without a Registerer gets.
type metrics struct {
	submitted  *prometheus.CounterVec
	completed  prometheus.Counter
	panicked   prometheus.Counter
	duration   prometheus.Histogram
	free       prometheus.GaugeFunc
	pending    prometheus.GaugeFunc
	collectors []prometheus.Collector
	registerer prometheus.Registerer
}

// newMetrics creates the collectors and registers them with reg. The gauges
// read the monitors at scrape time.
func newMetrics(reg prometheus.Registerer, labels prometheus.Labels, freeWorkers, pendingTasks func() float64) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &metrics{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "tasks_submitted_total",
			Help:        "Tasks accepted by Submit, by dispatch path.",
			ConstLabels: labels,
		}, []string{"path"}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "tasks_completed_total",
			Help:        "Tasks that ran to completion, including panicked ones.",
			ConstLabels: labels,
		}),
		panicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "tasks_panicked_total",
			Help:        "Tasks whose function panicked.",
			ConstLabels: labels,
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Name:        "task_duration_seconds",
			Help:        "Task execution time on the worker thread.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		free: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "free_workers",
			Help:        "Workers waiting for a task.",
			ConstLabels: labels,
		}, freeWorkers),
		pending: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "pending_tasks",
			Help:        "Tasks queued while no worker was free.",
			ConstLabels: labels,
		}, pendingTasks),
	}
	m.collectors = []prometheus.Collector{m.submitted, m.completed, m.panicked, m.duration, m.free, m.pending}
	m.registerer = reg

	for i, c := range m.collectors {
		if err := reg.Register(c); err != nil {
			for _, registered := range m.collectors[:i] {
				reg.Unregister(registered)
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) taskSubmitted(path string) {
	if m == nil {
		return
	}
	m.submitted.WithLabelValues(path).Inc()
}

func (m *metrics) taskCompleted(d time.Duration) {
	if m == nil {
		return
	}
	m.completed.Inc()
	m.duration.Observe(d.Seconds())
}

func (m *metrics) taskPanicked() {
	if m == nil {
		return
	}
	m.panicked.Inc()
}

// unregister removes the collectors so another pool can use the same names
func (m *metrics) unregister() {
	if m == nil {
		return
	}
	for _, c := range m.collectors {
		m.registerer.Unregister(c)
	}
}
