// Package metrics exposes Prometheus instruments describing dashboard activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
)

const namespace = "zenit_dash"

var (
	loads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_loads_total",
		Help:      "Snapshot retrievals by result",
	}, []string{"result"})

	events = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Dashboard events by recomputation effect",
	}, []string{"effect"})

	recompute = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recompute_seconds",
		Help:      "Time spent applying an event and rebuilding derived views",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	records = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records",
		Help:      "Records in the loaded snapshot",
	})

	filtered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "filtered_records",
		Help:      "Records passing the current filters",
	})

	deletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "node_deletes_total",
		Help:      "Node deletions by result",
	}, []string{"result"})

	pings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pings_total",
		Help:      "A2S pings by result",
	}, []string{"result"})
)

// ObserveLoad records the outcome of a snapshot retrieval.
func ObserveLoad(err error) {
	loads.WithLabelValues(result(err)).Inc()
}

// ObserveEvent records a dispatched event and how long it took.
func ObserveEvent(effect dashboard.Effect, took time.Duration) {
	events.WithLabelValues(effectName(effect)).Inc()
	recompute.Observe(took.Seconds())
}

// SetSizes publishes the store and filtered set sizes.
func SetSizes(total, matched int) {
	records.Set(float64(total))
	filtered.Set(float64(matched))
}

// ObserveDelete records the outcome of a node deletion.
func ObserveDelete(err error) {
	deletes.WithLabelValues(result(err)).Inc()
}

// ObservePing records the outcome of an A2S ping.
func ObservePing(err error) {
	pings.WithLabelValues(result(err)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func effectName(e dashboard.Effect) string {
	switch e {
	case dashboard.EffectRefilter:
		return "refilter"
	case dashboard.EffectTable:
		return "table"
	default:
		return "none"
	}
}
