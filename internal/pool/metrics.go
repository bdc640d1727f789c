package pool

import (
	"github.com/prometheus/client_golang/prometheus"
)

// promMetrics exports the pool's state and churn to Prometheus.
type promMetrics struct {
	entries   prometheus.Gauge
	inUse     prometheus.Gauge
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	idleDrops prometheus.Counter
}

func newPromMetrics(reg prometheus.Registerer) *promMetrics {
	m := &promMetrics{
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "xrpl_custody",
			Subsystem: "pool",
			Name:      "entries",
			Help:      "Current number of pooled account handles.",
		}),
		inUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "xrpl_custody",
			Subsystem: "pool",
			Name:      "entries_in_use",
			Help:      "Pooled account handles currently leased to a caller.",
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xrpl_custody",
			Subsystem: "pool",
			Name:      "hits_total",
			Help:      "Acquisitions served from an existing handle.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xrpl_custody",
			Subsystem: "pool",
			Name:      "misses_total",
			Help:      "Acquisitions that had to construct a new handle.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xrpl_custody",
			Subsystem: "pool",
			Name:      "evictions_total",
			Help:      "Handles evicted to make room at capacity.",
		}),
		idleDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xrpl_custody",
			Subsystem: "pool",
			Name:      "idle_cleanups_total",
			Help:      "Handles removed by the idle janitor.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.entries, m.inUse, m.hits, m.misses, m.evictions, m.idleDrops)
	}
	return m
}

// Snapshot is a pure read of the pool's current state.
type Snapshot struct {
	Total           int             `json:"total"`
	InUse           int             `json:"in_use"`
	Idle            int             `json:"idle"`
	InUsePerAccount map[string]bool `json:"in_use_per_account"`
}
