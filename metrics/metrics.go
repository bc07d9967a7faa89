// Package metrics exposes the engine's runtime counters and gauges
// as Prometheus collectors: ring-allocator page stalls (C5), loader
// queue depth and retries (C7), batcher draw counts (C8) and
// per-frame timings (C9).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry groups every metric the engine publishes under one
// prometheus.Registerer so a host application can mount them on its
// own /metrics endpoint alongside its own collectors.
type Registry struct {
	StagingPageStalls   prometheus.Counter
	StagingOversizeAllocs prometheus.Counter
	StagingBusyRejections prometheus.Counter

	LoaderQueueDepth  prometheus.Gauge
	LoaderInFlight    prometheus.Gauge
	LoaderRetries     prometheus.Counter
	LoaderFailures    prometheus.Counter

	BatchDrawCount  *prometheus.GaugeVec
	BatchBuildTime  prometheus.Histogram

	FrameDuration prometheus.Histogram
	FrameCount    prometheus.Counter
}

// New creates every collector under the given namespace (e.g.
// "pnkr") and registers them with reg.
func New(reg prometheus.Registerer, namespace string) *Registry {
	m := &Registry{
		StagingPageStalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "staging", Name: "page_stalls_total",
			Help: "Reserve calls that had to wait for a ring page to free up.",
		}),
		StagingOversizeAllocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "staging", Name: "oversize_allocs_total",
			Help: "Reserve calls routed to the oversize temp-buffer pool.",
		}),
		StagingBusyRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "staging", Name: "busy_rejections_total",
			Help: "Reserve calls that gave up with ErrBusy after the wait bound elapsed.",
		}),
		LoaderQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "loader", Name: "queue_depth",
			Help: "Requests currently queued but not yet dequeued by a worker.",
		}),
		LoaderInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "loader", Name: "in_flight",
			Help: "Requests currently executing or coalesced onto an executing request.",
		}),
		LoaderRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "loader", Name: "retries_total",
			Help: "Plan attempts that failed and were retried.",
		}),
		LoaderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "loader", Name: "failures_total",
			Help: "Requests that exhausted every retry attempt.",
		}),
		BatchDrawCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "batch", Name: "draw_count",
			Help: "Draw calls in the most recent frame, by sorting bucket.",
		}, []string{"bucket"}),
		BatchBuildTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "batch", Name: "build_seconds",
			Help:    "Time spent classifying and sorting one frame's draws.",
			Buckets: prometheus.DefBuckets,
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "frame", Name: "duration_seconds",
			Help:    "Wall-clock time spent on one iteration of the frame loop.",
			Buckets: prometheus.DefBuckets,
		}),
		FrameCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "frame", Name: "count_total",
			Help: "Frames submitted.",
		}),
	}
	reg.MustRegister(
		m.StagingPageStalls, m.StagingOversizeAllocs, m.StagingBusyRejections,
		m.LoaderQueueDepth, m.LoaderInFlight, m.LoaderRetries, m.LoaderFailures,
		m.BatchDrawCount, m.BatchBuildTime,
		m.FrameDuration, m.FrameCount,
	)
	return m
}

// ObserveBuckets records the draw counts Batcher.Build produced for
// each named sorting bucket.
func (m *Registry) ObserveBuckets(counts map[string]int) {
	for name, n := range counts {
		m.BatchDrawCount.WithLabelValues(name).Set(float64(n))
	}
}
