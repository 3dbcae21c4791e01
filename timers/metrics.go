package timers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics mirrors the promauto wiring style of the retrieved
// nobletooth/kiwi block cache (pkg/storage/block_cache.go): a handful of
// counters and gauges registered once per namespace and updated inline by
// the scheduler's hot paths.
type metrics struct {
	armedTimers      *prometheus.GaugeVec
	firedTimers      prometheus.Counter
	droppedCallbacks prometheus.Counter
	immediateDepth   prometheus.Gauge
	refedLiveness    prometheus.Gauge
}

func newMetrics(namespace string, reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		armedTimers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "armed_timers",
			Help:      "Number of duration buckets currently armed, by liveness class.",
		}, []string{"liveness" /* refed | unrefed */}),
		firedTimers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fired_timers_total",
			Help:      "Total number of timer callbacks that have fired.",
		}),
		droppedCallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_errors_total",
			Help:      "Total number of timer/immediate callbacks that panicked.",
		}),
		immediateDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "immediate_queue_depth",
			Help:      "Current number of immediates waiting to run on the next turn.",
		}),
		refedLiveness: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refed_liveness",
			Help:      "Number of ref'd handles currently keeping the process alive.",
		}),
	}
}
