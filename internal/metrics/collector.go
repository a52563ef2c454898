// Package metrics provides Prometheus metrics for tandem.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	linesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tandem_lines_published_total",
			Help: "Worker output lines published, by source tag",
		},
		[]string{"source"},
	)

	workerUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tandem_worker_up",
			Help: "1 while the worker process is alive, 0 otherwise",
		},
		[]string{"worker"},
	)

	unsolicitedExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tandem_unsolicited_exits_total",
			Help: `Worker exits not requested by shutdown, by kind ("crashed" or "clean")`,
		},
		[]string{"worker", "kind"},
	)

	orphansSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tandem_orphans_swept_total",
			Help: "Stale same-named processes terminated by the orphan sweep",
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry.
// Safe to call multiple times.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			linesPublished,
			workerUp,
			unsolicitedExits,
			orphansSwept,
		)
	})
}

// ObserveLine counts one published line for the given source tag.
func ObserveLine(source string) {
	linesPublished.WithLabelValues(source).Inc()
}

// SetWorkerUp records worker liveness.
func SetWorkerUp(worker string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	workerUp.WithLabelValues(worker).Set(v)
}

// WorkerExited counts an unsolicited worker exit. kind is "crashed" or
// "clean".
func WorkerExited(worker, kind string) {
	unsolicitedExits.WithLabelValues(worker, kind).Inc()
}

// OrphansSwept adds the result of one sweep pass.
func OrphansSwept(n int) {
	orphansSwept.Add(float64(n))
}
