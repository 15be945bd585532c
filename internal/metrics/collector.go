// Package metrics exports prometheus metrics of the RPC add-ons.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records launch, cache and task metrics.
type Collector struct {
	phaseDuration  *prometheus.HistogramVec
	launches       *prometheus.CounterVec
	cacheUpdates   *prometheus.CounterVec
	cachedBlocks   prometheus.Counter
	criticalFaults *prometheus.CounterVec
}

// NewCollector registers the collector metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceRPCNode,
			Subsystem: subsystemLaunch,
			Name:      "phase_duration_seconds",
			Help:      "the time spent in each phase of an add-ons launch",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{LabelPhase}),
		launches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceRPCNode,
			Subsystem: subsystemLaunch,
			Name:      "total",
			Help:      "the number of finished add-ons launches by result and the phase they ended in",
		}, []string{LabelResult, LabelPhase}),
		cacheUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceRPCNode,
			Subsystem: subsystemCache,
			Name:      "updates_total",
			Help:      "the number of canonical state notifications applied to the cache",
		}, []string{LabelKind}),
		cachedBlocks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceRPCNode,
			Subsystem: subsystemCache,
			Name:      "committed_blocks_total",
			Help:      "the number of committed blocks inserted into the cache",
		}),
		criticalFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceRPCNode,
			Subsystem: subsystemTasks,
			Name:      "critical_failures_total",
			Help:      "the number of critical tasks that terminated unexpectedly",
		}, []string{LabelTask}),
	}
}

// PhaseCompleted records the duration of a launch phase.
func (c *Collector) PhaseCompleted(phase string, duration time.Duration) {
	c.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// LaunchFinished records the outcome of a launch and the phase it ended in.
func (c *Collector) LaunchFinished(success bool, phase string) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	c.launches.WithLabelValues(result, phase).Inc()
}

// CacheUpdated records an applied canonical state notification.
func (c *Collector) CacheUpdated(reorg bool, blocks int) {
	kind := KindCommit
	if reorg {
		kind = KindReorg
	}
	c.cacheUpdates.WithLabelValues(kind).Inc()
	c.cachedBlocks.Add(float64(blocks))
}

// CriticalTaskFailed records the unexpected termination of a critical task.
func (c *Collector) CriticalTaskFailed(name string) {
	c.criticalFaults.WithLabelValues(name).Inc()
}
