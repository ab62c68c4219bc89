package batch

import "github.com/prometheus/client_golang/prometheus"

// metricsSet is the Prometheus instrumentation for one Driver: per-batch
// success/failure counters, the aggregate counters spec.md §7 asks for
// ("identical-origin value count, evaluation time, dominator time"), and
// cache hit/miss counters for the TACode memoization layer.
type metricsSet struct {
	methodsSucceeded prometheus.Counter
	methodsFailed    *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter

	evaluationSeconds prometheus.Histogram
	dominatorSeconds  prometheus.Histogram

	identicalOriginValues prometheus.Histogram
}

// newMetricsSet builds a fresh metricsSet and registers every collector
// with reg. reg may be nil, in which case nothing is registered and the
// caller gets working counters that are simply never scraped — useful for tests that don't want to fight a shared registry.
func newMetricsSet(reg prometheus.Registerer) *metricsSet {
	m := &metricsSet{
		methodsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jvmtac",
			Subsystem: "batch",
			Name:      "methods_succeeded_total",
			Help:      "Methods whose abstract interpretation and TAC lift both completed.",
		}),
		methodsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jvmtac",
			Subsystem: "batch",
			Name:      "methods_failed_total",
			Help:      "Methods that failed, labeled by failure taxonomy kind.",
		}, []string{"kind"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jvmtac",
			Subsystem: "batch",
			Name:      "tacode_cache_hits_total",
			Help:      "TACode memoization cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jvmtac",
			Subsystem: "batch",
			Name:      "tacode_cache_misses_total",
			Help:      "TACode memoization cache misses.",
		}),
		evaluationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jvmtac",
			Subsystem: "batch",
			Name:      "evaluation_seconds",
			Help:      "Wall-clock time spent in the abstract interpreter's worklist, per method.",
			Buckets:   prometheus.DefBuckets,
		}),
		dominatorSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jvmtac",
			Subsystem: "batch",
			Name:      "dominator_seconds",
			Help:      "Wall-clock time spent computing the AI-based CFG's dominator tree, per method.",
			Buckets:   prometheus.DefBuckets,
		}),
		identicalOriginValues: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jvmtac",
			Subsystem: "batch",
			Name:      "identical_origin_values",
			Help:      "Count of operand-stack slots whose entry snapshot carries more than one possible origin, per method.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.methodsSucceeded, m.methodsFailed, m.cacheHits, m.cacheMisses,
			m.evaluationSeconds, m.dominatorSeconds, m.identicalOriginValues,
		)
	}
	return m
}
