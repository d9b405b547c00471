package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "synckit"

// Permit acquire results.
const (
	ResultAcquired = "acquired"
	ResultTimeout  = "timeout"
)

// Permit release results.
const (
	ResultReleased      = "released"
	ResultDoubleRelease = "double_release"
)

// Registry holds all application metrics. It satisfies the observer
// interfaces of the permit, cmap, rwcache, account and lazy packages, so one
// Registry can be handed to every primitive.
type Registry struct {
	reg *prometheus.Registry

	PermitsInUse   prometheus.Gauge
	PermitAcquires *prometheus.CounterVec
	PermitReleases *prometheus.CounterVec
	PermitWait     prometheus.Histogram
	PermitHold     prometheus.Histogram

	MapInserts *prometheus.CounterVec
	CacheOps   *prometheus.CounterVec
	AccountOps *prometheus.CounterVec

	Constructions        *prometheus.CounterVec
	ConstructionDuration prometheus.Histogram
}

// NewRegistry creates and registers all metrics on a fresh registry,
// together with the Go runtime and process collectors.
func NewRegistry(namespace string) *Registry {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	latencyBuckets := prometheus.ExponentialBuckets(0.00001, 4, 10) // 10µs .. ~2.6s

	r := &Registry{
		reg: prometheus.NewRegistry(),
		PermitsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "permits_in_use",
			Help:      "Permits currently held across all limiters.",
		}),
		PermitAcquires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permit_acquire_total",
			Help:      "Permit acquire outcomes.",
		}, []string{"result"}),
		PermitReleases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permit_release_total",
			Help:      "Permit release outcomes.",
		}, []string{"result"}),
		PermitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "permit_wait_seconds",
			Help:      "Time spent waiting for a permit, including timed out waits.",
			Buckets:   latencyBuckets,
		}),
		PermitHold: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "permit_hold_seconds",
			Help:      "Time a permit was held before release.",
			Buckets:   latencyBuckets,
		}),
		MapInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "map_insert_total",
			Help:      "TryInsert outcomes.",
		}, []string{"result"}),
		CacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_ops_total",
			Help:      "Reader-writer cache operations.",
		}, []string{"op"}),
		AccountOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_ops_total",
			Help:      "Account deposits and withdrawals by outcome.",
		}, []string{"op", "result"}),
		Constructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleton_constructions_total",
			Help:      "Lazy singleton constructor runs.",
		}, []string{"result"}),
		ConstructionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "singleton_construction_seconds",
			Help:      "Lazy singleton constructor run time.",
			Buckets:   latencyBuckets,
		}),
	}

	r.reg.MustRegister(
		r.PermitsInUse,
		r.PermitAcquires,
		r.PermitReleases,
		r.PermitWait,
		r.PermitHold,
		r.MapInserts,
		r.CacheOps,
		r.AccountOps,
		r.Constructions,
		r.ConstructionDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Register adds an extra collector, such as a Collector, to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveAcquire implements permit.Observer.
func (r *Registry) ObserveAcquire(wait time.Duration) {
	r.PermitsInUse.Inc()
	r.PermitAcquires.WithLabelValues(ResultAcquired).Inc()
	r.PermitWait.Observe(wait.Seconds())
}

// ObserveTimeout implements permit.Observer.
func (r *Registry) ObserveTimeout(wait time.Duration) {
	r.PermitAcquires.WithLabelValues(ResultTimeout).Inc()
	r.PermitWait.Observe(wait.Seconds())
}

// ObserveRelease implements permit.Observer.
func (r *Registry) ObserveRelease(held time.Duration) {
	r.PermitsInUse.Dec()
	r.PermitReleases.WithLabelValues(ResultReleased).Inc()
	r.PermitHold.Observe(held.Seconds())
}

// ObserveDoubleRelease implements permit.Observer.
func (r *Registry) ObserveDoubleRelease() {
	r.PermitReleases.WithLabelValues(ResultDoubleRelease).Inc()
}

// ObserveInsert implements cmap.InsertObserver.
func (r *Registry) ObserveInsert(accepted bool) {
	if accepted {
		r.MapInserts.WithLabelValues("accepted").Inc()
		return
	}
	r.MapInserts.WithLabelValues("rejected").Inc()
}

// ObserveCacheOp implements rwcache.Observer.
func (r *Registry) ObserveCacheOp(op string) {
	r.CacheOps.WithLabelValues(op).Inc()
}

// ObserveAccountOp implements account.Observer.
func (r *Registry) ObserveAccountOp(op string, ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	r.AccountOps.WithLabelValues(op, result).Inc()
}

// ObserveConstruction implements lazy.Observer.
func (r *Registry) ObserveConstruction(took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Constructions.WithLabelValues(result).Inc()
	r.ConstructionDuration.Observe(took.Seconds())
}
