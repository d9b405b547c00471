package metric

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector samples live primitives at scrape time. Sources are plain
// functions so this package does not depend on the primitives' types.
type Collector struct {
	limiterInUse    *prometheus.Desc
	limiterCapacity *prometheus.Desc
	entries         *prometheus.Desc

	mu       sync.RWMutex
	limiters map[string]limiterSource
	sizes    map[string]func() int
}

type limiterSource struct {
	inUse    func() int
	capacity int
}

// NewCollector creates an empty collector.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		limiterInUse: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "limiter", "in_use"),
			"Permits held, sampled from the limiter.",
			[]string{"limiter"}, nil),
		limiterCapacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "limiter", "capacity"),
			"Configured limiter capacity.",
			[]string{"limiter"}, nil),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "entries"),
			"Entries in a map or cache, sampled at scrape time.",
			[]string{"store"}, nil),
		limiters: make(map[string]limiterSource),
		sizes:    make(map[string]func() int),
	}
}

// TrackLimiter samples inUse under the given name on every scrape.
func (c *Collector) TrackLimiter(name string, capacity int, inUse func() int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiters[name] = limiterSource{inUse: inUse, capacity: capacity}
}

// TrackSize samples size under the given store name on every scrape.
func (c *Collector) TrackSize(name string, size func() int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sizes[name] = size
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.limiterInUse
	ch <- c.limiterCapacity
	ch <- c.entries
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	// Copy sources so the sampling functions run without c.mu held.
	c.mu.RLock()
	limiters := make(map[string]limiterSource, len(c.limiters))
	for k, v := range c.limiters {
		limiters[k] = v
	}
	sizes := make(map[string]func() int, len(c.sizes))
	for k, v := range c.sizes {
		sizes[k] = v
	}
	c.mu.RUnlock()

	for name, src := range limiters {
		ch <- prometheus.MustNewConstMetric(c.limiterInUse, prometheus.GaugeValue, float64(src.inUse()), name)
		ch <- prometheus.MustNewConstMetric(c.limiterCapacity, prometheus.GaugeValue, float64(src.capacity), name)
	}
	for name, size := range sizes {
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(size()), name)
	}
}
