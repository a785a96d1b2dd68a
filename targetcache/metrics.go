package targetcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHitsTotal counts target URL cache hits.
	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "target_url_cache_hits_total",
			Help: "Total number of target URL cache hits",
		},
	)

	// cacheMissesTotal counts target URL cache misses.
	cacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "target_url_cache_misses_total",
			Help: "Total number of target URL cache misses",
		},
	)

	// cacheEvictionsTotal counts FIFO evictions.
	cacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "target_url_cache_evictions_total",
			Help: "Total number of target URL cache evictions",
		},
	)

	// cacheSize reports the current entry count.
	cacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "target_url_cache_entries",
			Help: "Current number of cached target URLs",
		},
	)
)

func recordHit()      { cacheHitsTotal.Inc() }
func recordMiss()     { cacheMissesTotal.Inc() }
func recordEviction() { cacheEvictionsTotal.Inc() }

func recordSize(n int) { cacheSize.Set(float64(n)) }
