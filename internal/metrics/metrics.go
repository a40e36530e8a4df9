// Package metrics holds the Prometheus collectors for answer resolution.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tier labels for resolution outcomes.
const (
	TierCache      = "cache"
	TierRAG        = "rag"
	TierGeneration = "generation"
	TierFallback   = "fallback"
)

var (
	once sync.Once

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guata_cache_lookups_total",
		Help: "Response cache lookups by result (hit/miss)",
	}, []string{"result"})

	resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guata_resolutions_total",
		Help: "Resolved questions by the tier that produced the answer",
	}, []string{"tier"})

	adapterLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guata_adapter_latency_ms",
		Help:    "Latency of remote adapter calls in milliseconds",
		Buckets: []float64{25, 50, 100, 250, 500, 1000, 2000, 4000, 8000, 15000},
	}, []string{"adapter", "outcome"})

	confidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "guata_response_confidence",
		Help:    "Confidence score of returned responses",
		Buckets: []float64{50, 65, 70, 80, 85, 90, 95, 100},
	})

	recordsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guata_conversation_records_dropped_total",
		Help: "Conversation turns dropped because the record queue was full",
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// Register adds the collectors to the default registry. Safe to call more
// than once.
func Register() {
	ensureRegistered()
}

// IncCacheLookup counts a cache hit or miss.
func IncCacheLookup(hit bool) {
	ensureRegistered()
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// IncResolution counts the tier that answered a question.
func IncResolution(tier string) {
	ensureRegistered()
	resolutions.WithLabelValues(tier).Inc()
}

// ObserveAdapter records the latency of one remote call.
func ObserveAdapter(adapter string, start time.Time, ok bool) {
	ensureRegistered()
	outcome := "ok"
	if !ok {
		outcome = "empty"
	}
	adapterLatency.WithLabelValues(adapter, outcome).Observe(float64(time.Since(start).Milliseconds()))
}

// ObserveConfidence records the confidence of a returned response.
func ObserveConfidence(score int) {
	ensureRegistered()
	confidence.Observe(float64(score))
}

// IncRecordDropped counts a conversation turn lost to back-pressure.
func IncRecordDropped() {
	ensureRegistered()
	recordsDropped.Inc()
}

// Collectors exposes all collectors for registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		cacheLookups, resolutions, adapterLatency, confidence, recordsDropped,
	}
}
