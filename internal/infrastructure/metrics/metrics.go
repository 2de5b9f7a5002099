package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Geocode lookup outcomes
const (
	GeocodeStored  = "stored"
	GeocodeCached  = "cached"
	GeocodeFetched = "fetched"
	GeocodeFailed  = "failed"
)

type Registry struct {
	reg *prometheus.Registry

	Comparisons        *prometheus.CounterVec
	ComparisonDuration prometheus.Histogram
	GeocodeLookups     *prometheus.CounterVec
	PricesRecorded     prometheus.Counter
	EventPublishErrors prometheus.Counter
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	comparisons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricewise_comparisons_total",
		Help: "Shopping list comparisons by missing-item policy.",
	}, []string{"policy"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricewise_comparison_duration_seconds",
		Help:    "Time spent comparing a shopping list, including distance lookups.",
		Buckets: prometheus.DefBuckets,
	})
	geocode := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricewise_geocode_lookups_total",
		Help: "Supermarket location lookups by result.",
	}, []string{"result"})
	prices := prometheus.NewCounter(prometheus.CounterOpts{Name: "pricewise_prices_recorded_total"})
	publishErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "pricewise_event_publish_errors_total"})
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "pricewise_cache_hits_total"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{Name: "pricewise_cache_misses_total"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricewise_http_requests_total",
	}, []string{"method", "route", "status"})

	r.MustRegister(comparisons, duration, geocode, prices, publishErrors, hits, misses, requests)
	return &Registry{
		reg:                r,
		Comparisons:        comparisons,
		ComparisonDuration: duration,
		GeocodeLookups:     geocode,
		PricesRecorded:     prices,
		EventPublishErrors: publishErrors,
		CacheHits:          hits,
		CacheMisses:        misses,
		HTTPRequests:       requests,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
