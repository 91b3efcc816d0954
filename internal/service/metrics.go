package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_submissions_total",
		Help: "Review submissions by outcome (created or error kind)",
	}, []string{"outcome"})

	cacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_cache_requests_total",
		Help: "Stats and fragment cache lookups by result",
	}, []string{"cache", "result"})

	cacheErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_cache_errors_total",
		Help: "Cache operations that failed and fell back to the store",
	}, []string{"cache", "op"})

	securityEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_security_events_total",
		Help: "Suspicious activity recorded in the security log",
	}, []string{"event"})
)

func cacheResult(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequestsTotal.WithLabelValues(cache, result).Inc()
}
