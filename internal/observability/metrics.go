package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorlink",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mentorlink",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	kvConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorlink",
		Subsystem: "kv",
		Name:      "version_conflicts_total",
		Help:      "Compare-and-swap attempts that lost to a concurrent writer.",
	}, []string{"driver"})
	enrollments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorlink",
		Subsystem: "activities",
		Name:      "join_attempts_total",
		Help:      "Activity join attempts by backend and outcome.",
	}, []string{"backend", "outcome"})
	activitiesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorlink",
		Subsystem: "activities",
		Name:      "created_total",
		Help:      "Activities created by backend.",
	}, []string{"backend"})
	backendInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mentorlink",
		Subsystem: "storage",
		Name:      "backend_info",
		Help:      "Set to 1 for the activity backend and kv driver chosen at startup.",
	}, []string{"backend", "kv_driver"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, kvConflicts, enrollments, activitiesCreated, backendInfo)
}

func RecordRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func RecordKVConflict(driver string) {
	kvConflicts.WithLabelValues(driver).Inc()
}

// RecordJoin counts a join attempt. outcome is "joined", "full", "duplicate",
// "not_found" or "error".
func RecordJoin(backend, outcome string) {
	enrollments.WithLabelValues(backend, outcome).Inc()
}

func RecordActivityCreated(backend string) {
	activitiesCreated.WithLabelValues(backend).Inc()
}

func SetBackend(backend, kvDriver string) {
	backendInfo.Reset()
	backendInfo.WithLabelValues(backend, kvDriver).Set(1)
}
