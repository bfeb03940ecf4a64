// Package metrics registers the Prometheus collectors shared by all services.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const prefix = "cmms"

var (
	// WorkOrderTransitions counts lifecycle attempts by transition and outcome
	WorkOrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_work_order_transitions_total",
			Help: "Total number of work order transition attempts",
		},
		[]string{"transition", "outcome"},
	)

	// PreventiveGenerations counts preventive work orders generated from plans
	PreventiveGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_preventive_generations_total",
			Help: "Total number of preventive plan generation attempts",
		},
		[]string{"outcome"},
	)

	// AuthLogins counts login attempts
	AuthLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	// EventsPublished counts lifecycle events handed to the broker
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_events_published_total",
			Help: "Total number of lifecycle events published",
		},
		[]string{"outcome"},
	)

	// EventsConsumed counts lifecycle events processed by consumers
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_events_consumed_total",
			Help: "Total number of lifecycle events consumed",
		},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
)

// Outcome labels
const (
	OutcomeSuccess   = "success"
	OutcomeForbidden = "forbidden"
	OutcomeNotFound  = "not_found"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Middleware records request counts and latency for service
func Middleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(service, c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(service, c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// OutcomeOf classifies err into an outcome label
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, errs.ErrForbidden), errors.Is(err, errs.ErrUnauthorized):
		return OutcomeForbidden
	case errors.Is(err, errs.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, errs.ErrValidationFailed):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
