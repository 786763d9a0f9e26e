// Package metrics exposes Prometheus collectors for the booking engine and
// the HTTP layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tourism/internal/money"
)

var (
	bookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourism_bookings_created_total",
		Help: "Bookings committed.",
	})

	bookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourism_bookings_rejected_total",
		Help: "Booking attempts rejected, by reason.",
	}, []string{"reason"})

	bookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourism_bookings_cancelled_total",
		Help: "Bookings cancelled.",
	})

	seatsReserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourism_seats_reserved_total",
		Help: "Seats taken by committed bookings.",
	})

	seatsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourism_seats_released_total",
		Help: "Seats returned by cancellations.",
	})

	paymentsMinor = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourism_payments_minor_units_total",
		Help: "Charged and refunded amounts in minor currency units.",
	}, []string{"kind"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tourism_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Rejection reasons
const (
	ReasonValidation        = "validation"
	ReasonNotFound          = "not_found"
	ReasonInsufficientSeats = "insufficient_seats"
	ReasonError             = "error"
)

func BookingCreated(seats int, amount money.Amount) {
	bookingsCreated.Inc()
	seatsReserved.Add(float64(seats))
	paymentsMinor.WithLabelValues("charged").Add(float64(amount.Minor()))
}

func BookingRejected(reason string) {
	bookingsRejected.WithLabelValues(reason).Inc()
}

func BookingCancelled(seats int, refund *money.Amount) {
	bookingsCancelled.Inc()
	seatsReleased.Add(float64(seats))
	if refund != nil {
		paymentsMinor.WithLabelValues("refunded").Add(float64(refund.Minor()))
	}
}

// Middleware records request latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
