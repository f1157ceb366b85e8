package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skisched", Name: "bookings_created_total", Help: "Bookings accepted by the scheduling engine",
	})
	BookingConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skisched", Name: "booking_conflicts_total", Help: "Bookings rejected by the overlap check",
	})
	BookingsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skisched", Name: "bookings_deleted_total", Help: "Bookings removed",
	})
	GridBuilds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skisched", Name: "grid_builds_total", Help: "Day grids rendered",
	})
)

func init() {
	prometheus.MustRegister(BookingsCreated, BookingConflicts, BookingsDeleted, GridBuilds)
}

func Handler() http.Handler { return promhttp.Handler() }
