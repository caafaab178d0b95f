// Package metrics exposes the engine's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReservationsCreated counts successfully created reservations.
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "izposoja_reservations_created_total",
		Help: "Number of reservations created.",
	})

	// BookingConflicts counts reservation or add-item requests rejected
	// because of a date-range conflict.
	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "izposoja_booking_conflicts_total",
		Help: "Number of booking requests rejected due to overlapping date ranges.",
	})

	// ItemsReturned counts items returned from reservations one by one.
	// Bulk returns are not included.
	ItemsReturned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "izposoja_items_returned_total",
		Help: "Number of items returned from reservations.",
	})

	// MaintenanceTransfers counts items sent to maintenance.
	MaintenanceTransfers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "izposoja_maintenance_transfers_total",
		Help: "Number of items sent to maintenance.",
	})

	// ItemsRestored counts items restored from maintenance.
	ItemsRestored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "izposoja_items_restored_total",
		Help: "Number of items restored to availability from maintenance.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
