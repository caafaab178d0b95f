// Package engine is the single entry point for everything that mutates
// items, reservations and their history. Collaborators (HTTP handlers,
// CLI seeding) never touch the stores directly.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/izposoja/internal/metrics"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// Error taxonomy, re-exported so callers depend on the engine alone.
var (
	ErrNotFound     = store.ErrNotFound
	ErrInvalidInput = store.ErrInvalidInput
)

// ConflictError and ItemConflict surface which items and windows caused
// a rejection.
type (
	ConflictError = store.ConflictError
	ItemConflict  = store.ItemConflict
)

// IsConflict reports whether err is a booking conflict.
func IsConflict(err error) bool {
	return store.IsConflict(err)
}

// Engine orchestrates the item, reservation and archive stores over a
// shared database. Role enforcement is the caller's job; the engine
// only guards consistency.
type Engine struct {
	db *sql.DB
}

// New creates an engine over an opened database.
func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// CreateItem creates a new bookable item.
func (e *Engine) CreateItem(ctx context.Context, name, category, manufacturerURL, info string) (*model.Item, error) {
	item, err := store.CreateItem(ctx, e.db, name, category, manufacturerURL, info)
	if err != nil {
		return nil, err
	}
	slog.Info("item created", "item", item.ID, "name", item.Name)
	return item, nil
}

// UpdateItem updates an item's descriptive fields.
func (e *Engine) UpdateItem(ctx context.Context, id, name, category, manufacturerURL, info string) error {
	return store.UpdateItem(ctx, e.db, id, name, category, manufacturerURL, info)
}

// GetItem returns an item with its active bookings.
func (e *Engine) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := store.GetItemWithBookings(ctx, e.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return item, nil
}

// ListItems returns items matching the filter.
func (e *Engine) ListItems(ctx context.Context, status, category, search string) ([]model.Item, error) {
	return store.ListItems(ctx, e.db, status, category, search)
}

// CreateReservation reserves all listed items for the date range, or
// none of them if any item conflicts.
func (e *Engine) CreateReservation(ctx context.Context, name, ownerID string, start, end time.Time, itemIDs []string) (*model.Reservation, error) {
	res, err := store.CreateReservation(ctx, e.db, name, ownerID, start, end, itemIDs)
	if err != nil {
		if IsConflict(err) {
			metrics.BookingConflicts.Inc()
			slog.Info("reservation rejected", "owner", ownerID, "reason", err)
		}
		return nil, err
	}

	metrics.ReservationsCreated.Inc()
	slog.Info("reservation created", "reservation", res.ID, "name", res.Name, "owner", ownerID, "items", len(itemIDs))
	return res, nil
}

// AddItemsToReservation attaches further items to an active reservation.
func (e *Engine) AddItemsToReservation(ctx context.Context, reservationID string, itemIDs []string) error {
	err := store.AddItems(ctx, e.db, reservationID, itemIDs)
	if err != nil {
		if IsConflict(err) {
			metrics.BookingConflicts.Inc()
		}
		return err
	}
	slog.Info("items added to reservation", "reservation", reservationID, "items", len(itemIDs))
	return nil
}

// ReturnItems returns items from a reservation, archiving them. The
// reservation closes once its last item is returned.
func (e *Engine) ReturnItems(ctx context.Context, reservationID string, itemIDs []string) error {
	if err := store.ReturnItems(ctx, e.db, reservationID, itemIDs); err != nil {
		return err
	}
	metrics.ItemsReturned.Add(float64(len(itemIDs)))
	slog.Info("items returned", "reservation", reservationID, "items", len(itemIDs))
	return nil
}

// ReturnReservations bulk-returns whole reservations. This path deletes
// the reservation records without archiving them.
func (e *Engine) ReturnReservations(ctx context.Context, reservationIDs []string) error {
	if err := store.ReturnAll(ctx, e.db, reservationIDs); err != nil {
		return err
	}
	slog.Info("reservations bulk-returned", "count", len(reservationIDs))
	return nil
}

// SendItemsToMaintenance pulls items from a reservation into the
// maintenance pool with a defect description.
func (e *Engine) SendItemsToMaintenance(ctx context.Context, reservationID string, itemIDs []string, info string) error {
	if err := store.SendItemsToMaintenance(ctx, e.db, reservationID, itemIDs, info); err != nil {
		return err
	}
	metrics.MaintenanceTransfers.Add(float64(len(itemIDs)))
	slog.Info("items sent to maintenance", "reservation", reservationID, "items", len(itemIDs))
	return nil
}

// RestoreItemAvailability returns a maintenance item to the bookable
// pool. NotFound if the item has no maintenance record.
func (e *Engine) RestoreItemAvailability(ctx context.Context, itemID string) error {
	if err := store.RestoreAvailability(ctx, e.db, itemID); err != nil {
		return err
	}
	metrics.ItemsRestored.Inc()
	slog.Info("item restored from maintenance", "item", itemID)
	return nil
}

// GetReservation returns an active reservation.
func (e *Engine) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := store.GetReservation(ctx, e.db, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	return res, nil
}

// ListReservations returns active reservations, all of them or one
// owner's.
func (e *Engine) ListReservations(ctx context.Context, ownerID string) ([]model.Reservation, error) {
	return store.ListReservations(ctx, e.db, ownerID)
}

// GetPastReservation returns a historical reservation and its snapshots.
func (e *Engine) GetPastReservation(ctx context.Context, id string) (*model.PastReservation, error) {
	past, err := store.GetPastReservation(ctx, e.db, id)
	if err != nil {
		return nil, err
	}
	if past == nil {
		return nil, fmt.Errorf("past reservation %s: %w", id, ErrNotFound)
	}
	return past, nil
}

// ListPastReservations returns all historical reservations.
func (e *Engine) ListPastReservations(ctx context.Context) ([]model.PastReservation, error) {
	return store.ListPastReservations(ctx, e.db)
}

// ListMaintenanceItems returns all items currently in maintenance.
func (e *Engine) ListMaintenanceItems(ctx context.Context) ([]model.MaintenanceRecord, error) {
	return store.ListMaintenance(ctx, e.db)
}

// GetUsername resolves a user id to its display name.
func (e *Engine) GetUsername(ctx context.Context, userID string) (string, error) {
	return store.GetUsername(ctx, e.db, userID)
}
