package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izposoja/internal/interval"
	"github.com/erazemk/izposoja/internal/model"
)

// AttachBooking attaches a reservation window to an item. Fails with a
// ConflictError if the window overlaps an existing booking.
func AttachBooking(ctx context.Context, db *sql.DB, itemID string, ref model.BookingRef) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockItemTx(ctx, tx, itemID); err != nil {
		return err
	}

	conflict, err := checkAvailableTx(ctx, tx, itemID, ref.StartDate, ref.EndDate)
	if err != nil {
		return err
	}
	if conflict != nil {
		return &ConflictError{Items: []ItemConflict{*conflict}}
	}

	if err := attachBookingTx(ctx, tx, itemID, ref.ReservationID, ref.StartDate, ref.EndDate); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing booking: %w", err)
	}
	return nil
}

// DetachBooking removes an item's booking for the given reservation.
func DetachBooking(ctx context.Context, db *sql.DB, itemID, reservationID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockItemTx(ctx, tx, itemID); err != nil {
		return err
	}

	if err := detachBookingTx(ctx, tx, itemID, reservationID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing booking removal: %w", err)
	}
	return nil
}

// lockItemTx acquires the transaction's write lock through the item row,
// so that every availability check that follows sees a serialized view.
// Doubles as the existence check.
func lockItemTx(ctx context.Context, tx *sql.Tx, itemID string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE items SET updated_at = updated_at WHERE id = ?`, itemID,
	)
	if err != nil {
		return fmt.Errorf("locking item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	return nil
}

// checkAvailableTx returns a non-nil conflict if the candidate range
// overlaps any existing booking on the item, or if the item is out of
// circulation (maintenance).
func checkAvailableTx(ctx context.Context, tx *sql.Tx, itemID string, start, end time.Time) (*ItemConflict, error) {
	var name, status string
	err := tx.QueryRowContext(ctx,
		`SELECT name, status FROM items WHERE id = ?`, itemID,
	).Scan(&name, &status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking item: %w", err)
	}

	if status == model.ItemStatusMaintenance {
		return &ItemConflict{ItemID: itemID, ItemName: name, StartDate: start, EndDate: end}, nil
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT start_date, end_date FROM bookings WHERE item_id = ?`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("checking bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookedStart, bookedEnd time.Time
		if err := rows.Scan(&bookedStart, &bookedEnd); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		if interval.Overlaps(bookedStart, bookedEnd, start, end) {
			return &ItemConflict{ItemID: itemID, ItemName: name, StartDate: bookedStart, EndDate: bookedEnd}, nil
		}
	}
	return nil, rows.Err()
}

func attachBookingTx(ctx context.Context, tx *sql.Tx, itemID, reservationID string, start, end time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (item_id, reservation_id, start_date, end_date) VALUES (?, ?, ?, ?)`,
		itemID, reservationID, start, end,
	)
	if err != nil {
		return fmt.Errorf("attaching booking: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET reserved_at = ? WHERE id = ?`,
		time.Now().UTC(), itemID,
	)
	if err != nil {
		return fmt.Errorf("marking item reserved: %w", err)
	}

	return refreshItemStatusTx(ctx, tx, itemID)
}

func detachBookingTx(ctx context.Context, tx *sql.Tx, itemID, reservationID string) error {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM bookings WHERE item_id = ? AND reservation_id = ?`,
		itemID, reservationID,
	)
	if err != nil {
		return fmt.Errorf("detaching booking: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("booking for item %s: %w", itemID, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET returned_at = ? WHERE id = ?`,
		time.Now().UTC(), itemID,
	)
	if err != nil {
		return fmt.Errorf("marking item returned: %w", err)
	}

	return refreshItemStatusTx(ctx, tx, itemID)
}

// refreshItemStatusTx recomputes an item's derived status: maintenance
// if a maintenance record exists, reserved if any booking exists,
// available otherwise.
func refreshItemStatusTx(ctx context.Context, tx *sql.Tx, itemID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE items SET
		     status = CASE
		         WHEN EXISTS (SELECT 1 FROM maintenance WHERE item_id = items.id) THEN 'maintenance'
		         WHEN EXISTS (SELECT 1 FROM bookings WHERE item_id = items.id) THEN 'reserved'
		         ELSE 'available'
		     END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, itemID,
	)
	if err != nil {
		return fmt.Errorf("refreshing item status: %w", err)
	}
	return nil
}
