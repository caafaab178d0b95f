package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/izposoja/internal/interval"
	"github.com/erazemk/izposoja/internal/model"
)

// CreateReservation creates a reservation for the given items and date
// range. All-or-nothing: if any item is unavailable for the range, no
// item is booked and a ConflictError names every offending item.
func CreateReservation(ctx context.Context, db *sql.DB, name, ownerID string, start, end time.Time, itemIDs []string) (*model.Reservation, error) {
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("%w: no items selected", ErrInvalidInput)
	}

	start = interval.Day(start)
	end = interval.Day(end)
	if end.Before(start) {
		end = start
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Insert first: the write acquires the transaction lock, so the
	// availability checks below see a serialized view. The name is
	// resolved afterwards inside the same transaction.
	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (id, name, owner_id, start_date, end_date) VALUES (?, '', ?, ?, ?)`,
		id, ownerID, start, end,
	); err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}

	resolved, err := resolveReservationNameTx(ctx, tx, id, name, ownerID, start)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET name = ? WHERE id = ?`, resolved, id,
	); err != nil {
		return nil, fmt.Errorf("naming reservation: %w", err)
	}

	var conflicts []ItemConflict
	for _, itemID := range itemIDs {
		conflict, err := checkAvailableTx(ctx, tx, itemID, start, end)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Items: conflicts}
	}

	for _, itemID := range itemIDs {
		if err := attachBookingTx(ctx, tx, itemID, id, start, end); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reservation: %w", err)
	}

	return GetReservation(ctx, db, id)
}

// resolveReservationName synthesizes a default name when none was given
// and deduplicates against existing reservation names. Existing names
// that contain the candidate (case-insensitive) count as collisions and
// append ", <count>".
func resolveReservationNameTx(ctx context.Context, tx *sql.Tx, reservationID, name, ownerID string, start time.Time) (string, error) {
	if name == "" {
		var username string
		err := tx.QueryRowContext(ctx,
			`SELECT username FROM users WHERE id = ?`, ownerID,
		).Scan(&username)
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("owner %s: %w", ownerID, ErrNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("looking up owner: %w", err)
		}
		name = fmt.Sprintf("%d.%d.%d %s", start.Day(), int(start.Month()), start.Year(), username)
	}

	var collisions int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE id != ? AND instr(lower(name), lower(?)) > 0`,
		reservationID, name,
	).Scan(&collisions)
	if err != nil {
		return "", fmt.Errorf("checking name collisions: %w", err)
	}
	if collisions > 0 {
		name = fmt.Sprintf("%s, %d", name, collisions)
	}
	return name, nil
}

// AddItems attaches further items to an existing reservation for its
// date range, with the same all-or-nothing availability check as
// creation.
func AddItems(ctx context.Context, db *sql.DB, reservationID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return fmt.Errorf("%w: no items selected", ErrInvalidInput)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := lockReservationTx(ctx, tx, reservationID)
	if err != nil {
		return err
	}

	var conflicts []ItemConflict
	for _, itemID := range itemIDs {
		conflict, err := checkAvailableTx(ctx, tx, itemID, res.StartDate, res.EndDate)
		if err != nil {
			return err
		}
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Items: conflicts}
	}

	for _, itemID := range itemIDs {
		if err := attachBookingTx(ctx, tx, itemID, reservationID, res.StartDate, res.EndDate); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing added items: %w", err)
	}
	return nil
}

// ReturnItems returns items from a reservation: each returned item is
// archived into the reservation's historical record and its booking
// detached. When the last item is returned the reservation closes and
// its active record is removed.
func ReturnItems(ctx context.Context, db *sql.DB, reservationID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return fmt.Errorf("%w: no items selected", ErrInvalidInput)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := lockReservationTx(ctx, tx, reservationID)
	if err != nil {
		return err
	}

	if err := ensurePastReservationTx(ctx, tx, res); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, itemID := range itemIDs {
		item, err := getItemTx(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
		}
		if err := archiveItemTx(ctx, tx, reservationID, item, now); err != nil {
			return err
		}
		if err := detachBookingTx(ctx, tx, itemID, reservationID); err != nil {
			return err
		}
	}

	if err := closeReservationIfEmptyTx(ctx, tx, reservationID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing return: %w", err)
	}
	return nil
}

// ReturnAll returns every item of each listed reservation and deletes
// the reservation records. Unlike single-item returns this does not
// create historical records; unknown ids are skipped.
func ReturnAll(ctx context.Context, db *sql.DB, reservationIDs []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, reservationID := range reservationIDs {
		itemIDs, err := reservationItemIDsTx(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		for _, itemID := range itemIDs {
			if err := detachBookingTx(ctx, tx, itemID, reservationID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM reservations WHERE id = ?`, reservationID,
		); err != nil {
			return fmt.Errorf("deleting reservation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bulk return: %w", err)
	}
	return nil
}

// SendItemsToMaintenance pulls items out of a reservation into the
// maintenance pool: the items are archived like a normal return, their
// bookings for this reservation detached, and a maintenance record with
// the defect description created for each.
func SendItemsToMaintenance(ctx context.Context, db *sql.DB, reservationID string, itemIDs []string, info string) error {
	if len(itemIDs) == 0 {
		return fmt.Errorf("%w: no items selected", ErrInvalidInput)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := lockReservationTx(ctx, tx, reservationID)
	if err != nil {
		return err
	}

	if err := ensurePastReservationTx(ctx, tx, res); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, itemID := range itemIDs {
		item, err := getItemTx(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
		}
		if err := archiveItemTx(ctx, tx, reservationID, item, now); err != nil {
			return err
		}
		if err := sendToMaintenanceTx(ctx, tx, item, info); err != nil {
			return err
		}
		if err := detachBookingTx(ctx, tx, itemID, reservationID); err != nil {
			return err
		}
	}

	if err := closeReservationIfEmptyTx(ctx, tx, reservationID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing maintenance transfer: %w", err)
	}
	return nil
}

// GetReservation returns a reservation with its item ids and owner
// username populated.
func GetReservation(ctx context.Context, db *sql.DB, id string) (*model.Reservation, error) {
	res := &model.Reservation{}
	err := db.QueryRowContext(ctx,
		`SELECT r.id, r.name, r.owner_id, r.start_date, r.end_date, r.status, r.created_at, u.username
		 FROM reservations r
		 JOIN users u ON u.id = r.owner_id
		 WHERE r.id = ?`, id,
	).Scan(&res.ID, &res.Name, &res.OwnerID, &res.StartDate, &res.EndDate, &res.Status, &res.CreatedAt, &res.OwnerUsername)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT item_id FROM bookings WHERE reservation_id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reservation items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			return nil, fmt.Errorf("scanning reservation item: %w", err)
		}
		res.ItemIDs = append(res.ItemIDs, itemID)
	}
	return res, rows.Err()
}

// ListReservations returns active reservations with item ids populated,
// optionally filtered by owner.
func ListReservations(ctx context.Context, db *sql.DB, ownerID string) ([]model.Reservation, error) {
	query := `SELECT r.id, r.name, r.owner_id, r.start_date, r.end_date, r.status, r.created_at, u.username
	          FROM reservations r
	          JOIN users u ON u.id = r.owner_id`
	var args []any
	if ownerID != "" {
		query += ` WHERE r.owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY r.start_date, r.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	index := map[string]int{}
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.Name, &res.OwnerID, &res.StartDate, &res.EndDate,
			&res.Status, &res.CreatedAt, &res.OwnerUsername); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		index[res.ID] = len(reservations)
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	bookingRows, err := db.QueryContext(ctx, `SELECT reservation_id, item_id FROM bookings`)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer bookingRows.Close()

	for bookingRows.Next() {
		var reservationID, itemID string
		if err := bookingRows.Scan(&reservationID, &itemID); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		if i, ok := index[reservationID]; ok {
			reservations[i].ItemIDs = append(reservations[i].ItemIDs, itemID)
		}
	}
	return reservations, bookingRows.Err()
}

// lockReservationTx write-locks a reservation row and returns it.
func lockReservationTx(ctx context.Context, tx *sql.Tx, reservationID string) (*model.Reservation, error) {
	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET name = name WHERE id = ?`, reservationID,
	)
	if err != nil {
		return nil, fmt.Errorf("locking reservation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}

	res := &model.Reservation{}
	err = tx.QueryRowContext(ctx,
		`SELECT r.id, r.name, r.owner_id, r.start_date, r.end_date, r.status, r.created_at, u.username
		 FROM reservations r
		 JOIN users u ON u.id = r.owner_id
		 WHERE r.id = ?`, reservationID,
	).Scan(&res.ID, &res.Name, &res.OwnerID, &res.StartDate, &res.EndDate, &res.Status, &res.CreatedAt, &res.OwnerUsername)
	if err != nil {
		return nil, fmt.Errorf("reading reservation: %w", err)
	}
	return res, nil
}

func reservationItemIDsTx(ctx context.Context, tx *sql.Tx, reservationID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT item_id FROM bookings WHERE reservation_id = ?`, reservationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reservation items: %w", err)
	}
	defer rows.Close()

	var itemIDs []string
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			return nil, fmt.Errorf("scanning reservation item: %w", err)
		}
		itemIDs = append(itemIDs, itemID)
	}
	return itemIDs, rows.Err()
}

// closeReservationIfEmptyTx deletes the active reservation record once
// its last booking is gone. The historical record, if any, remains.
func closeReservationIfEmptyTx(ctx context.Context, tx *sql.Tx, reservationID string) error {
	var remaining int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE reservation_id = ?`, reservationID,
	).Scan(&remaining)
	if err != nil {
		return fmt.Errorf("counting remaining bookings: %w", err)
	}
	if remaining > 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reservations WHERE id = ?`, reservationID,
	); err != nil {
		return fmt.Errorf("closing reservation: %w", err)
	}
	return nil
}
