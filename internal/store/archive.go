package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

// ensurePastReservationTx creates the historical record for a
// reservation on its first return. Later returns reuse it, so the item
// snapshot list accumulates across separate calls.
func ensurePastReservationTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO past_reservations (id, name, owner_id, owner_username, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.ID, res.Name, res.OwnerID, res.OwnerUsername, res.StartDate, res.EndDate,
	)
	if err != nil {
		return fmt.Errorf("creating past reservation: %w", err)
	}
	return nil
}

// archiveItemTx appends a full item snapshot to a reservation's
// historical record. Re-archiving the same item is a no-op so retried
// returns stay idempotent.
func archiveItemTx(ctx context.Context, tx *sql.Tx, reservationID string, item *model.Item, returnedAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO past_reservation_items
		     (past_reservation_id, item_id, name, category, manufacturer_url, info, returned_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reservationID, item.ID, item.Name, item.Category, item.ManufacturerURL, item.Info, returnedAt,
	)
	if err != nil {
		return fmt.Errorf("archiving item: %w", err)
	}
	return nil
}

// GetPastReservation returns a historical reservation with its item
// snapshots.
func GetPastReservation(ctx context.Context, db *sql.DB, id string) (*model.PastReservation, error) {
	past := &model.PastReservation{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, owner_username, start_date, end_date, archived_at
		 FROM past_reservations WHERE id = ?`, id,
	).Scan(&past.ID, &past.Name, &past.OwnerID, &past.OwnerUsername, &past.StartDate, &past.EndDate, &past.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting past reservation: %w", err)
	}

	items, err := pastReservationItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	past.Items = items
	return past, nil
}

// ListPastReservations returns all historical reservations with their
// item snapshots, newest first.
func ListPastReservations(ctx context.Context, db *sql.DB) ([]model.PastReservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, owner_id, owner_username, start_date, end_date, archived_at
		 FROM past_reservations ORDER BY archived_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing past reservations: %w", err)
	}
	defer rows.Close()

	var pasts []model.PastReservation
	for rows.Next() {
		var past model.PastReservation
		if err := rows.Scan(&past.ID, &past.Name, &past.OwnerID, &past.OwnerUsername,
			&past.StartDate, &past.EndDate, &past.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scanning past reservation: %w", err)
		}
		pasts = append(pasts, past)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range pasts {
		items, err := pastReservationItems(ctx, db, pasts[i].ID)
		if err != nil {
			return nil, err
		}
		pasts[i].Items = items
	}
	return pasts, nil
}

func pastReservationItems(ctx context.Context, db *sql.DB, pastID string) ([]model.PastItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT item_id, name, category, manufacturer_url, info, returned_at
		 FROM past_reservation_items WHERE past_reservation_id = ? ORDER BY returned_at, name`,
		pastID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing past reservation items: %w", err)
	}
	defer rows.Close()

	var items []model.PastItem
	for rows.Next() {
		var item model.PastItem
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Category, &item.ManufacturerURL,
			&item.Info, &item.ReturnedAt); err != nil {
			return nil, fmt.Errorf("scanning past item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
