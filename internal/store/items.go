package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/izposoja/internal/model"
)

// NormalizeManufacturerURL ensures the manufacturer URL carries a scheme
// prefix. Values that do not already start with "https://www." get it
// prepended. Empty values stay empty.
func NormalizeManufacturerURL(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "https://www.") {
		return raw
	}
	return "https://www." + raw
}

// CreateItem creates a new item in the available state.
func CreateItem(ctx context.Context, db *sql.DB, name, category, manufacturerURL, info string) (*model.Item, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: item name required", ErrInvalidInput)
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, name, category, manufacturer_url, info) VALUES (?, ?, ?, ?, ?)`,
		id, name, category, NormalizeManufacturerURL(manufacturerURL), info,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, without its bookings.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT id, name, category, manufacturer_url, info, status, reserved_at, returned_at, created_at, updated_at
		 FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItemWithBookings returns an item by ID including its active
// reservation windows.
func GetItemWithBookings(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item, err := GetItem(ctx, db, id)
	if err != nil || item == nil {
		return item, err
	}

	bookings, err := ItemBookings(ctx, db, id)
	if err != nil {
		return nil, err
	}
	item.Bookings = bookings
	return item, nil
}

// ItemBookings returns all active reservation windows touching an item.
func ItemBookings(ctx context.Context, db *sql.DB, itemID string) ([]model.BookingRef, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT reservation_id, start_date, end_date FROM bookings WHERE item_id = ? ORDER BY start_date`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.BookingRef
	for rows.Next() {
		var b model.BookingRef
		if err := rows.Scan(&b.ReservationID, &b.StartDate, &b.EndDate); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ListItems returns items, optionally filtered by status, category and a
// name substring search.
func ListItems(ctx context.Context, db *sql.DB, status, category, search string) ([]model.Item, error) {
	query := `SELECT id, name, category, manufacturer_url, info, status, reserved_at, returned_at, created_at, updated_at
	          FROM items WHERE 1=1`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if search != "" {
		query += ` AND instr(lower(name), lower(?)) > 0`
		args = append(args, search)
	}

	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's descriptive fields.
func UpdateItem(ctx context.Context, db *sql.DB, id, name, category, manufacturerURL, info string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, manufacturer_url = ?, info = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, category, NormalizeManufacturerURL(manufacturerURL), info, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("updating item: %w", ErrNotFound)
	}
	return nil
}

// getItemTx reads an item inside an open transaction.
func getItemTx(ctx context.Context, tx *sql.Tx, id string) (*model.Item, error) {
	item, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT id, name, category, manufacturer_url, info, status, reserved_at, returned_at, created_at, updated_at
		 FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var reservedAt, returnedAt sql.NullTime
	err := s.Scan(&item.ID, &item.Name, &item.Category, &item.ManufacturerURL, &item.Info,
		&item.Status, &reservedAt, &returnedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reservedAt.Valid {
		item.ReservedAt = &reservedAt.Time
	}
	if returnedAt.Valid {
		item.ReturnedAt = &returnedAt.Time
	}
	return item, nil
}
