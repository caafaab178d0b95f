package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/izposoja/internal/model"
)

// sendToMaintenanceTx snapshots an item into the maintenance pool with
// the reported defect. The caller detaches the item's booking in the
// same transaction.
func sendToMaintenanceTx(ctx context.Context, tx *sql.Tx, item *model.Item, info string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO maintenance (item_id, name, category, manufacturer_url, item_info, info)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (item_id) DO UPDATE SET info = excluded.info`,
		item.ID, item.Name, item.Category, item.ManufacturerURL, item.Info, info,
	)
	if err != nil {
		return fmt.Errorf("creating maintenance record: %w", err)
	}
	return nil
}

// RestoreAvailability deletes an item's maintenance record and returns
// the item to the bookable pool. If no record exists the call reports
// NotFound, so repeated restores fail rather than silently succeed.
func RestoreAvailability(ctx context.Context, db *sql.DB, itemID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM maintenance WHERE item_id = ?`, itemID,
	)
	if err != nil {
		return fmt.Errorf("deleting maintenance record: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("maintenance record for item %s: %w", itemID, ErrNotFound)
	}

	if err := refreshItemStatusTx(ctx, tx, itemID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing restore: %w", err)
	}
	return nil
}

// GetMaintenanceRecord returns the maintenance record for an item, or
// nil if the item is not in maintenance.
func GetMaintenanceRecord(ctx context.Context, db *sql.DB, itemID string) (*model.MaintenanceRecord, error) {
	rec := &model.MaintenanceRecord{}
	err := db.QueryRowContext(ctx,
		`SELECT item_id, name, category, manufacturer_url, item_info, info, created_at
		 FROM maintenance WHERE item_id = ?`, itemID,
	).Scan(&rec.ItemID, &rec.Name, &rec.Category, &rec.ManufacturerURL, &rec.ItemInfo, &rec.Info, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting maintenance record: %w", err)
	}
	return rec, nil
}

// ListMaintenance returns all items currently in maintenance.
func ListMaintenance(ctx context.Context, db *sql.DB) ([]model.MaintenanceRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT item_id, name, category, manufacturer_url, item_info, info, created_at
		 FROM maintenance ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance records: %w", err)
	}
	defer rows.Close()

	var records []model.MaintenanceRecord
	for rows.Next() {
		var rec model.MaintenanceRecord
		if err := rows.Scan(&rec.ItemID, &rec.Name, &rec.Category, &rec.ManufacturerURL,
			&rec.ItemInfo, &rec.Info, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning maintenance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
