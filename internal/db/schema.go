package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Bookings are a join table between
// items and reservations so that an item's booking list and a
// reservation's item list can never disagree.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    category         TEXT NOT NULL DEFAULT '',
    manufacturer_url TEXT NOT NULL DEFAULT '',
    info             TEXT NOT NULL DEFAULT '',
    status           TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'reserved', 'maintenance')),
    reserved_at      DATETIME,
    returned_at      DATETIME,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS reservations (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    owner_id   TEXT NOT NULL REFERENCES users(id),
    start_date DATETIME NOT NULL,
    end_date   DATETIME NOT NULL,
    status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'closed')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bookings (
    item_id        TEXT NOT NULL REFERENCES items(id),
    reservation_id TEXT NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
    start_date     DATETIME NOT NULL,
    end_date       DATETIME NOT NULL,
    PRIMARY KEY (item_id, reservation_id)
);

CREATE INDEX IF NOT EXISTS idx_bookings_reservation ON bookings(reservation_id);

CREATE TABLE IF NOT EXISTS past_reservations (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    owner_id       TEXT NOT NULL,
    owner_username TEXT NOT NULL DEFAULT '',
    start_date     DATETIME NOT NULL,
    end_date       DATETIME NOT NULL,
    archived_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS past_reservation_items (
    past_reservation_id TEXT NOT NULL REFERENCES past_reservations(id),
    item_id             TEXT NOT NULL,
    name                TEXT NOT NULL,
    category            TEXT NOT NULL DEFAULT '',
    manufacturer_url    TEXT NOT NULL DEFAULT '',
    info                TEXT NOT NULL DEFAULT '',
    returned_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (past_reservation_id, item_id)
);

CREATE TABLE IF NOT EXISTS maintenance (
    item_id          TEXT PRIMARY KEY REFERENCES items(id),
    name             TEXT NOT NULL,
    category         TEXT NOT NULL DEFAULT '',
    manufacturer_url TEXT NOT NULL DEFAULT '',
    item_info        TEXT NOT NULL DEFAULT '',
    info             TEXT NOT NULL DEFAULT '',
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
