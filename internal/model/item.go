package model

import "time"

// Item represents a single physical piece of equipment.
type Item struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Category        string     `json:"category,omitempty"`
	ManufacturerURL string     `json:"manufacturer_url,omitempty"`
	Info            string     `json:"info,omitempty"`
	Status          string     `json:"status"`
	ReservedAt      *time.Time `json:"reserved_at,omitempty"`
	ReturnedAt      *time.Time `json:"returned_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Active reservation windows touching this item (not always populated).
	Bookings []BookingRef `json:"bookings,omitempty"`
}

// Available reports whether the item can accept new bookings at all.
func (i *Item) Available() bool {
	return i.Status == ItemStatusAvailable
}

// BookingRef links an item to an active reservation for a date range.
type BookingRef struct {
	ReservationID string    `json:"reservation_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// Item statuses.
const (
	ItemStatusAvailable   = "available"
	ItemStatusReserved    = "reserved"
	ItemStatusMaintenance = "maintenance"
)

// MaintenanceRecord is a snapshot of an item taken when it was pulled out
// of circulation, plus the reported defect. It exists only while the item
// is in maintenance.
type MaintenanceRecord struct {
	ItemID          string    `json:"item_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category,omitempty"`
	ManufacturerURL string    `json:"manufacturer_url,omitempty"`
	ItemInfo        string    `json:"item_info,omitempty"`
	Info            string    `json:"info"`
	CreatedAt       time.Time `json:"created_at"`
}
