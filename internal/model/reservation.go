package model

import "time"

// Reservation represents an active set of items reserved for a date range.
// Closed reservations exist only as PastReservation records.
type Reservation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// Ids of items currently attached (not always populated).
	ItemIDs []string `json:"item_ids,omitempty"`

	// Joined field (not always populated).
	OwnerUsername string `json:"owner_username,omitempty"`
}

// Reservation statuses.
const (
	ReservationStatusActive = "active"
	ReservationStatusClosed = "closed"
)

// PastReservation is the immutable historical record of a reservation,
// accumulated item by item as returns happen.
type PastReservation struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	OwnerID       string     `json:"owner_id"`
	OwnerUsername string     `json:"owner_username,omitempty"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	ArchivedAt    time.Time  `json:"archived_at"`
	Items         []PastItem `json:"items,omitempty"`
}

// PastItem is a full item snapshot taken at return time.
type PastItem struct {
	ItemID          string    `json:"item_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category,omitempty"`
	ManufacturerURL string    `json:"manufacturer_url,omitempty"`
	Info            string    `json:"info,omitempty"`
	ReturnedAt      time.Time `json:"returned_at"`
}
