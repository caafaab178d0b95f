package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a referenced item, reservation or user
// does not exist, so HTTP handlers can respond with 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned for malformed requests (empty item sets,
// missing fields) before any mutation happens.
var ErrInvalidInput = errors.New("invalid input")

// ItemConflict names one item that could not be booked and the window
// already occupying it.
type ItemConflict struct {
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ConflictError is returned when a requested booking would double-book
// one or more items. It is an expected, recoverable outcome: the caller
// shows the conflicting items and date ranges to the user.
type ConflictError struct {
	Items []ItemConflict
}

func (e *ConflictError) Error() string {
	if len(e.Items) == 0 {
		return "booking conflict"
	}
	parts := make([]string, len(e.Items))
	for i, c := range e.Items {
		parts[i] = fmt.Sprintf("%s (%s to %s)",
			c.ItemName, c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"))
	}
	return "booking conflict: " + strings.Join(parts, ", ")
}

// IsConflict reports whether err is a booking conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
