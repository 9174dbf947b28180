package models

import "time"

// Participant is a roster entry of a room. Accounts live outside this system,
// ExternalRef optionally links the entry to one.
type Participant struct {
	ID          int       `json:"id" db:"id"`
	RoomID      int       `json:"room_id" db:"room_id"`
	Name        string    `json:"name" db:"name"`
	ExternalRef *string   `json:"external_ref,omitempty" db:"external_ref"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
