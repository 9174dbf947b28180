package models

import "time"

type Team struct {
	ID        int       `json:"id" db:"id"`
	RoomID    int       `json:"room_id" db:"room_id"`
	Name      string    `json:"name" db:"name"`
	MemberIDs []int     `json:"member_ids" db:"member_ids"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members []Participant `json:"members,omitempty" db:"-"`
}
