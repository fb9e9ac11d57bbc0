package domain

import "time"

type Invitation struct {
	ID          int64     `db:"id"`
	RoomID      string    `db:"room_id"`
	SenderID    int64     `db:"sender_id"`
	RecipientID int64     `db:"recipient_id"`
	CreatedAt   time.Time `db:"created_at"`
}
