package domain

import "time"

type Room struct {
	ID              string     `db:"id"`
	OwnerID         int64      `db:"owner_id"`
	VideoID         int64      `db:"video_id"`
	Name            string     `db:"name"`
	MaxParticipants *int64     `db:"max_participants"` // nil — без лимита
	MessageDelay    int        `db:"message_delay"`    // секунды, 0 — без кулдауна
	CurrentPosition int        `db:"current_position"`
	IsPlaying       bool       `db:"is_playing"`
	LastActivity    time.Time  `db:"last_activity"`
	CreatedAt       time.Time  `db:"created_at"`
}
