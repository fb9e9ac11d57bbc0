package http

import "time"

type ErrorResponse struct {
	Error         string `json:"error"`
	RetryAfterSec int    `json:"retry_after_sec,omitempty"`
}

type CreateRoomRequest struct {
	VideoID         int64  `json:"video_id"`
	Name            string `json:"name"`
	MaxParticipants *int64 `json:"max_participants"`
}

type RoomItem struct {
	ID              string            `json:"id"`
	OwnerID         int64             `json:"owner_id"`
	VideoID         int64             `json:"video_id"`
	Name            string            `json:"name,omitempty"`
	MaxParticipants *int64            `json:"max_participants"` // null — без лимита
	MessageDelay    int               `json:"message_delay"`
	CurrentPosition int               `json:"current_position"`
	IsPlaying       bool              `json:"is_playing"`
	LastActivity    time.Time         `json:"last_activity"`
	CreatedAt       time.Time         `json:"created_at"`
	Participants    []ParticipantItem `json:"participants,omitempty"`
}

type RoomsListResponse struct {
	Items      []RoomItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type ParticipantItem struct {
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type ParticipantsResponse struct {
	Items []ParticipantItem `json:"items"`
}

type JoinRoomResponse struct {
	RoomID   string    `json:"room_id"`
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type InviteRequest struct {
	UserID int64 `json:"user_id"`
}

type InvitationItem struct {
	ID          int64     `json:"id"`
	RoomID      string    `json:"room_id"`
	SenderID    int64     `json:"inviter_id"`
	RecipientID int64     `json:"invitee_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatPostRequest struct {
	Message string `json:"message"`
}

type ChatMessageItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	Items []ChatMessageItem `json:"items"`
}
