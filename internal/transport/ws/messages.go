package ws

// Входящие команды канала — закрытое множество; всё, что не отсюда, игнорируется.
const (
	TypeJoinRoom    = "join_room"
	TypeLeaveRoom   = "leave_room_event"
	TypePlay        = "play"
	TypePause       = "pause"
	TypeSeek        = "seek"
	TypeChatMessage = "chat_message"
	TypeSyncRequest = "sync_request"
)

// Исходящие события.
const (
	TypeConnected   = "connected"
	TypeRoomState   = "room_state"
	TypeUserJoined  = "user_joined"
	TypeUserLeft    = "user_left"
	TypePlayEvent   = "play_event"
	TypePauseEvent  = "pause_event"
	TypeSeekEvent   = "seek_event"
	TypeChatEvent   = "chat_message_event"
	TypeStateSync   = "state_sync"
	TypeKicked      = "kicked"
	TypeError       = "error"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// --- client -> server ---

type JoinPayload struct {
	RoomID string `json:"room_id"`
	Token  string `json:"token"`
}

type RoomRefPayload struct {
	RoomID string `json:"room_id"`
}

type PlaybackPayload struct {
	RoomID   string `json:"room_id"`
	Position int    `json:"position"`
}

type ChatSendPayload struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

// --- server -> client ---

type ConnectedPayload struct {
	SID string `json:"sid"`
}

type RoomStatePayload struct {
	RoomID          string                 `json:"room_id"`
	VideoID         int64                  `json:"video_id"`
	OwnerID         int64                  `json:"owner_id"`
	CurrentPosition int                    `json:"current_position"`
	IsPlaying       bool                   `json:"is_playing"`
	Participants    []ParticipantStateItem `json:"participants"`
}

type ParticipantStateItem struct {
	UserID   int64 `json:"user_id"`
	JoinedAt int64 `json:"joined_at_unix"`
}

type UserEventPayload struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	TSUnix      int64  `json:"ts_unix"`
}

type PlaybackEventPayload struct {
	Position int   `json:"position"`
	TSUnix   int64 `json:"ts_unix"`
}

type ChatEventPayload struct {
	MessageID   int64  `json:"message_id"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Message     string `json:"message"`
	TSUnix      int64  `json:"ts_unix"`
}

type StateSyncPayload struct {
	Position  int   `json:"position"`
	IsPlaying bool  `json:"is_playing"`
	TSUnix    int64 `json:"ts_unix"`
}

type KickedPayload struct {
	RoomID string `json:"room_id"`
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
	TSUnix int64  `json:"ts_unix"`
}

type ErrorPayload struct {
	Message       string `json:"message"`
	RetryAfterSec int    `json:"retry_after_sec,omitempty"`
}
