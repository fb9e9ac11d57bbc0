package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrNotInRoom      = errors.New("user not in the room")
	ErrNotOwner       = errors.New("only the room owner can do this")
	ErrKickSelf       = errors.New("owner cannot kick themselves")
	ErrVideoNotFound  = errors.New("video not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrMessageTooLong = errors.New("message too long (max 500 characters)")
	ErrNameTooLong    = errors.New("room name too long (max 100 characters)")
)

// RateLimitError несёт остаток кулдауна до следующего сообщения.
type RateLimitError struct {
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("please wait %d seconds before sending another message", e.RemainingSeconds())
}

// RemainingSeconds — остаток в целых секундах, округление вверх.
func (e *RateLimitError) RemainingSeconds() int {
	s := int((e.Remaining + time.Second - 1) / time.Second)
	if s < 0 {
		return 0
	}
	return s
}
