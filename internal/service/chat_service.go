package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cwrk-planet/watch-service/internal/domain"
)

const maxMessageLen = 500

type ChatService struct {
	roomRepo        RoomRepo
	participantRepo ParticipantRepo
	chatRepo        ChatRepo
	cooldowns       *CooldownTable
}

func NewChatService(roomRepo RoomRepo, participantRepo ParticipantRepo, chatRepo ChatRepo, cooldowns *CooldownTable) *ChatService {
	return &ChatService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		chatRepo:        chatRepo,
		cooldowns:       cooldowns,
	}
}

// Send проводит сообщение через все ворота: членство, валидация, кулдаун.
// Успех обновляет last_message_at участника, last_activity комнаты и кулдаун.
func (s *ChatService) Send(ctx context.Context, roomID string, userID int64, content string) (*domain.ChatMessage, error) {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	in, err := s.participantRepo.Exists(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !in {
		return nil, domain.ErrNotInRoom
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxMessageLen {
		return nil, domain.ErrMessageTooLong
	}

	if room.MessageDelay > 0 {
		delay := time.Duration(room.MessageDelay) * time.Second
		if remaining := s.cooldowns.Remaining(userID, roomID, delay); remaining > 0 {
			return nil, &domain.RateLimitError{Remaining: remaining}
		}
	}

	msg, err := s.chatRepo.Save(ctx, roomID, userID, content)
	if err != nil {
		return nil, err
	}

	s.cooldowns.Touch(userID, roomID)

	// best-effort: сообщение уже сохранено
	if err := s.participantRepo.TouchLastMessage(ctx, roomID, userID, msg.CreatedAt); err != nil {
		slog.Debug("touch last_message_at failed", "room", roomID, "user", userID, "err", err)
	}
	if err := s.roomRepo.TouchActivity(ctx, roomID); err != nil {
		slog.Debug("touch room activity failed", "room", roomID, "err", err)
	}

	return msg, nil
}

func (s *ChatService) History(ctx context.Context, roomID string, afterID int64, limit int) ([]domain.ChatMessage, error) {
	if _, err := s.roomRepo.Get(ctx, roomID); err != nil {
		return nil, err
	}
	return s.chatRepo.History(ctx, roomID, afterID, limit)
}
