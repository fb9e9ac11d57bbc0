package service

import (
	"context"
	"time"

	"github.com/cwrk-planet/watch-service/internal/domain"
	"github.com/cwrk-planet/watch-service/internal/postgres"
	"github.com/cwrk-planet/watch-service/internal/registry"
)

// Интерфейсы хранилища. Реализации живут в internal/postgres;
// в тестах подменяются in-memory фейками.

type RoomRepo interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error)
	Delete(ctx context.Context, id string) error
	TouchActivity(ctx context.Context, id string) error
	SetPlayback(ctx context.Context, id string, position int, playing *bool) error
	DeleteInactive(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteEmpty(ctx context.Context) (int64, error)
}

type ParticipantRepo interface {
	Get(ctx context.Context, roomID string, userID int64) (*domain.Participant, error)
	Exists(ctx context.Context, roomID string, userID int64) (bool, error)
	Join(ctx context.Context, roomID string, userID int64) (*domain.Participant, error)
	Leave(ctx context.Context, roomID string, userID int64) error
	Delete(ctx context.Context, roomID string, userID int64) error
	ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error)
	ListAll(ctx context.Context) ([]postgres.ParticipantActivityRow, error)
	TouchLastMessage(ctx context.Context, roomID string, userID int64, at time.Time) error
}

type ChatRepo interface {
	Save(ctx context.Context, roomID string, userID int64, content string) (*domain.ChatMessage, error)
	History(ctx context.Context, roomID string, afterID int64, limit int) ([]domain.ChatMessage, error)
}

type InviteRepo interface {
	Create(ctx context.Context, roomID string, senderID, recipientID int64) (*domain.Invitation, error)
}

type CatalogRepo interface {
	GetVideo(ctx context.Context, id int64) (*domain.Video, error)
	HasSubscription(ctx context.Context, userID, channelID int64) (bool, error)
}

type UserRepo interface {
	Get(ctx context.Context, id int64) (*domain.Identity, error)
}

// Evictor выкидывает все живые соединения пары (roomID, userID) из broadcast-группы
// комнаты. Реализация живёт на транспортном слое; здесь только контракт, чтобы
// HTTP-kick и self-heal канала сходились в одну точку.
type Evictor interface {
	Evict(roomID string, userID int64, reason string)
}

// NopEvictor — заглушка до момента, когда WS-слой поднимется (и для тестов).
type NopEvictor struct{}

func (NopEvictor) Evict(string, int64, string) {}

// LiveConns — то, что сервисам нужно знать о реестре соединений.
type LiveConns interface {
	LivePairs() map[registry.Pair]struct{}
}
