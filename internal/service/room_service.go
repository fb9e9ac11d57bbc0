package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/cwrk-planet/watch-service/internal/domain"
)

type RoomService struct {
	roomRepo    RoomRepo
	catalogRepo CatalogRepo
	sweeper     *Sweeper

	defaultMax int64
}

func NewRoomService(roomRepo RoomRepo, catalogRepo CatalogRepo, sweeper *Sweeper, defaultMax int64) *RoomService {
	if defaultMax <= 0 {
		defaultMax = 10
	}
	return &RoomService{
		roomRepo:    roomRepo,
		catalogRepo: catalogRepo,
		sweeper:     sweeper,
		defaultMax:  defaultMax,
	}
}

// CreateRoom создаёт комнату под конкретное видео; владелец сразу становится участником.
// Если лимит не указан: подписчикам канала — без лимита, остальным — дефолт.
func (s *RoomService) CreateRoom(ctx context.Context, ownerID, videoID int64, name string, maxParticipants *int64) (*domain.Room, error) {
	if utf8.RuneCountInString(name) > 100 {
		return nil, domain.ErrNameTooLong
	}

	video, err := s.catalogRepo.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	max := maxParticipants
	if max == nil {
		subscribed, err := s.catalogRepo.HasSubscription(ctx, ownerID, video.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("check subscription: %w", err)
		}
		if !subscribed {
			def := s.defaultMax
			max = &def
		}
	} else if *max <= 0 {
		def := s.defaultMax
		max = &def
	}

	room := &domain.Room{
		OwnerID:         ownerID,
		VideoID:         videoID,
		Name:            name,
		MaxParticipants: max,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("roomRepo.Create: %w", err)
	}
	return room, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.roomRepo.Get(ctx, id)
}

// ListRooms прогоняет реклейм-свип и возвращает список с курсорной пагинацией.
// Ошибка свипа не валит листинг.
func (s *RoomService) ListRooms(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	if s.sweeper != nil {
		if err := s.sweeper.Sweep(ctx); err != nil {
			slog.Warn("room sweep failed", "err", err)
		}
	}

	return s.roomRepo.List(ctx, limit, cursor)
}

// DeleteRoom доступен владельцу комнаты и админам.
func (s *RoomService) DeleteRoom(ctx context.Context, id string, requester *domain.Identity) error {
	room, err := s.roomRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if room.OwnerID != requester.UserID && !requester.IsAdmin {
		return domain.ErrNotOwner
	}
	return s.roomRepo.Delete(ctx, id)
}
