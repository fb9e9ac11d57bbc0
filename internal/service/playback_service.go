package service

import (
	"context"

	"github.com/cwrk-planet/watch-service/internal/domain"
)

const ReasonNotParticipant = "not_participant"

// PlaybackService — state machine плеера комнаты {position, playing}.
// Мутации доступны только владельцу комнаты.
type PlaybackService struct {
	roomRepo        RoomRepo
	participantRepo ParticipantRepo
	evictor         Evictor
}

func NewPlaybackService(roomRepo RoomRepo, participantRepo ParticipantRepo) *PlaybackService {
	return &PlaybackService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		evictor:         NopEvictor{},
	}
}

func (s *PlaybackService) SetEvictor(e Evictor) {
	if e != nil {
		s.evictor = e
	}
}

func (s *PlaybackService) Play(ctx context.Context, roomID string, userID int64, position int) error {
	playing := true
	return s.control(ctx, roomID, userID, position, &playing)
}

func (s *PlaybackService) Pause(ctx context.Context, roomID string, userID int64, position int) error {
	playing := false
	return s.control(ctx, roomID, userID, position, &playing)
}

// Seek двигает позицию, не трогая флаг воспроизведения.
func (s *PlaybackService) Seek(ctx context.Context, roomID string, userID int64, position int) error {
	return s.control(ctx, roomID, userID, position, nil)
}

func (s *PlaybackService) control(ctx context.Context, roomID string, userID int64, position int, playing *bool) error {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return err
	}

	// Участника могли кикнуть, а сокет остался подключенным — такое соединение
	// не должно мутировать состояние. Чиним само себя эвикцией.
	in, err := s.participantRepo.Exists(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !in {
		s.evictor.Evict(roomID, userID, ReasonNotParticipant)
		return domain.ErrNotInRoom
	}

	if room.OwnerID != userID {
		return domain.ErrNotOwner
	}

	if position < 0 {
		position = 0
	}
	return s.roomRepo.SetPlayback(ctx, roomID, position, playing)
}

// Sync отдаёт текущее состояние плеера; доступен любому, ответ — только запросившему.
func (s *PlaybackService) Sync(ctx context.Context, roomID string) (position int, playing bool, err error) {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return 0, false, err
	}
	return room.CurrentPosition, room.IsPlaying, nil
}
