package service

import (
	"context"

	"github.com/cwrk-planet/watch-service/internal/domain"
)

const ReasonKickedByHost = "kicked_by_host"

type MemberService struct {
	roomRepo        RoomRepo
	participantRepo ParticipantRepo
	inviteRepo      InviteRepo
	userRepo        UserRepo
	evictor         Evictor
}

func NewMemberService(roomRepo RoomRepo, participantRepo ParticipantRepo, inviteRepo InviteRepo, userRepo UserRepo) *MemberService {
	return &MemberService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		inviteRepo:      inviteRepo,
		userRepo:        userRepo,
		evictor:         NopEvictor{},
	}
}

// SetEvictor подключает WS-слой после его создания (разрыв циклической зависимости
// при сборке в main).
func (s *MemberService) SetEvictor(e Evictor) {
	if e != nil {
		s.evictor = e
	}
}

// JoinRoom идемпотентен: повторный join возвращает существующую запись.
// Проверка лимита и вставка выполняются репозиторием в одной транзакции.
func (s *MemberService) JoinRoom(ctx context.Context, roomID string, userID int64) (*domain.Participant, error) {
	return s.participantRepo.Join(ctx, roomID, userID)
}

func (s *MemberService) LeaveRoom(ctx context.Context, roomID string, userID int64) error {
	return s.participantRepo.Leave(ctx, roomID, userID)
}

// KickUser — только владелец, не себя. Запись участника удаляется durable до
// уведомления: даже если живого соединения нет, kick состоялся.
func (s *MemberService) KickUser(ctx context.Context, roomID string, requesterID, targetID int64) error {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerID != requesterID {
		return domain.ErrNotOwner
	}
	if targetID == requesterID {
		return domain.ErrKickSelf
	}

	if err := s.participantRepo.Delete(ctx, roomID, targetID); err != nil {
		return err
	}

	// best-effort: соединения может вообще не быть
	s.evictor.Evict(roomID, targetID, ReasonKickedByHost)
	return nil
}

// InviteUser: приглашающий должен сам быть в комнате, приглашаемый — существовать.
// Повторное приглашение возвращает существующую запись.
func (s *MemberService) InviteUser(ctx context.Context, roomID string, senderID, recipientID int64) (*domain.Invitation, error) {
	if _, err := s.roomRepo.Get(ctx, roomID); err != nil {
		return nil, err
	}
	in, err := s.participantRepo.Exists(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}
	if !in {
		return nil, domain.ErrNotInRoom
	}
	if _, err := s.userRepo.Get(ctx, recipientID); err != nil {
		return nil, err
	}

	return s.inviteRepo.Create(ctx, roomID, senderID, recipientID)
}

func (s *MemberService) ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error) {
	return s.participantRepo.ListByRoom(ctx, roomID)
}

func (s *MemberService) IsParticipant(ctx context.Context, roomID string, userID int64) (bool, error) {
	return s.participantRepo.Exists(ctx, roomID, userID)
}
