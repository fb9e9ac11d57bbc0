package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cwrk-planet/watch-service/internal/domain"
	"github.com/cwrk-planet/watch-service/internal/postgres"
	"github.com/cwrk-planet/watch-service/internal/registry"
)

// memStore — in-memory реализация всех репозиториев с теми же контрактами,
// что и postgres-слой (идемпотентный join, лимит, удаление пустой комнаты).
type memStore struct {
	mu sync.Mutex

	rooms   map[string]*domain.Room
	parts   map[string]map[int64]*domain.Participant
	msgs    []domain.ChatMessage
	invites map[string]map[int64]*domain.Invitation
	videos  map[int64]*domain.Video
	subs    map[[2]int64]bool // (userID, channelID)
	users   map[int64]*domain.Identity

	nextRoomID int
	nextMsgID  int64
	nextInvID  int64

	now func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		rooms:   make(map[string]*domain.Room),
		parts:   make(map[string]map[int64]*domain.Participant),
		invites: make(map[string]map[int64]*domain.Invitation),
		videos:  make(map[int64]*domain.Video),
		subs:    make(map[[2]int64]bool),
		users:   make(map[int64]*domain.Identity),
		now:     time.Now,
	}
}

// --- RoomRepo ---

func (m *memStore) Create(_ context.Context, room *domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRoomID++
	room.ID = fmt.Sprintf("room-%d", m.nextRoomID)
	room.CreatedAt = m.now()
	room.LastActivity = m.now()
	cp := *room
	m.rooms[room.ID] = &cp
	m.parts[room.ID] = map[int64]*domain.Participant{
		room.OwnerID: {RoomID: room.ID, UserID: room.OwnerID, JoinedAt: m.now()},
	}
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *rm
	return &cp, nil
}

func (m *memStore) List(_ context.Context, _ int, _ string) ([]domain.Room, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Room
	for _, rm := range m.rooms {
		out = append(out, *rm)
	}
	return out, "", nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	delete(m.parts, id)
	return nil
}

func (m *memStore) TouchActivity(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rm, ok := m.rooms[id]; ok {
		rm.LastActivity = m.now()
	}
	return nil
}

func (m *memStore) SetPlayback(_ context.Context, id string, position int, playing *bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	rm.CurrentPosition = position
	if playing != nil {
		rm.IsPlaying = *playing
	}
	rm.LastActivity = m.now()
	return nil
}

func (m *memStore) DeleteInactive(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rm := range m.rooms {
		if rm.LastActivity.Before(cutoff) {
			delete(m.rooms, id)
			delete(m.parts, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteEmpty(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id := range m.rooms {
		if len(m.parts[id]) == 0 {
			delete(m.rooms, id)
			delete(m.parts, id)
			n++
		}
	}
	return n, nil
}

// --- ParticipantRepo ---

func (m *memStore) GetParticipant(ctx context.Context, roomID string, userID int64) (*domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.parts[roomID][userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotInRoom
}

func (m *memStore) Exists(_ context.Context, roomID string, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.parts[roomID][userID]
	return ok, nil
}

func (m *memStore) Join(_ context.Context, roomID string, userID int64) (*domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if p, ok := m.parts[roomID][userID]; ok {
		cp := *p
		return &cp, nil
	}
	if rm.MaxParticipants != nil && int64(len(m.parts[roomID])) >= *rm.MaxParticipants {
		return nil, domain.ErrRoomFull
	}
	p := &domain.Participant{RoomID: roomID, UserID: userID, JoinedAt: m.now()}
	if m.parts[roomID] == nil {
		m.parts[roomID] = make(map[int64]*domain.Participant)
	}
	m.parts[roomID][userID] = p
	rm.LastActivity = m.now()
	cp := *p
	return &cp, nil
}

func (m *memStore) Leave(_ context.Context, roomID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parts[roomID][userID]; !ok {
		return domain.ErrNotInRoom
	}
	delete(m.parts[roomID], userID)
	if len(m.parts[roomID]) == 0 {
		delete(m.rooms, roomID)
		delete(m.parts, roomID)
	}
	return nil
}

func (m *memStore) DeleteParticipant(_ context.Context, roomID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parts[roomID][userID]; !ok {
		return domain.ErrNotInRoom
	}
	delete(m.parts[roomID], userID)
	return nil
}

func (m *memStore) ListByRoom(_ context.Context, roomID string) ([]domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Participant
	for _, p := range m.parts[roomID] {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) ListAll(_ context.Context) ([]postgres.ParticipantActivityRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []postgres.ParticipantActivityRow
	for roomID, users := range m.parts {
		rm, ok := m.rooms[roomID]
		if !ok {
			continue
		}
		for userID := range users {
			out = append(out, postgres.ParticipantActivityRow{
				RoomID:           roomID,
				UserID:           userID,
				RoomLastActivity: rm.LastActivity,
			})
		}
	}
	return out, nil
}

func (m *memStore) TouchLastMessage(_ context.Context, roomID string, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parts[roomID][userID]
	if !ok {
		return domain.ErrNotInRoom
	}
	p.LastMessageAt = &at
	return nil
}

// --- ChatRepo ---

func (m *memStore) Save(_ context.Context, roomID string, userID int64, content string) (*domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMsgID++
	msg := domain.ChatMessage{
		ID:        m.nextMsgID,
		RoomID:    roomID,
		UserID:    userID,
		Content:   content,
		CreatedAt: m.now(),
	}
	m.msgs = append(m.msgs, msg)
	cp := msg
	return &cp, nil
}

func (m *memStore) History(_ context.Context, roomID string, afterID int64, limit int) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	var out []domain.ChatMessage
	for _, msg := range m.msgs {
		if msg.RoomID == roomID && msg.ID > afterID {
			out = append(out, msg)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// --- InviteRepo ---

func (m *memStore) CreateInvite(_ context.Context, roomID string, senderID, recipientID int64) (*domain.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.invites[roomID][recipientID]; ok {
		cp := *inv
		return &cp, nil
	}
	m.nextInvID++
	inv := &domain.Invitation{
		ID:          m.nextInvID,
		RoomID:      roomID,
		SenderID:    senderID,
		RecipientID: recipientID,
		CreatedAt:   m.now(),
	}
	if m.invites[roomID] == nil {
		m.invites[roomID] = make(map[int64]*domain.Invitation)
	}
	m.invites[roomID][recipientID] = inv
	cp := *inv
	return &cp, nil
}

// --- CatalogRepo ---

func (m *memStore) GetVideo(_ context.Context, id int64) (*domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.videos[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, domain.ErrVideoNotFound
}

func (m *memStore) HasSubscription(_ context.Context, userID, channelID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[[2]int64{userID, channelID}], nil
}

// --- UserRepo ---

func (m *memStore) GetUser(_ context.Context, id int64) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

// Адаптеры под узкие интерфейсы, где имена методов у memStore расходятся
// (Get занят RoomRepo).

type memParticipants struct{ *memStore }

func (m memParticipants) Get(ctx context.Context, roomID string, userID int64) (*domain.Participant, error) {
	return m.GetParticipant(ctx, roomID, userID)
}

func (m memParticipants) Delete(ctx context.Context, roomID string, userID int64) error {
	return m.DeleteParticipant(ctx, roomID, userID)
}

type memInvites struct{ *memStore }

func (m memInvites) Create(ctx context.Context, roomID string, senderID, recipientID int64) (*domain.Invitation, error) {
	return m.CreateInvite(ctx, roomID, senderID, recipientID)
}

type memUsers struct{ *memStore }

func (m memUsers) Get(ctx context.Context, id int64) (*domain.Identity, error) {
	return m.GetUser(ctx, id)
}

// seedRoom создаёт комнату напрямую, минуя сервисы.
func (m *memStore) seedRoom(id string, ownerID int64, max *int64, messageDelay int, lastActivity time.Time) *domain.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm := &domain.Room{
		ID:              id,
		OwnerID:         ownerID,
		VideoID:         1,
		MaxParticipants: max,
		MessageDelay:    messageDelay,
		LastActivity:    lastActivity,
		CreatedAt:       lastActivity,
	}
	m.rooms[id] = rm
	m.parts[id] = map[int64]*domain.Participant{
		ownerID: {RoomID: id, UserID: ownerID, JoinedAt: lastActivity},
	}
	return rm
}

func (m *memStore) seedParticipant(roomID string, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.parts[roomID] == nil {
		m.parts[roomID] = make(map[int64]*domain.Participant)
	}
	m.parts[roomID][userID] = &domain.Participant{RoomID: roomID, UserID: userID, JoinedAt: m.now()}
}

// --- прочие фейки ---

type evictCall struct {
	RoomID string
	UserID int64
	Reason string
}

type fakeEvictor struct {
	mu    sync.Mutex
	calls []evictCall
}

func (f *fakeEvictor) Evict(roomID string, userID int64, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, evictCall{RoomID: roomID, UserID: userID, Reason: reason})
}

func (f *fakeEvictor) Calls() []evictCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]evictCall(nil), f.calls...)
}

type fakeConns struct {
	pairs map[registry.Pair]struct{}
}

func (f *fakeConns) LivePairs() map[registry.Pair]struct{} {
	if f.pairs == nil {
		return map[registry.Pair]struct{}{}
	}
	return f.pairs
}
