package service

import (
	"sync"
	"time"
)

type cooldownKey struct {
	UserID int64
	RoomID string
}

// CooldownTable — эфемерная таблица «последнее принятое сообщение» по паре
// (userID, roomID). Живёт ровно столько, сколько процесс: после рестарта все
// кулдауны обнуляются, это контракт, а не побочный эффект. Чистить ключи при
// удалении комнаты не нужно — id комнат это uuid'ы, пересоздание комнаты никогда
// не попадёт в старый ключ.
type CooldownTable struct {
	mu   sync.Mutex
	last map[cooldownKey]time.Time
	now  func() time.Time
}

func NewCooldownTable() *CooldownTable {
	return &CooldownTable{
		last: make(map[cooldownKey]time.Time),
		now:  time.Now,
	}
}

// SetClock — для тестов.
func (t *CooldownTable) SetClock(now func() time.Time) {
	if now != nil {
		t.now = now
	}
}

// Remaining — сколько ещё ждать до следующего сообщения; 0 — можно отправлять.
func (t *CooldownTable) Remaining(userID int64, roomID string, delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.last[cooldownKey{UserID: userID, RoomID: roomID}]
	if !ok {
		return 0
	}
	elapsed := t.now().Sub(last)
	if elapsed >= delay {
		return 0
	}
	return delay - elapsed
}

// Touch фиксирует момент принятого сообщения.
func (t *CooldownTable) Touch(userID int64, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[cooldownKey{UserID: userID, RoomID: roomID}] = t.now()
}
