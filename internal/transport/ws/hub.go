package ws

import (
	"sync"

	"github.com/cwrk-planet/watch-service/internal/metrics"
)

type member struct {
	conn   Conn
	userID int64
}

// Hub — broadcast-группы комнат: roomID -> connID -> соединение.
// Кто состоит в группе, решают join/leave/kick; hub только доставляет.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]member
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]member)}
}

func (h *Hub) Add(roomID string, userID int64, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[string]member)
		h.rooms[roomID] = rs
	}
	rs[c.ConnID()] = member{conn: c, userID: userID}
}

func (h *Hub) Remove(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[roomID]; ok {
		delete(rs, connID)
		if len(rs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// RemoveByUser снимает с группы все соединения пользователя и возвращает их.
// Пустой результат — не ошибка: пользователь мог быть вовсе не подключен.
func (h *Hub) RemoveByUser(roomID string, userID int64) []Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	var out []Conn
	for id, m := range rs {
		if m.userID == userID {
			out = append(out, m.conn)
			delete(rs, id)
		}
	}
	if len(rs) == 0 {
		delete(h.rooms, roomID)
	}
	return out
}

func (h *Hub) Broadcast(roomID string, msg Message) {
	h.broadcast(roomID, "", msg)
}

// BroadcastExcept — всем в комнате, кроме соединения-инициатора.
func (h *Hub) BroadcastExcept(roomID, exceptConnID string, msg Message) {
	h.broadcast(roomID, exceptConnID, msg)
}

func (h *Hub) broadcast(roomID, exceptConnID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[roomID]; ok {
		for id, m := range rs {
			if id == exceptConnID {
				continue
			}
			_ = m.conn.Send(msg) // best-effort
		}
		metrics.Broadcasts.Inc()
	}
}
