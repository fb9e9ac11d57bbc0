package ws

import (
	"time"

	"github.com/cwrk-planet/watch-service/internal/metrics"
	"github.com/cwrk-planet/watch-service/internal/registry"
)

// Evictor — единая точка принудительного удаления из комнаты для обоих путей:
// HTTP-kick (после durable-удаления участника) и self-heal канала. Реализует
// service.Evictor.
type Evictor struct {
	hub *Hub
	reg *registry.Registry
}

func NewEvictor(hub *Hub, reg *registry.Registry) *Evictor {
	return &Evictor{hub: hub, reg: reg}
}

// Evict идемпотентен и не предполагает ни живого соединения, ни существующей
// записи участника (её обычно уже удалил вызывающий). Само соединение остаётся
// открытым — пользователь может жить вне комнаты.
func (e *Evictor) Evict(roomID string, userID int64, reason string) {
	conns := e.hub.RemoveByUser(roomID, userID)

	now := time.Now()
	for _, c := range conns {
		_ = c.Send(Message{ // best-effort: сокет мог уже умереть
			Type: TypeKicked,
			Payload: KickedPayload{
				RoomID: roomID,
				UserID: userID,
				Reason: reason,
				TSUnix: now.Unix(),
			},
		})
	}

	// Отвязываем от комнаты и те записи реестра, у которых соединения в hub
	// уже не было (гонка с параллельным disconnect).
	for _, connID := range e.reg.FindByRoomAndUser(roomID, userID) {
		e.reg.DetachRoom(connID)
	}

	if len(conns) > 0 {
		metrics.Evictions.WithLabelValues(reason).Add(float64(len(conns)))
	}
}
