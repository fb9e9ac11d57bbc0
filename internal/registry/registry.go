// Package registry хранит процессный реестр живых соединений:
// connID -> {пользователь, комната}. Это единственный владелец этих записей;
// в БД они не попадают. Время жизни записи — время жизни канала.
package registry

import "sync"

type Connection struct {
	ConnID      string
	UserID      int64
	DisplayName string
	RoomID      string // "" — соединение не привязано к комнате
}

// Registry — один mutex на весь реестр: connect, disconnect, join, leave и kick
// гоняются из независимых обработчиков и не должны видеть частичные состояния.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*Connection
}

func New() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

func (r *Registry) Register(connID string, userID int64, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &Connection{
		ConnID:      connID,
		UserID:      userID,
		DisplayName: displayName,
	}
}

func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

func (r *Registry) AttachRoom(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		c.RoomID = roomID
	}
}

func (r *Registry) DetachRoom(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		c.RoomID = ""
	}
}

// Lookup возвращает копию записи, чтобы вызывающий не мог мутировать реестр в обход mutex.
func (r *Registry) Lookup(connID string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		return *c, true
	}
	return Connection{}, false
}

// FindByRoomAndUser — все соединения пользователя, привязанные к комнате.
// Пользователь может держать несколько вкладок, поэтому срез.
func (r *Registry) FindByRoomAndUser(roomID string, userID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id, c := range r.conns {
		if c.RoomID == roomID && c.UserID == userID {
			out = append(out, id)
		}
	}
	return out
}

// Pair — ключ «участник комнаты» для сверки реестра с БД.
type Pair struct {
	RoomID string
	UserID int64
}

// LivePairs — множество живых пар (roomID, userID); нужно свиперу для отличия
// «призраков» от реально подключённых участников.
func (r *Registry) LivePairs() map[Pair]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Pair]struct{}, len(r.conns))
	for _, c := range r.conns {
		if c.RoomID != "" {
			out[Pair{RoomID: c.RoomID, UserID: c.UserID}] = struct{}{}
		}
	}
	return out
}
