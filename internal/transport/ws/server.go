package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/watch-service/internal/domain"
	"github.com/cwrk-planet/watch-service/internal/metrics"
	"github.com/cwrk-planet/watch-service/internal/registry"
	"github.com/cwrk-planet/watch-service/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type RoomSvc interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
}

type MemberSvc interface {
	JoinRoom(ctx context.Context, roomID string, userID int64) (*domain.Participant, error)
	LeaveRoom(ctx context.Context, roomID string, userID int64) error
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
}

type PlaybackSvc interface {
	Play(ctx context.Context, roomID string, userID int64, position int) error
	Pause(ctx context.Context, roomID string, userID int64, position int) error
	Seek(ctx context.Context, roomID string, userID int64, position int) error
	Sync(ctx context.Context, roomID string) (position int, playing bool, err error)
}

type ChatSvc interface {
	Send(ctx context.Context, roomID string, userID int64, content string) (*domain.ChatMessage, error)
}

type TokenValidator interface {
	Validate(ctx context.Context, token string) (*domain.Identity, error)
}

type Server struct {
	upgrader websocket.Upgrader

	hub     *Hub
	reg     *registry.Registry
	evictor *Evictor

	roomSvc     RoomSvc
	memberSvc   MemberSvc
	playbackSvc PlaybackSvc
	chatSvc     ChatSvc
	tokens      TokenValidator

	pingEvery time.Duration
}

func NewServer(hub *Hub, reg *registry.Registry, evictor *Evictor,
	room RoomSvc, member MemberSvc, playback PlaybackSvc, chat ChatSvc,
	tokens TokenValidator, pingEvery time.Duration) *Server {

	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	return &Server{
		hub:         hub,
		reg:         reg,
		evictor:     evictor,
		roomSvc:     room,
		memberSvc:   member,
		playbackSvc: playback,
		chatSvc:     chat,
		tokens:      tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
	}
}

// WS endpoint: GET /ws. Соединение не привязано к комнате до команды join_room
// (токен приходит в ней же).
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	connID := uuid.NewString()
	c := newWsConn(conn, connID)
	metrics.WSConnections.Inc()

	_ = c.Send(Message{Type: TypeConnected, Payload: ConnectedPayload{SID: connID}})

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	s.cleanupDisconnect(r.Context(), c)
	metrics.WSConnections.Dec()

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", connID, "err", err)
	}
}

// Разрыв канала эквивалентен leave_room_event плюс снятие записи реестра.
func (s *Server) cleanupDisconnect(ctx context.Context, c *wsConn) {
	rec, ok := s.reg.Lookup(c.connID)
	if ok && rec.RoomID != "" {
		s.hub.Remove(rec.RoomID, c.connID)

		if err := s.memberSvc.LeaveRoom(ctx, rec.RoomID, rec.UserID); err != nil &&
			!errors.Is(err, domain.ErrNotInRoom) {
			slog.Debug("ws disconnect leave failed", "room", rec.RoomID, "user", rec.UserID, "err", err)
		}

		s.hub.Broadcast(rec.RoomID, Message{
			Type: TypeUserLeft,
			Payload: UserEventPayload{
				UserID:      rec.UserID,
				DisplayName: rec.DisplayName,
				TSUnix:      time.Now().Unix(),
			},
		})
	}
	s.reg.Unregister(c.connID)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.dispatch(ctx, c, msg)
	}
}

// dispatch — единственная точка разбора команд канала.
func (s *Server) dispatch(ctx context.Context, c Conn, msg Message) {
	switch msg.Type {
	case TypeJoinRoom:
		var p JoinPayload
		if decode(msg.Payload, &p) == nil {
			s.handleJoin(ctx, c, p)
		}
	case TypeLeaveRoom:
		var p RoomRefPayload
		if decode(msg.Payload, &p) == nil {
			s.handleLeave(ctx, c, p.RoomID)
		}
	case TypePlay, TypePause, TypeSeek:
		var p PlaybackPayload
		if decode(msg.Payload, &p) == nil {
			s.handlePlayback(ctx, c, msg.Type, p)
		}
	case TypeChatMessage:
		var p ChatSendPayload
		if decode(msg.Payload, &p) == nil {
			s.handleChat(ctx, c, p)
		}
	case TypeSyncRequest:
		var p RoomRefPayload
		if decode(msg.Payload, &p) == nil {
			s.handleSync(ctx, c, p.RoomID)
		}
	default:
		// ignore
	}
}

func (s *Server) handleJoin(ctx context.Context, c Conn, p JoinPayload) {
	if p.RoomID == "" || p.Token == "" {
		s.sendError(c, errors.New("room_id and token are required"))
		return
	}

	ident, err := s.tokens.Validate(ctx, p.Token)
	if err != nil {
		s.sendError(c, domain.ErrInvalidToken)
		return
	}

	// Повторный join с той же вкладки в другую комнату: старую привязку снимаем,
	// durable-участие в старой комнате приберёт свипер.
	if rec, ok := s.reg.Lookup(c.ConnID()); ok && rec.RoomID != "" && rec.RoomID != p.RoomID {
		s.hub.Remove(rec.RoomID, c.ConnID())
		s.reg.DetachRoom(c.ConnID())
	}

	if _, err := s.memberSvc.JoinRoom(ctx, p.RoomID, ident.UserID); err != nil {
		s.sendError(c, err)
		return
	}

	s.reg.Register(c.ConnID(), ident.UserID, ident.DisplayName)
	s.reg.AttachRoom(c.ConnID(), p.RoomID)
	s.hub.Add(p.RoomID, ident.UserID, c)

	if err := s.sendRoomState(ctx, c, p.RoomID); err != nil {
		slog.Warn("ws send room state failed", "room", p.RoomID, "user", ident.UserID, "err", err)
	}

	s.hub.BroadcastExcept(p.RoomID, c.ConnID(), Message{
		Type: TypeUserJoined,
		Payload: UserEventPayload{
			UserID:      ident.UserID,
			DisplayName: ident.DisplayName,
			TSUnix:      time.Now().Unix(),
		},
	})
}

func (s *Server) handleLeave(ctx context.Context, c Conn, roomID string) {
	rec, ok := s.reg.Lookup(c.ConnID())
	if !ok || rec.RoomID == "" || (roomID != "" && roomID != rec.RoomID) {
		return
	}

	s.hub.Remove(rec.RoomID, c.ConnID())

	if err := s.memberSvc.LeaveRoom(ctx, rec.RoomID, rec.UserID); err != nil &&
		!errors.Is(err, domain.ErrNotInRoom) {
		slog.Debug("ws leave failed", "room", rec.RoomID, "user", rec.UserID, "err", err)
	}

	// соединение живо, пользователь просто вышел из комнаты
	s.reg.DetachRoom(c.ConnID())

	s.hub.Broadcast(rec.RoomID, Message{
		Type: TypeUserLeft,
		Payload: UserEventPayload{
			UserID:      rec.UserID,
			DisplayName: rec.DisplayName,
			TSUnix:      time.Now().Unix(),
		},
	})
}

func (s *Server) handlePlayback(ctx context.Context, c Conn, cmd string, p PlaybackPayload) {
	rec, ok := s.reg.Lookup(c.ConnID())
	if !ok {
		s.sendError(c, domain.ErrInvalidToken)
		return
	}

	// то же обрезание, что и в durable-состоянии: зрители не должны увидеть
	// позицию, которой нет в комнате
	if p.Position < 0 {
		p.Position = 0
	}

	var err error
	var eventType string
	switch cmd {
	case TypePlay:
		err = s.playbackSvc.Play(ctx, p.RoomID, rec.UserID, p.Position)
		eventType = TypePlayEvent
	case TypePause:
		err = s.playbackSvc.Pause(ctx, p.RoomID, rec.UserID, p.Position)
		eventType = TypePauseEvent
	case TypeSeek:
		err = s.playbackSvc.Seek(ctx, p.RoomID, rec.UserID, p.Position)
		eventType = TypeSeekEvent
	}
	if err != nil {
		// отказ — только инициатору; состояние и комната не тронуты
		s.sendError(c, err)
		return
	}

	s.hub.BroadcastExcept(p.RoomID, c.ConnID(), Message{
		Type: eventType,
		Payload: PlaybackEventPayload{
			Position: p.Position,
			TSUnix:   time.Now().Unix(),
		},
	})
}

func (s *Server) handleChat(ctx context.Context, c Conn, p ChatSendPayload) {
	rec, ok := s.reg.Lookup(c.ConnID())
	if !ok {
		s.sendError(c, domain.ErrInvalidToken)
		return
	}

	msg, err := s.chatSvc.Send(ctx, p.RoomID, rec.UserID, p.Message)
	if err != nil {
		s.sendError(c, err)
		// кикнутый участник с живым сокетом — вычищаем соединение из комнаты
		if errors.Is(err, domain.ErrNotInRoom) {
			s.evictor.Evict(p.RoomID, rec.UserID, service.ReasonNotParticipant)
		}
		return
	}
	metrics.ChatMessages.Inc()

	s.BroadcastChat(msg, rec.DisplayName)
}

// BroadcastChat рассылает принятое сообщение всей комнате, включая отправителя.
// Используется и HTTP-обработчиком чата.
func (s *Server) BroadcastChat(m *domain.ChatMessage, displayName string) {
	s.hub.Broadcast(m.RoomID, Message{
		Type: TypeChatEvent,
		Payload: ChatEventPayload{
			MessageID:   m.ID,
			UserID:      m.UserID,
			DisplayName: displayName,
			Message:     m.Content,
			TSUnix:      m.CreatedAt.Unix(),
		},
	})
}

func (s *Server) handleSync(ctx context.Context, c Conn, roomID string) {
	position, playing, err := s.playbackSvc.Sync(ctx, roomID)
	if err != nil {
		s.sendError(c, err)
		return
	}
	// только запросившему, без broadcast
	_ = c.Send(Message{
		Type: TypeStateSync,
		Payload: StateSyncPayload{
			Position:  position,
			IsPlaying: playing,
			TSUnix:    time.Now().Unix(),
		},
	})
}

func (s *Server) sendRoomState(ctx context.Context, c Conn, roomID string) error {
	room, err := s.roomSvc.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	parts, err := s.memberSvc.ListParticipants(ctx, roomID)
	if err != nil {
		return err
	}

	items := make([]ParticipantStateItem, 0, len(parts))
	for _, p := range parts {
		items = append(items, ParticipantStateItem{
			UserID:   p.UserID,
			JoinedAt: p.JoinedAt.Unix(),
		})
	}

	return c.Send(Message{
		Type: TypeRoomState,
		Payload: RoomStatePayload{
			RoomID:          room.ID,
			VideoID:         room.VideoID,
			OwnerID:         room.OwnerID,
			CurrentPosition: room.CurrentPosition,
			IsPlaying:       room.IsPlaying,
			Participants:    items,
		},
	})
}

func (s *Server) sendError(c Conn, err error) {
	p := ErrorPayload{Message: err.Error()}
	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		p.RetryAfterSec = rl.RemainingSeconds()
	}
	_ = c.Send(Message{Type: TypeError, Payload: p})
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
