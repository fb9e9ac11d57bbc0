package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cwrk-planet/watch-service/internal/domain"
	"github.com/cwrk-planet/watch-service/internal/postgres"
	"github.com/cwrk-planet/watch-service/internal/service"
	httpmw "github.com/cwrk-planet/watch-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// ChatBroadcaster — доставка принятого по HTTP сообщения в live-комнату.
type ChatBroadcaster interface {
	BroadcastChat(m *domain.ChatMessage, displayName string)
}

type TokenValidator interface {
	Validate(ctx context.Context, token string) (*domain.Identity, error)
}

type Handler struct {
	roomSvc   *service.RoomService
	memberSvc *service.MemberService
	chatSvc   *service.ChatService
	tokens    TokenValidator
	broadcast ChatBroadcaster
}

func NewHandler(room *service.RoomService, member *service.MemberService, chat *service.ChatService,
	tokens TokenValidator, broadcast ChatBroadcaster) *Handler {
	return &Handler{
		roomSvc:   room,
		memberSvc: member,
		chatSvc:   chat,
		tokens:    tokens,
		broadcast: broadcast,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr переводит доменную ошибку в статус; всё неопознанное — 500 c логом.
func writeErr(w http.ResponseWriter, op string, err error) {
	var rl *domain.RateLimitError
	switch {
	case errors.As(err, &rl):
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error:         rl.Error(),
			RetryAfterSec: rl.RemainingSeconds(),
		})
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrVideoNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotInRoom):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrRoomFull):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrKickSelf),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, postgres.ErrInvalidCursor):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	default:
		slog.Error("handler."+op, slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func mapRoom(rm *domain.Room) RoomItem {
	return RoomItem{
		ID:              rm.ID,
		OwnerID:         rm.OwnerID,
		VideoID:         rm.VideoID,
		Name:            rm.Name,
		MaxParticipants: rm.MaxParticipants,
		MessageDelay:    rm.MessageDelay,
		CurrentPosition: rm.CurrentPosition,
		IsPlaying:       rm.IsPlaying,
		LastActivity:    rm.LastActivity,
		CreatedAt:       rm.CreatedAt,
	}
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.VideoID == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "video_id is required"})
		return
	}

	room, err := h.roomSvc.CreateRoom(r.Context(), ident.UserID, req.VideoID,
		strings.TrimSpace(req.Name), req.MaxParticipants)
	if err != nil {
		writeErr(w, "CreateRoom", err)
		return
	}

	writeJSON(w, http.StatusCreated, mapRoom(room))
}

// GET /rooms?limit=&cursor=  — сначала реклейм-свип, затем листинг
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	rooms, next, err := h.roomSvc.ListRooms(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeErr(w, "ListRooms", err)
		return
	}

	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(rooms)), NextCursor: next}
	for i := range rooms {
		resp.Items = append(resp.Items, mapRoom(&rooms[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	room, err := h.roomSvc.GetRoom(r.Context(), id)
	if err != nil {
		writeErr(w, "GetRoom", err)
		return
	}

	item := mapRoom(room)
	if parts, err := h.memberSvc.ListParticipants(r.Context(), id); err == nil {
		item.Participants = mapParticipants(parts)
	}
	writeJSON(w, http.StatusOK, item)
}

// DELETE /rooms/{id} — владелец или админ
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	if err := h.roomSvc.DeleteRoom(r.Context(), chi.URLParam(r, "id"), ident); err != nil {
		writeErr(w, "DeleteRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /rooms/{id}/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	p, err := h.memberSvc.JoinRoom(r.Context(), roomID, ident.UserID)
	if err != nil {
		writeErr(w, "JoinRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, JoinRoomResponse{
		RoomID:   p.RoomID,
		UserID:   p.UserID,
		JoinedAt: p.JoinedAt,
	})
}

// POST /rooms/{id}/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	if err := h.memberSvc.LeaveRoom(r.Context(), chi.URLParam(r, "id"), ident.UserID); err != nil {
		writeErr(w, "LeaveRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// POST /rooms/{id}/beacon-leave?token=...
// Прощальный beacon со вкладки браузера: всегда 204, ошибок наружу нет —
// протухший токен или не-участник это штатный случай.
func (h *Handler) BeaconLeave(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	ident, err := h.tokens.Validate(r.Context(), token)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.memberSvc.LeaveRoom(r.Context(), chi.URLParam(r, "id"), ident.UserID); err != nil &&
		!errors.Is(err, domain.ErrNotInRoom) {
		slog.Debug("beacon leave failed", "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /rooms/{id}/kick/{userID}
func (h *Handler) KickUser(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	targetID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	if err := h.memberSvc.KickUser(r.Context(), chi.URLParam(r, "id"), ident.UserID, targetID); err != nil {
		writeErr(w, "KickUser", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "kicked"})
}

// POST /rooms/{id}/invite
func (h *Handler) InviteUser(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
		return
	}

	inv, err := h.memberSvc.InviteUser(r.Context(), chi.URLParam(r, "id"), ident.UserID, req.UserID)
	if err != nil {
		writeErr(w, "InviteUser", err)
		return
	}

	writeJSON(w, http.StatusCreated, InvitationItem{
		ID:          inv.ID,
		RoomID:      inv.RoomID,
		SenderID:    inv.SenderID,
		RecipientID: inv.RecipientID,
		CreatedAt:   inv.CreatedAt,
	})
}

// GET /rooms/{id}/participants
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	parts, err := h.memberSvc.ListParticipants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, "GetParticipants", err)
		return
	}
	writeJSON(w, http.StatusOK, ParticipantsResponse{Items: mapParticipants(parts)})
}

// POST /rooms/{id}/chat — те же ворота, что у WS-чата, плюс рассылка в live-комнату
func (h *Handler) PostChatMessage(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	var req ChatPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	roomID := chi.URLParam(r, "id")
	msg, err := h.chatSvc.Send(r.Context(), roomID, ident.UserID, req.Message)
	if err != nil {
		// на HTTP-пути не-участник это 403, без self-heal
		if errors.Is(err, domain.ErrNotInRoom) {
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error()})
			return
		}
		writeErr(w, "PostChatMessage", err)
		return
	}

	h.broadcast.BroadcastChat(msg, ident.DisplayName)

	writeJSON(w, http.StatusCreated, ChatMessageItem{
		ID:        msg.ID,
		UserID:    msg.UserID,
		Message:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
}

// GET /rooms/{id}/chat?after=&limit=
func (h *Handler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	var afterID int64
	if s := r.URL.Query().Get("after"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			afterID = n
		}
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	items, err := h.chatSvc.History(r.Context(), chi.URLParam(r, "id"), afterID, limit)
	if err != nil {
		writeErr(w, "GetChatHistory", err)
		return
	}

	resp := ChatHistoryResponse{Items: make([]ChatMessageItem, 0, len(items))}
	for _, m := range items {
		resp.Items = append(resp.Items, ChatMessageItem{
			ID:        m.ID,
			UserID:    m.UserID,
			Message:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func mapParticipants(parts []domain.Participant) []ParticipantItem {
	out := make([]ParticipantItem, 0, len(parts))
	for _, p := range parts {
		out = append(out, ParticipantItem{UserID: p.UserID, JoinedAt: p.JoinedAt})
	}
	return out
}
