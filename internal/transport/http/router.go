package http

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/watch-service/internal/metrics"
	httpmw "github.com/cwrk-planet/watch-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/watch-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, tokens httpmw.TokenValidator, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint; токен приезжает в команде join_room
	r.Get("/ws", wsServer.HandleWS)

	r.Route("/rooms", func(rm chi.Router) {
		// публичные чтения
		rm.Group(func(pub chi.Router) {
			pub.Use(middlewareChi.Timeout(30 * time.Second))
			pub.Get("/", h.ListRooms)
			pub.Get("/{id}", h.GetRoom)
			pub.Get("/{id}/participants", h.GetParticipants)
			pub.Get("/{id}/chat", h.GetChatHistory)
		})

		// beacon не проходит auth: невалидный токен — штатный случай
		rm.Post("/{id}/beacon-leave", h.BeaconLeave)

		rm.Group(func(pr chi.Router) {
			pr.Use(httpmw.AuthMiddleware(tokens))
			pr.Use(middlewareChi.Timeout(30 * time.Second))

			pr.Post("/", h.CreateRoom)
			pr.Delete("/{id}", h.DeleteRoom)
			pr.Post("/{id}/join", h.JoinRoom)
			pr.Post("/{id}/leave", h.LeaveRoom)
			pr.Post("/{id}/kick/{userID}", h.KickUser)
			pr.Post("/{id}/invite", h.InviteUser)
			pr.Post("/{id}/chat", h.PostChatMessage)
		})
	})

	r.Handle("/metrics", metrics.Handler())

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
