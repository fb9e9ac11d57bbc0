// Package metrics — prometheus-счётчики сервиса; экспонируются на /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watch_ws_connections",
		Help: "Live websocket connections.",
	})

	Broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watch_room_broadcasts_total",
		Help: "Events fanned out to room broadcast groups.",
	})

	Evictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watch_evictions_total",
		Help: "Forced removals from room broadcast groups.",
	}, []string{"reason"})

	ChatMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watch_chat_messages_total",
		Help: "Chat messages accepted and persisted.",
	})

	SweptRooms = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watch_swept_rooms_total",
		Help: "Rooms removed by the reclamation sweeper.",
	})

	SweptGhosts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watch_swept_ghosts_total",
		Help: "Ghost participants removed by the reclamation sweeper.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
