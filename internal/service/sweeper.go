package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/watch-service/internal/domain"
	"github.com/cwrk-planet/watch-service/internal/metrics"
	"github.com/cwrk-planet/watch-service/internal/registry"
)

// Sweeper — реклейм-проход: неактивные комнаты, пустые комнаты и «призраки» —
// участники без живого соединения (обычно упавший клиент без disconnect).
// Вызывается оппортунистически перед листингом комнат.
type Sweeper struct {
	roomRepo        RoomRepo
	participantRepo ParticipantRepo
	conns           LiveConns

	inactiveAfter time.Duration // комната считается брошенной
	ghostGrace    time.Duration // окно, в котором призраков не трогаем

	now func() time.Time
}

func NewSweeper(roomRepo RoomRepo, participantRepo ParticipantRepo, conns LiveConns, inactiveAfter, ghostGrace time.Duration) *Sweeper {
	if inactiveAfter <= 0 {
		inactiveAfter = 30 * time.Minute
	}
	if ghostGrace <= 0 {
		ghostGrace = 5 * time.Minute
	}
	return &Sweeper{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		conns:           conns,
		inactiveAfter:   inactiveAfter,
		ghostGrace:      ghostGrace,
		now:             time.Now,
	}
}

// SetClock — для тестов.
func (s *Sweeper) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()

	inactive, err := s.roomRepo.DeleteInactive(ctx, now.Add(-s.inactiveAfter))
	if err != nil {
		return fmt.Errorf("delete inactive rooms: %w", err)
	}

	empty, err := s.roomRepo.DeleteEmpty(ctx)
	if err != nil {
		return fmt.Errorf("delete empty rooms: %w", err)
	}

	ghosts, err := s.sweepGhosts(ctx, now)
	if err != nil {
		return err
	}

	// уборка призраков могла опустошить комнаты
	empty2, err := s.roomRepo.DeleteEmpty(ctx)
	if err != nil {
		return fmt.Errorf("delete emptied rooms: %w", err)
	}

	metrics.SweptRooms.Add(float64(inactive + empty + empty2))
	metrics.SweptGhosts.Add(float64(ghosts))

	if inactive+empty+empty2+ghosts > 0 {
		slog.Info("reclamation sweep",
			"inactive_rooms", inactive, "empty_rooms", empty+empty2, "ghosts", ghosts)
	}
	return nil
}

// sweepGhosts удаляет участников без живой пары в реестре, но только в комнатах,
// тихих дольше grace-окна: кто-то мог зайти по HTTP и ещё не открыть канал.
func (s *Sweeper) sweepGhosts(ctx context.Context, now time.Time) (int64, error) {
	rows, err := s.participantRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list participants: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	live := s.conns.LivePairs()
	cutoff := now.Add(-s.ghostGrace)

	var removed int64
	for _, row := range rows {
		if _, ok := live[registry.Pair{RoomID: row.RoomID, UserID: row.UserID}]; ok {
			continue
		}
		if !row.RoomLastActivity.Before(cutoff) {
			continue
		}
		if err := s.participantRepo.Delete(ctx, row.RoomID, row.UserID); err != nil {
			// гонка с параллельным leave/kick — не ошибка
			if errors.Is(err, domain.ErrNotInRoom) {
				continue
			}
			return removed, fmt.Errorf("delete ghost %s/%d: %w", row.RoomID, row.UserID, err)
		}
		removed++
	}
	return removed, nil
}
