package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/watch-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Get(ctx context.Context, roomID string, userID int64) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.QueryRow(ctx, `
		SELECT room_id, user_id, joined_at, last_message_at
		FROM room_participants WHERE room_id=$1 AND user_id=$2`,
		roomID, userID).Scan(&p.RoomID, &p.UserID, &p.JoinedAt, &p.LastMessageAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotInRoom
		}
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) Exists(ctx context.Context, roomID string, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM room_participants WHERE room_id=$1 AND user_id=$2)`,
		roomID, userID).Scan(&exists)
	return exists, err
}

func (r *ParticipantRepository) CountInRoom(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM room_participants WHERE room_id=$1`, roomID).Scan(&count)
	return count, err
}

// Join — защищён от гонок по max_participants: строка комнаты блокируется FOR UPDATE,
// параллельные Join по той же комнате будут ждать. Повторный join идемпотентен и
// возвращает существующую строку без проверки лимита.
func (r *ParticipantRepository) Join(ctx context.Context, roomID string, userID int64) (*domain.Participant, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var max *int64
	if err := tx.QueryRow(ctx,
		`SELECT max_participants FROM rooms WHERE id=$1 FOR UPDATE`, roomID).Scan(&max); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}

	var p domain.Participant
	err = tx.QueryRow(ctx, `
		SELECT room_id, user_id, joined_at, last_message_at
		FROM room_participants WHERE room_id=$1 AND user_id=$2`,
		roomID, userID).Scan(&p.RoomID, &p.UserID, &p.JoinedAt, &p.LastMessageAt)
	if err == nil {
		return &p, tx.Commit(ctx)
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	if max != nil {
		var count int64
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM room_participants WHERE room_id=$1`, roomID).Scan(&count); err != nil {
			return nil, err
		}
		if count >= *max {
			return nil, domain.ErrRoomFull
		}
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO room_participants (room_id, user_id)
		VALUES ($1, $2)
		RETURNING room_id, user_id, joined_at, last_message_at
	`, roomID, userID).Scan(&p.RoomID, &p.UserID, &p.JoinedAt, &p.LastMessageAt); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE rooms SET last_activity=now() WHERE id=$1`, roomID); err != nil {
		return nil, err
	}

	return &p, tx.Commit(ctx)
}

// Leave удаляет участника; если он был последним, комната удаляется той же транзакцией.
func (r *ParticipantRepository) Leave(ctx context.Context, roomID string, userID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx,
		`DELETE FROM room_participants WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotInRoom
	}

	var remaining int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_participants WHERE room_id=$1`, roomID).Scan(&remaining); err != nil {
		return err
	}
	if remaining == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, roomID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ParticipantRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT room_id, user_id, joined_at, last_message_at
		FROM room_participants WHERE room_id=$1 ORDER BY joined_at ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.RoomID, &p.UserID, &p.JoinedAt, &p.LastMessageAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ParticipantRepository) TouchLastMessage(ctx context.Context, roomID string, userID int64, at time.Time) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE room_participants SET last_message_at=$3 WHERE room_id=$1 AND user_id=$2`,
		roomID, userID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotInRoom
	}
	return nil
}

// ListAll — все участники всех комнат вместе с last_activity комнаты; нужен свиперу
// для поиска «призраков».
type ParticipantActivityRow struct {
	RoomID           string
	UserID           int64
	RoomLastActivity time.Time
}

func (r *ParticipantRepository) ListAll(ctx context.Context) ([]ParticipantActivityRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.room_id, p.user_id, r.last_activity
		FROM room_participants p
		JOIN rooms r ON r.id = p.room_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParticipantActivityRow
	for rows.Next() {
		var row ParticipantActivityRow
		if err := rows.Scan(&row.RoomID, &row.UserID, &row.RoomLastActivity); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Delete — точечное удаление строки участника (kick, уборка призраков).
// В отличие от Leave не трогает комнату: пустые комнаты добирает свипер.
func (r *ParticipantRepository) Delete(ctx context.Context, roomID string, userID int64) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM room_participants WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotInRoom
	}
	return nil
}
