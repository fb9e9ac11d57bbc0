package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/watch-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, owner_id, video_id, name, max_participants, message_delay,
       current_position, is_playing, last_activity, created_at`

func scanRoom(row pgx.Row, rm *domain.Room) error {
	return row.Scan(&rm.ID, &rm.OwnerID, &rm.VideoID, &rm.Name, &rm.MaxParticipants,
		&rm.MessageDelay, &rm.CurrentPosition, &rm.IsPlaying, &rm.LastActivity, &rm.CreatedAt)
}

// Create вставляет комнату и сразу добавляет владельца участником — одной транзакцией,
// чтобы комната никогда не существовала без хотя бы одного участника.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO rooms (owner_id, video_id, name, max_participants, message_delay, last_activity)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+roomColumns,
		room.OwnerID, room.VideoID, room.Name, room.MaxParticipants, room.MessageDelay)
	if err := scanRoom(row, room); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO room_participants (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, room.ID, room.OwnerID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	var rm domain.Room
	row := r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id=$1`, id)
	if err := scanRoom(row, &rm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) List(ctx context.Context, limit int, cursorStr string) ([]domain.Room, string, error) {
	cur, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE ($1::timestamptz IS NULL OR created_at < $1
		       OR (created_at = $1 AND id < $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, query, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var rm domain.Room
		if err := scanRoom(rows, &rm); err != nil {
			return nil, "", err
		}
		rooms = append(rooms, rm)
	}

	var nextCursor string
	if len(rooms) == limit {
		last := rooms[len(rooms)-1]
		cur := Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		nextCursor, _ = EncodeCursor(cur)
	}

	return rooms, nextCursor, nil
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	return err
}

func (r *RoomRepository) TouchActivity(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE rooms SET last_activity=now() WHERE id=$1`, id)
	return err
}

// SetPlayback обновляет состояние плеера комнаты. seek не трогает is_playing,
// поэтому флаг передаётся указателем.
func (r *RoomRepository) SetPlayback(ctx context.Context, id string, position int, playing *bool) error {
	var cmd pgconn.CommandTag
	var err error
	if playing != nil {
		cmd, err = r.db.Exec(ctx, `
			UPDATE rooms SET current_position=$2, is_playing=$3, last_activity=now() WHERE id=$1`,
			id, position, *playing)
	} else {
		cmd, err = r.db.Exec(ctx, `
			UPDATE rooms SET current_position=$2, last_activity=now() WHERE id=$1`,
			id, position)
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// DeleteInactive удаляет комнаты, у которых last_activity старше cutoff.
func (r *RoomRepository) DeleteInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE last_activity < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// DeleteEmpty удаляет комнаты без единого участника.
func (r *RoomRepository) DeleteEmpty(ctx context.Context) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		DELETE FROM rooms r
		WHERE NOT EXISTS (SELECT 1 FROM room_participants p WHERE p.room_id = r.id)`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
