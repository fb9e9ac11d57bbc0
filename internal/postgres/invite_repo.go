package postgres

import (
	"context"

	"github.com/cwrk-planet/watch-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type InviteRepository struct {
	db *pgxpool.Pool
}

func NewInviteRepository(db *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create идемпотентен: повторное приглашение того же пользователя в ту же комнату
// возвращает существующую строку (уникальный индекс по room_id, recipient_id).
func (r *InviteRepository) Create(ctx context.Context, roomID string, senderID, recipientID int64) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.QueryRow(ctx, `
		INSERT INTO room_invitations (room_id, sender_id, recipient_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id, recipient_id) DO UPDATE SET recipient_id = EXCLUDED.recipient_id
		RETURNING id, room_id, sender_id, recipient_id, created_at
	`, roomID, senderID, recipientID).
		Scan(&inv.ID, &inv.RoomID, &inv.SenderID, &inv.RecipientID, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
