package postgres

import (
	"context"

	"github.com/cwrk-planet/watch-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository — узкое окно в каталог платформы (videos, subscriptions).
// Сервис комнат эти таблицы только читает.
type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetVideo(ctx context.Context, id int64) (*domain.Video, error) {
	var v domain.Video
	err := r.db.QueryRow(ctx,
		`SELECT id, channel_id, owner_id FROM videos WHERE id=$1`, id).
		Scan(&v.ID, &v.ChannelID, &v.OwnerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrVideoNotFound
		}
		return nil, err
	}
	return &v, nil
}

// HasSubscription — подписан ли пользователь на канал видео.
func (r *CatalogRepository) HasSubscription(ctx context.Context, userID, channelID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE user_id=$1 AND channel_id=$2)`,
		userID, channelID).Scan(&exists)
	return exists, err
}
