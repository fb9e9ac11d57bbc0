package postgres

import (
	"context"

	"github.com/cwrk-planet/watch-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*domain.Identity, error) {
	var u domain.Identity
	var displayName *string
	err := r.db.QueryRow(ctx,
		`SELECT id, username, display_name, is_admin FROM users WHERE id=$1`, id).
		Scan(&u.UserID, &u.Username, &displayName, &u.IsAdmin)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	u.DisplayName = u.Username
	if displayName != nil && *displayName != "" {
		u.DisplayName = *displayName
	}
	return &u, nil
}
