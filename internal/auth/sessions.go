package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cwrk-planet/watch-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// UserGetter поднимает профиль пользователя по id из хранилища платформы.
type UserGetter interface {
	Get(ctx context.Context, id int64) (*domain.Identity, error)
}

// SessionValidator резолвит opaque-токен сессии в личность пользователя.
// Токены живут в Redis (их выдаёт auth-сервис платформы, мы их только читаем).
type SessionValidator struct {
	rdb   *redis.Client
	users UserGetter
}

func NewSessionValidator(rdb *redis.Client, users UserGetter) *SessionValidator {
	return &SessionValidator{rdb: rdb, users: users}
}

// Validate возвращает domain.ErrInvalidToken для пустого, неизвестного или
// протухшего токена; прочие ошибки — инфраструктурные.
func (v *SessionValidator) Validate(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	val, err := v.rdb.Get(ctx, sessionPrefix+token).Result()
	if err == redis.Nil {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := v.users.Get(ctx, userID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}
