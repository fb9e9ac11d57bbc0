package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwrk-planet/watch-service/internal/domain"
)

func newChatFixture(messageDelay int) (*memStore, *ChatService, *time.Time) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cur := new(time.Time)
	*cur = base

	st := newMemStore()
	st.now = func() time.Time { return *cur }
	st.seedRoom("room-a", 7, nil, messageDelay, base)
	st.seedParticipant("room-a", 8)

	cooldowns := NewCooldownTable()
	cooldowns.SetClock(func() time.Time { return *cur })

	svc := NewChatService(st, memParticipants{st}, st, cooldowns)
	return st, svc, cur
}

func TestChatSend(t *testing.T) {
	ctx := context.Background()

	t.Run("успех обновляет last_message_at и активность комнаты", func(t *testing.T) {
		st, svc, cur := newChatFixture(0)
		*cur = cur.Add(time.Minute)

		msg, err := svc.Send(ctx, "room-a", 8, "  привет  ")
		require.NoError(t, err)
		assert.Equal(t, "привет", msg.Content)
		assert.Equal(t, int64(8), msg.UserID)

		p, err := st.GetParticipant(ctx, "room-a", 8)
		require.NoError(t, err)
		require.NotNil(t, p.LastMessageAt)
		assert.Equal(t, msg.CreatedAt, *p.LastMessageAt)

		rm, _ := st.Get(ctx, "room-a")
		assert.Equal(t, *cur, rm.LastActivity)
	})

	t.Run("не участник", func(t *testing.T) {
		_, svc, _ := newChatFixture(0)
		_, err := svc.Send(ctx, "room-a", 99, "привет")
		assert.ErrorIs(t, err, domain.ErrNotInRoom)
	})

	t.Run("комнаты нет", func(t *testing.T) {
		_, svc, _ := newChatFixture(0)
		_, err := svc.Send(ctx, "nope", 8, "привет")
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("пустое после trim", func(t *testing.T) {
		_, svc, _ := newChatFixture(0)
		_, err := svc.Send(ctx, "room-a", 8, "   \n\t ")
		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	})

	t.Run("длина считается в рунах", func(t *testing.T) {
		_, svc, _ := newChatFixture(0)

		_, err := svc.Send(ctx, "room-a", 8, strings.Repeat("ж", 500))
		require.NoError(t, err)

		_, err = svc.Send(ctx, "room-a", 8, strings.Repeat("ж", 501))
		assert.ErrorIs(t, err, domain.ErrMessageTooLong)
	})
}

func TestChatCooldown(t *testing.T) {
	ctx := context.Background()
	_, svc, cur := newChatFixture(10)

	_, err := svc.Send(ctx, "room-a", 8, "first")
	require.NoError(t, err)

	*cur = cur.Add(5 * time.Second)
	_, err = svc.Send(ctx, "room-a", 8, "too soon")
	var rl *domain.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 5*time.Second, rl.Remaining)
	assert.Equal(t, 5, rl.RemainingSeconds())

	// кулдаун персональный: владелец пишет свободно
	_, err = svc.Send(ctx, "room-a", 7, "owner talks")
	require.NoError(t, err)

	*cur = cur.Add(6 * time.Second)
	_, err = svc.Send(ctx, "room-a", 8, "second")
	require.NoError(t, err)
}

func TestChatCooldownRejectionDoesNotTouch(t *testing.T) {
	ctx := context.Background()
	_, svc, cur := newChatFixture(10)

	_, err := svc.Send(ctx, "room-a", 8, "first")
	require.NoError(t, err)

	// отклонённые попытки не продлевают кулдаун
	*cur = cur.Add(5 * time.Second)
	_, err = svc.Send(ctx, "room-a", 8, "x")
	require.Error(t, err)

	*cur = cur.Add(5 * time.Second)
	_, err = svc.Send(ctx, "room-a", 8, "second")
	require.NoError(t, err)
}

func TestChatHistory(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newChatFixture(0)

	for _, text := range []string{"one", "two", "three"} {
		_, err := st.Save(ctx, "room-a", 8, text)
		require.NoError(t, err)
	}

	msgs, err := svc.History(ctx, "room-a", 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)

	// after-id отсекает уже виденное
	msgs, err = svc.History(ctx, "room-a", msgs[1].ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "three", msgs[0].Content)

	_, err = svc.History(ctx, "nope", 0, 0)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}
