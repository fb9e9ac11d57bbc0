package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	id     string
	msgs   []Message
	closed bool
}

func (c *fakeConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) ConnID() string { return c.id }

func (c *fakeConn) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.msgs...)
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()

	c1 := &fakeConn{id: "c1"}
	c2 := &fakeConn{id: "c2"}
	c3 := &fakeConn{id: "c3"}

	h.Add("room-a", 7, c1)
	h.Add("room-a", 8, c2)
	h.Add("room-b", 9, c3)

	h.Broadcast("room-a", Message{Type: "play_event"})

	assert.Len(t, c1.Messages(), 1)
	assert.Len(t, c2.Messages(), 1)
	assert.Empty(t, c3.Messages())
}

func TestHubBroadcastExcept(t *testing.T) {
	h := NewHub()

	c1 := &fakeConn{id: "c1"}
	c2 := &fakeConn{id: "c2"}

	h.Add("room-a", 7, c1)
	h.Add("room-a", 8, c2)

	h.BroadcastExcept("room-a", "c1", Message{Type: "user_joined"})

	assert.Empty(t, c1.Messages())
	assert.Len(t, c2.Messages(), 1)
}

func TestHubRemove(t *testing.T) {
	h := NewHub()

	c1 := &fakeConn{id: "c1"}
	h.Add("room-a", 7, c1)

	h.Remove("room-a", "c1")
	h.Broadcast("room-a", Message{Type: "play_event"})
	assert.Empty(t, c1.Messages())

	// удаление из несуществующей комнаты — no-op
	h.Remove("nope", "c1")
}

func TestHubRemoveByUser(t *testing.T) {
	h := NewHub()

	// две вкладки одного пользователя и один посторонний
	c1 := &fakeConn{id: "c1"}
	c2 := &fakeConn{id: "c2"}
	c3 := &fakeConn{id: "c3"}

	h.Add("room-a", 7, c1)
	h.Add("room-a", 7, c2)
	h.Add("room-a", 8, c3)

	removed := h.RemoveByUser("room-a", 7)
	require.Len(t, removed, 2)

	h.Broadcast("room-a", Message{Type: "chat_message_event"})
	assert.Empty(t, c1.Messages())
	assert.Empty(t, c2.Messages())
	assert.Len(t, c3.Messages(), 1)

	assert.Nil(t, h.RemoveByUser("room-a", 7))
	assert.Nil(t, h.RemoveByUser("nope", 7))
}
