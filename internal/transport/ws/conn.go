package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

// Conn — то, что hub и evictor знают о соединении. Личность и комната соединения
// живут в реестре сессий, здесь только транспорт.
type Conn interface {
	Send(msg Message) error
	Close() error
	ConnID() string
}

type wsConn struct {
	conn   *websocket.Conn
	connID string
	sendMu chan struct{} // сериализация записи; заодно сохраняет порядок broadcast-ов
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, connID string) *wsConn {
	return &wsConn{
		conn:   c,
		connID: connID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ConnID() string { return c.connID }
