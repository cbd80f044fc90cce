package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"TradePulse/internal/domain/models"
)

var errQueueFull = errors.New("send queue full")

// wsConn wraps one websocket connection behind the registry's Sender
// interface. Outbound frames go through a buffered queue drained by a
// single write pump, so fan-out never blocks on a slow client.
type wsConn struct {
	ws           *websocket.Conn
	send         chan models.ServerMessage
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	pingInterval time.Duration
}

func newWSConn(ws *websocket.Conn, queueSize int, writeTimeout, pingInterval time.Duration) *wsConn {
	return &wsConn{
		ws:           ws,
		send:         make(chan models.ServerMessage, queueSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

// Send enqueues one frame without blocking. A full queue counts as a
// delivery failure for this connection only.
func (c *wsConn) Send(msg models.ServerMessage) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errQueueFull
	}
}

// Alive reports whether the connection still accepts frames.
func (c *wsConn) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump serializes all writes to the socket: queued frames plus
// periodic pings. It exits when the connection is closed.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
