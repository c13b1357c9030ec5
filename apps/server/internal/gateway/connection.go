package gateway

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/blackjack"

	"github.com/gorilla/websocket"
)

const (
	readLimit    = 65536
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
)

// Connection represents a WebSocket client connection
type Connection struct {
	PlayerID blackjack.PlayerID
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing time.Time

	sendOnce sync.Once
}

func newConnection(g *Gateway, playerID blackjack.PlayerID, conn *websocket.Conn) *Connection {
	return &Connection{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Gateway:  g,
		LastPing: time.Now(),
	}
}

// readPump is the per-connection worker. A panic here only ends this
// connection.
func (c *Connection) readPump() {
	defer func() {
		if r := recover(); r != nil {
			c.Gateway.report(KindPanic, c.PlayerID, fmt.Errorf("%v", r))
		}
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if !c.Gateway.closing.Load() &&
				!websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.Gateway.report(KindTransport, c.PlayerID, err)
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			c.Gateway.report(KindBadMessageType, c.PlayerID, ErrBadMessageType)
			continue
		}

		// An empty frame carries no action.
		if len(message) == 0 {
			continue
		}

		if !c.handleMessage(message) {
			return
		}
	}
}

// handleMessage reports whether the worker should keep reading.
func (c *Connection) handleMessage(data []byte) bool {
	action, err := codec.DecodeAction(data)
	if err != nil {
		c.Gateway.report(KindDecode, c.PlayerID, err)
		return false
	}

	// Resulting events reach this connection through the lobby sink, in the
	// same batch as the table-mates' copies.
	_, err = c.Gateway.lobby.Dispatch(c.PlayerID, action)
	switch {
	case err == nil:
	case errors.Is(err, lobby.ErrLobbyClosed):
		return false
	default:
		log.Printf("[Gateway] Rejected %s from player %s: %v", action.Type, c.PlayerID, err)
	}
	return true
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) closeSend() {
	c.sendOnce.Do(func() {
		close(c.Send)
	})
}
