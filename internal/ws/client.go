package ws

import (
	"fmt"
	"time"

	"nearby-jobs/internal/domain/geo"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one websocket subscriber. The hub owns send and closes it on
// unregister. A nil area receives every change.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	area *geo.Circle
}

func NewClient(hub *Hub, conn *websocket.Conn, area *geo.Circle) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, 64), area: area}
}

// wants reports whether a change at any of points concerns the client.
func (c *Client) wants(points []geo.Point) bool {
	if c.area == nil || len(points) == 0 {
		return true
	}
	for _, p := range points {
		if c.area.Contains(p) {
			return true
		}
	}
	return false
}

func (c *Client) areaLabel() string {
	if c.area == nil {
		return "all"
	}
	return fmt.Sprintf("%s~%gkm", c.area.Center, c.area.RadiusKm)
}

// ReadPump discards inbound messages and keeps the read deadline fresh. It
// unregisters the client when the connection ends.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
