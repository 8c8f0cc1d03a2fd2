package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// A View frame that cannot be written within writeWait ends the connection.
	writeWait = 10 * time.Second

	// Browsers answer pings; a tab that stays silent for pongWait is gone.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// The panel never sends anything but control frames.
	maxMessageSize = 4 * 1024

	// Views queued per viewer before it counts as slow and is dropped.
	sendBuffer = 64
)

// Client is one dashboard viewer connected to /ws/status.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient joins conn to the hub. The most recent View, if any, is
// queued first so the page can draw before the next refresh.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	hub.add(client)
	return client
}

func (c *Client) queue() chan Message {
	return c.send
}

// Run streams Views until the viewer goes away or the hub stops.
func (c *Client) Run() {
	go c.streamViews()
	c.watchViewer()
}

// watchViewer discards inbound frames and notices when the tab closes.
func (c *Client) watchViewer() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// streamViews writes queued Views and keepalive pings. It is the only
// writer on conn.
func (c *Client) streamViews() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case view, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Dropped as slow, or the dashboard is shutting down.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, view.Data); err != nil {
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
