package ws

import (
	"log"

	"github.com/gorilla/websocket"
)

type Client struct {
	conn     *connWrapper
	Message  chan *WSMessage
	ID       string `json:"id"`
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

func NewClient(conn *websocket.Conn, id, roomCode, name string) *Client {
	return &Client{
		conn:     newConnWrapper(conn),
		Message:  make(chan *WSMessage, 64), // buffered to avoid dead-locks on slow clients
		ID:       id,
		RoomCode: roomCode,
		Name:     name,
	}
}

// ReadMessage drains the connection until it closes. Game clients do not
// send gameplay over the socket (that goes through the HTTP API); inbound
// frames are only keepalives and are discarded.
func (c *Client) ReadMessage(core *Core) {
	defer func() {
		core.Unregister() <- c
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error (client %s): %v", c.ID, err)
			}
			break
		}
	}
}

func (c *Client) WriteMessage() {
	defer func() {
		_ = c.conn.Close()
	}()

	for msg := range c.Message {
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("ws write error (client %s): %v", c.ID, err)
			break
		}
	}
}
