package ws

import (
	"log"
)

// Core owns the client registry and the broadcast fan-out. Registration
// and room-wide sends go through channels so a single goroutine mutates
// the registry; per-player sends read it under lock.
type Core struct {
	roomMgr    *RoomManager
	register   chan *Client
	unregister chan *Client
	broadcast  chan *WSMessage
}

func NewCore(roomMgr *RoomManager) *Core {
	return &Core{
		roomMgr:    roomMgr,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *WSMessage, 256),
	}
}

func (c *Core) Run() {
	for {
		select {
		case cl := <-c.register:
			c.roomMgr.AddClient(cl)

		case cl := <-c.unregister:
			c.roomMgr.RemoveClient(cl)

		case msg := <-c.broadcast:
			if err := c.roomMgr.BroadcastToRoom(msg); err != nil && err != ErrRoomNotFound {
				log.Printf("broadcast error: %v", err)
			}
		}
	}
}

func (c *Core) Register() chan<- *Client {
	return c.register
}

func (c *Core) Unregister() chan<- *Client {
	return c.unregister
}

func (c *Core) Broadcast() chan<- *WSMessage {
	return c.broadcast
}

// SendToPlayer bypasses the broadcast channel for player-private events.
func (c *Core) SendToPlayer(code, playerID string, msg *WSMessage) error {
	return c.roomMgr.SendToPlayer(code, playerID, msg)
}
