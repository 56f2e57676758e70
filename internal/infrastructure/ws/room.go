package ws

import (
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrClientNotFound = errors.New("client not found")

	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
)

type WSRoom struct {
	Code    string             `json:"code"`
	Clients map[string]*Client `json:"clients"`
}

type RoomManager struct {
	rooms map[string]*WSRoom // room code → WSRoom
	mu    sync.RWMutex
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*WSRoom),
	}
}

func (rm *RoomManager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

func (rm *RoomManager) AddClient(cl *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[cl.RoomCode]
	if !ok {
		room = &WSRoom{
			Code:    cl.RoomCode,
			Clients: make(map[string]*Client),
		}
		rm.rooms[cl.RoomCode] = room
	}

	// A reconnect replaces the old client for the same player id.
	if old, exists := room.Clients[cl.ID]; exists && old != cl {
		close(old.Message)
	}
	room.Clients[cl.ID] = cl
}

func (rm *RoomManager) RemoveClient(cl *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, ok := rm.rooms[cl.RoomCode]; ok {
		if current, ok := room.Clients[cl.ID]; ok && current == cl {
			delete(room.Clients, cl.ID)
			close(cl.Message)

			if len(room.Clients) == 0 {
				delete(rm.rooms, cl.RoomCode)
			}
		}
	}
}

func (rm *RoomManager) GetRoom(code string) (*WSRoom, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	r, ok := rm.rooms[code]
	return r, ok
}

func (rm *RoomManager) BroadcastToRoom(msg *WSMessage) error {
	rm.mu.RLock()
	room, ok := rm.rooms[msg.RoomCode]
	rm.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	for _, cl := range room.Clients {
		select {
		case cl.Message <- msg:
		default:
			// Client is too slow – drop the message
			log.Printf("client %s buffer full, dropping message", cl.ID)
		}
	}
	return nil
}

// SendToPlayer delivers a message to one player's connection only. Role
// and pulse events must never reach the rest of the room.
func (rm *RoomManager) SendToPlayer(code, playerID string, msg *WSMessage) error {
	rm.mu.RLock()
	room, ok := rm.rooms[code]
	if !ok {
		rm.mu.RUnlock()
		return ErrRoomNotFound
	}
	cl, ok := room.Clients[playerID]
	rm.mu.RUnlock()
	if !ok {
		return ErrClientNotFound
	}

	select {
	case cl.Message <- msg:
	default:
		log.Printf("client %s buffer full, dropping message", cl.ID)
	}
	return nil
}
