package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	RoomCode string `json:"roomCode"`
	Data     []byte `json:"data"`
}

// Routing keys - using consistent event/command patterns
const (
	EventRoomCreated   = "room.created"
	EventRoomDeleted   = "room.deleted"
	EventPlayerJoined  = "player.joined"
	EventPlayerLeft    = "player.left"
	EventRoundStarted  = "round.started"
	EventPlayerEvicted = "player.evicted"
	EventGameEnded     = "game.ended"
)

// GameEventKeys lists every routing key the games queue consumes.
var GameEventKeys = []string{
	EventRoomCreated,
	EventRoomDeleted,
	EventPlayerJoined,
	EventPlayerLeft,
	EventRoundStarted,
	EventPlayerEvicted,
	EventGameEnded,
}
