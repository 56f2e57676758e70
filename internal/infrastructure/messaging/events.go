package messaging

import "github.com/haptiq/haptiq-server/internal/domain"

const (
	GamesQueue      = "games"
	DeadLetterQueue = "dead_letter_queue"
)

type RoomEventData struct {
	Room   domain.Room `json:"room"`
	Reason string      `json:"reason,omitempty"`
}

type RoomDeletedEventData struct {
	RoomCode string `json:"roomCode"`
	Reason   string `json:"reason,omitempty"`
}

type PlayerEventData struct {
	RoomCode string        `json:"roomCode"`
	Player   domain.Player `json:"player"`
}

type PlayerLeftEventData struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type RoundEventData struct {
	Room       domain.Room `json:"room"`
	RosterSize int         `json:"rosterSize"`
}

type EvictionEventData struct {
	RoomCode    string `json:"roomCode"`
	PlayerID    string `json:"playerId"`
	WasImposter bool   `json:"wasImposter"`
}

type GameEndedEventData struct {
	RoomCode string `json:"roomCode"`
	CrewWon  bool   `json:"crewWon"`
	Rounds   int    `json:"rounds"`
}
