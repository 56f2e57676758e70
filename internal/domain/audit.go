package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type GameEventType string

const (
	EventRoomCreated   GameEventType = "room_created"
	EventRoomDeleted   GameEventType = "room_deleted"
	EventRoomExpired   GameEventType = "room_expired"
	EventPlayerJoined  GameEventType = "player_joined"
	EventPlayerLeft    GameEventType = "player_left"
	EventHostPromoted  GameEventType = "host_promoted"
	EventRoundStarted  GameEventType = "round_started"
	EventPlayerEvicted GameEventType = "player_evicted"
	EventGameEnded     GameEventType = "game_ended"
)

// GameAuditLog records a room lifecycle or gameplay event for later
// inspection. Logs are pruned by a TTL index.
type GameAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomCode  string         `bson:"room_code" json:"roomCode"`
	EventType GameEventType  `bson:"event_type" json:"eventType"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type GameAuditRepository interface {
	Log(ctx context.Context, log *GameAuditLog) error
	GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]GameAuditLog, error)
	GetByEventType(ctx context.Context, eventType GameEventType, from, to time.Time) ([]GameAuditLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

func NewGameAuditLog(roomCode string, eventType GameEventType, metadata map[string]any) *GameAuditLog {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &GameAuditLog{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		EventType: eventType,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

func NewRoundStartedLog(roomCode string, round, rosterSize int) *GameAuditLog {
	return NewGameAuditLog(roomCode, EventRoundStarted, map[string]any{
		"round":       round,
		"roster_size": rosterSize,
	})
}

func NewPlayerEvictedLog(roomCode, playerID string, wasImposter bool) *GameAuditLog {
	return NewGameAuditLog(roomCode, EventPlayerEvicted, map[string]any{
		"player_id":    playerID,
		"was_imposter": wasImposter,
	})
}

func NewGameEndedLog(roomCode string, crewWon bool, rounds int) *GameAuditLog {
	return NewGameAuditLog(roomCode, EventGameEnded, map[string]any{
		"crew_won": crewWon,
		"rounds":   rounds,
	})
}
