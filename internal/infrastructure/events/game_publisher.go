package events

import (
	"context"
	"encoding/json"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/infrastructure/contracts"
	"github.com/haptiq/haptiq-server/internal/infrastructure/messaging"
)

// GamePublisher pushes room lifecycle and gameplay events to the broker.
// It satisfies the game core's Publisher interface.
type GamePublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewGamePublisher(rabbitmq *messaging.RabbitMQ) *GamePublisher {
	return &GamePublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *GamePublisher) publish(ctx context.Context, routingKey, roomCode string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, routingKey, contracts.AmqpMessage{
		RoomCode: roomCode,
		Data:     data,
	})
}

func (p *GamePublisher) PublishRoomCreated(ctx context.Context, room domain.Room) error {
	return p.publish(ctx, contracts.EventRoomCreated, room.Code, messaging.RoomEventData{
		Room: room,
	})
}

func (p *GamePublisher) PublishRoomDeleted(ctx context.Context, code, reason string) error {
	return p.publish(ctx, contracts.EventRoomDeleted, code, messaging.RoomDeletedEventData{
		RoomCode: code,
		Reason:   reason,
	})
}

func (p *GamePublisher) PublishPlayerJoined(ctx context.Context, code string, player domain.Player) error {
	return p.publish(ctx, contracts.EventPlayerJoined, code, messaging.PlayerEventData{
		RoomCode: code,
		Player:   player,
	})
}

func (p *GamePublisher) PublishPlayerLeft(ctx context.Context, code, playerID string) error {
	return p.publish(ctx, contracts.EventPlayerLeft, code, messaging.PlayerLeftEventData{
		RoomCode: code,
		PlayerID: playerID,
	})
}

func (p *GamePublisher) PublishRoundStarted(ctx context.Context, room domain.Room, rosterSize int) error {
	return p.publish(ctx, contracts.EventRoundStarted, room.Code, messaging.RoundEventData{
		Room:       room,
		RosterSize: rosterSize,
	})
}

func (p *GamePublisher) PublishPlayerEvicted(ctx context.Context, code, playerID string, wasImposter bool) error {
	return p.publish(ctx, contracts.EventPlayerEvicted, code, messaging.EvictionEventData{
		RoomCode:    code,
		PlayerID:    playerID,
		WasImposter: wasImposter,
	})
}

func (p *GamePublisher) PublishGameEnded(ctx context.Context, code string, crewWon bool, rounds int) error {
	return p.publish(ctx, contracts.EventGameEnded, code, messaging.GameEndedEventData{
		RoomCode: code,
		CrewWon:  crewWon,
		Rounds:   rounds,
	})
}
