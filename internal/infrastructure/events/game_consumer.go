package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/infrastructure/contracts"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/infrastructure/messaging"
)

// gameConsumer turns broker events into audit log records.
type gameConsumer struct {
	rabbitmq *messaging.RabbitMQ
	audit    domain.GameAuditRepository
	log      logging.Logger
}

func NewGameConsumer(rabbitmq *messaging.RabbitMQ, audit domain.GameAuditRepository, log logging.Logger) *gameConsumer {
	return &gameConsumer{
		rabbitmq: rabbitmq,
		audit:    audit,
		log:      log,
	}
}

func (c *gameConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.GamesQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			c.log.Error(logging.RabbitMQ, logging.ExternalService, "failed to unmarshal message", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		entry, err := c.auditEntry(msg.RoutingKey, message)
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}

		return c.audit.Log(ctx, entry)
	})
}

func (c *gameConsumer) auditEntry(routingKey string, message contracts.AmqpMessage) (*domain.GameAuditLog, error) {
	switch routingKey {
	case contracts.EventRoomCreated:
		return domain.NewGameAuditLog(message.RoomCode, domain.EventRoomCreated, nil), nil

	case contracts.EventRoomDeleted:
		var payload messaging.RoomDeletedEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			return nil, err
		}
		eventType := domain.EventRoomDeleted
		if payload.Reason == "expired" {
			eventType = domain.EventRoomExpired
		}
		return domain.NewGameAuditLog(message.RoomCode, eventType, map[string]any{
			"reason": payload.Reason,
		}), nil

	case contracts.EventPlayerJoined:
		var payload messaging.PlayerEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			return nil, err
		}
		return domain.NewGameAuditLog(message.RoomCode, domain.EventPlayerJoined, map[string]any{
			"player_id": payload.Player.ID,
		}), nil

	case contracts.EventPlayerLeft:
		var payload messaging.PlayerLeftEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			return nil, err
		}
		return domain.NewGameAuditLog(message.RoomCode, domain.EventPlayerLeft, map[string]any{
			"player_id": payload.PlayerID,
		}), nil

	case contracts.EventRoundStarted:
		var payload messaging.RoundEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			return nil, err
		}
		return domain.NewRoundStartedLog(message.RoomCode, payload.Room.CurrentRound, payload.RosterSize), nil

	case contracts.EventPlayerEvicted:
		var payload messaging.EvictionEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			return nil, err
		}
		return domain.NewPlayerEvictedLog(message.RoomCode, payload.PlayerID, payload.WasImposter), nil

	case contracts.EventGameEnded:
		var payload messaging.GameEndedEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			return nil, err
		}
		return domain.NewGameEndedLog(message.RoomCode, payload.CrewWon, payload.Rounds), nil
	}

	return nil, nil
}
