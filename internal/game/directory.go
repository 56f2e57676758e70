package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/infrastructure/validate"
	"github.com/haptiq/haptiq-server/internal/store"
)

const defaultCodeAttempts = 5

// storeErr folds backend failures into the one error class callers see.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (s *Service) getRoom(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := s.store.GetDocument(ctx, store.RoomPath(code), &room)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, domain.ErrRoomNotFound
	case err != nil:
		return nil, storeErr(err)
	}
	return &room, nil
}

// CreateRoom mints a room with a fresh collision-checked code and inserts
// the creator as the host player. The host name may be empty here; the
// client writes it again through AddPlayer once the name screen is done.
func (s *Service) CreateRoom(ctx context.Context, hostName, avatar string) (*domain.Room, domain.Player, error) {
	if hostName != "" {
		if err := validate.PlayerName()(hostName); err != nil {
			return nil, domain.Player{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}

	attempts := s.cfg.CodeAttempts
	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}

	hostID := uuid.NewString()
	now := s.now()

	var room *domain.Room
	for i := 0; i < attempts; i++ {
		code, err := domain.GenerateRoomCode()
		if err != nil {
			return nil, domain.Player{}, fmt.Errorf("generate room code: %w", err)
		}

		candidate := domain.NewRoom(code, hostID, now, s.cfg.RoomLifetime)
		err = s.store.CreateDocument(ctx, store.RoomPath(code), candidate)
		if errors.Is(err, store.ErrExists) {
			// Occupied code. If the squatter is expired, reclaim the slot.
			var existing domain.Room
			if getErr := s.store.GetDocument(ctx, store.RoomPath(code), &existing); getErr == nil && existing.Expired(now) {
				if delErr := s.deleteRoomDocs(ctx, code); delErr == nil {
					s.publishExpired(ctx, code)
					if err = s.store.CreateDocument(ctx, store.RoomPath(code), candidate); err == nil {
						room = candidate
						break
					}
				}
			}
			continue
		}
		if err != nil {
			return nil, domain.Player{}, storeErr(err)
		}

		room = candidate
		break
	}

	if room == nil {
		return nil, domain.Player{}, storeErr(errors.New("room code space exhausted"))
	}

	host := domain.Player{
		ID:       hostID,
		Name:     hostName,
		IsHost:   true,
		Avatar:   avatar,
		JoinedAt: now,
	}
	if err := s.store.SetDocument(ctx, store.PlayerPath(room.Code, hostID), host, false); err != nil {
		_ = s.store.DeleteDocument(ctx, store.RoomPath(room.Code))
		return nil, domain.Player{}, storeErr(err)
	}

	s.log.Info(logging.Game, logging.RoomLifecycle, "room created", map[logging.ExtraKey]any{
		logging.RoomCode: room.Code,
		logging.PlayerID: hostID,
	})

	if err := s.publisher.PublishRoomCreated(ctx, *room); err != nil {
		s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish room created failed", map[logging.ExtraKey]any{
			logging.RoomCode:     room.Code,
			logging.ErrorMessage: err.Error(),
		})
	}
	s.notifier.RosterChanged(room.Code, []domain.Player{host})

	return room, host, nil
}

// JoinRoom resolves a code to a live room. An expired room is deleted on
// the spot and reported as expired; the player record is written later by
// AddPlayer, after the client collects a name.
func (s *Service) JoinRoom(ctx context.Context, code string) (*domain.Room, error) {
	if err := validate.RoomCode()(code); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	room, err := s.getRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if room.Expired(s.now()) {
		// Eager GC: the failed join is the trigger that collects the corpse.
		if err := s.deleteRoomDocs(ctx, code); err != nil {
			return nil, err
		}
		s.publishExpired(ctx, code)
		s.notifier.RoomClosed(code, "expired")
		s.log.Info(logging.Game, logging.Cleanup, "expired room deleted on join", map[logging.ExtraKey]any{
			logging.RoomCode: code,
		})
		return nil, domain.ErrRoomExpired
	}

	return room, nil
}

// DeleteRoom tears a room down: players, guesses, votes, then the room
// document itself.
func (s *Service) DeleteRoom(ctx context.Context, code string) error {
	return s.deleteRoom(ctx, code, "deleted")
}

func (s *Service) deleteRoom(ctx context.Context, code, reason string) error {
	s.cancelRound(code)

	if err := s.deleteRoomDocs(ctx, code); err != nil {
		return err
	}

	s.log.Info(logging.Game, logging.RoomLifecycle, "room deleted", map[logging.ExtraKey]any{
		logging.RoomCode: code,
	})

	if err := s.publisher.PublishRoomDeleted(ctx, code, reason); err != nil {
		s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish room deleted failed", map[logging.ExtraKey]any{
			logging.RoomCode:     code,
			logging.ErrorMessage: err.Error(),
		})
	}
	s.notifier.RoomClosed(code, reason)

	return nil
}

func (s *Service) deleteRoomDocs(ctx context.Context, code string) error {
	for _, p := range []string{
		store.PlayersPath(code),
		store.GuessesPath(code),
		store.VotesPath(code),
	} {
		if err := s.store.DeleteCollection(ctx, p); err != nil {
			return storeErr(err)
		}
	}
	if err := s.store.DeleteDocument(ctx, store.RoomPath(code)); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *Service) publishExpired(ctx context.Context, code string) {
	if err := s.publisher.PublishRoomDeleted(ctx, code, "expired"); err != nil {
		s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish room expired failed", map[logging.ExtraKey]any{
			logging.RoomCode:     code,
			logging.ErrorMessage: err.Error(),
		})
	}
}
