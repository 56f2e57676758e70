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

// Players lists the full roster of a room, spectators included.
func (s *Service) Players(ctx context.Context, code string) ([]domain.Player, error) {
	docs, err := s.store.ListCollection(ctx, store.PlayersPath(code))
	if err != nil {
		return nil, storeErr(err)
	}

	players := make([]domain.Player, 0, len(docs))
	for _, doc := range docs {
		var p domain.Player
		if err := doc.Decode(&p); err != nil {
			return nil, storeErr(err)
		}
		players = append(players, p)
	}
	return players, nil
}

// AddPlayer upserts a player record keyed by id. New seats are handed out
// only while the room is in the lobby; once roles are dealt the roster is
// fixed. Rejoining overwrites name and avatar; join time and elimination
// status survive the rewrite so host promotion order and spectator state
// stay stable.
func (s *Service) AddPlayer(ctx context.Context, code string, p domain.Player) (domain.Player, error) {
	if err := validate.PlayerName()(p.Name); err != nil {
		return domain.Player{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	room, err := s.getRoom(ctx, code)
	if err != nil {
		return domain.Player{}, err
	}
	if room.Expired(s.now()) {
		return domain.Player{}, domain.ErrRoomExpired
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = s.now()
	}
	p.IsHost = room.IsHost(p.ID)

	var existing domain.Player
	err = s.store.GetDocument(ctx, store.PlayerPath(code, p.ID), &existing)
	switch {
	case err == nil:
		p.JoinedAt = existing.JoinedAt
		p.Eliminated = existing.Eliminated
	case errors.Is(err, store.ErrNotFound):
		// A stranger mid-game would have no role and could never satisfy
		// the round, so the door closes when the lobby does.
		if room.State != domain.StateLobby {
			return domain.Player{}, domain.ErrWrongState
		}
	default:
		return domain.Player{}, storeErr(err)
	}

	if err := s.store.SetDocument(ctx, store.PlayerPath(code, p.ID), p, false); err != nil {
		return domain.Player{}, storeErr(err)
	}

	s.log.Info(logging.Game, logging.Roster, "player joined", map[logging.ExtraKey]any{
		logging.RoomCode: code,
		logging.PlayerID: p.ID,
	})

	if err := s.publisher.PublishPlayerJoined(ctx, code, p); err != nil {
		s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish player joined failed", map[logging.ExtraKey]any{
			logging.RoomCode:     code,
			logging.ErrorMessage: err.Error(),
		})
	}
	s.notifyRoster(ctx, code)

	return p, nil
}

// ObservePlayers pushes the roster to fn on every change under the room's
// players collection, starting with the current snapshot. fn runs on the
// store's notification path and must return quickly.
func (s *Service) ObservePlayers(ctx context.Context, code string, fn func([]domain.Player)) (store.Unsubscribe, error) {
	push := func() {
		players, err := s.Players(ctx, code)
		if err != nil {
			s.log.Warn(logging.Store, logging.Roster, "roster read failed", map[logging.ExtraKey]any{
				logging.RoomCode:     code,
				logging.ErrorMessage: err.Error(),
			})
			return
		}
		fn(players)
	}

	unsub := s.store.Subscribe(store.PlayersPath(code), func(store.Event) { push() })
	push()
	return unsub, nil
}

// LeaveRoom removes the player and their pending guess and vote. The last
// player out turns off the lights; a departing host hands the room to the
// earliest-joined survivor.
func (s *Service) LeaveRoom(ctx context.Context, code, playerID string) error {
	room, err := s.getRoom(ctx, code)
	if err != nil {
		return err
	}

	ops := []store.Op{
		{Kind: store.OpDelete, Path: store.PlayerPath(code, playerID)},
		{Kind: store.OpDelete, Path: store.GuessPath(code, playerID)},
		{Kind: store.OpDelete, Path: store.VotePath(code, playerID)},
	}
	if err := s.store.RunBatch(ctx, ops); err != nil {
		return storeErr(err)
	}

	s.log.Info(logging.Game, logging.Roster, "player left", map[logging.ExtraKey]any{
		logging.RoomCode: code,
		logging.PlayerID: playerID,
	})
	if err := s.publisher.PublishPlayerLeft(ctx, code, playerID); err != nil {
		s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish player left failed", map[logging.ExtraKey]any{
			logging.RoomCode:     code,
			logging.ErrorMessage: err.Error(),
		})
	}

	remaining, err := s.Players(ctx, code)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return s.deleteRoom(ctx, code, "empty")
	}

	if room.IsHost(playerID) {
		if err := s.promoteHost(ctx, code, remaining); err != nil {
			return err
		}
	}

	midGame := room.State == domain.StatePlaying || room.State == domain.StateVoting

	// The imposter walking out forfeits: there is no one left to unmask.
	if role, ok := room.RoleOf(playerID); ok && role == domain.RoleImposter && midGame {
		if err := s.finishGame(ctx, code, true, room.CurrentRound); err != nil {
			return err
		}
		s.notifyRoster(ctx, code)
		return nil
	}

	// A leaver who was counted in the running round or vote would stall
	// completion forever, so the snapshot shrinks with them.
	if midGame && room.InRoundRoster(playerID) {
		roster := make([]string, 0, len(room.RoundRoster))
		for _, id := range room.RoundRoster {
			if id != playerID {
				roster = append(roster, id)
			}
		}
		patch := map[string]any{"roundRoster": roster}
		if err := s.store.SetDocument(ctx, store.RoomPath(code), patch, true); err != nil {
			return storeErr(err)
		}
		if room.State == domain.StatePlaying {
			if err := s.maybeEvaluate(ctx, code); err != nil {
				return err
			}
		} else {
			if err := s.maybeTally(ctx, code); err != nil {
				return err
			}
		}
	}

	s.notifyRoster(ctx, code)
	return nil
}

func (s *Service) promoteHost(ctx context.Context, code string, remaining []domain.Player) error {
	next, ok := domain.EarliestJoined(remaining)
	if !ok {
		return nil
	}

	next.IsHost = true
	ops := []store.Op{
		{Kind: store.OpSet, Path: store.RoomPath(code), Data: map[string]any{"hostId": next.ID}, Merge: true},
		{Kind: store.OpSet, Path: store.PlayerPath(code, next.ID), Data: next},
	}
	if err := s.store.RunBatch(ctx, ops); err != nil {
		return storeErr(err)
	}

	s.log.Info(logging.Game, logging.Roster, "host promoted", map[logging.ExtraKey]any{
		logging.RoomCode: code,
		logging.PlayerID: next.ID,
	})
	return nil
}

func (s *Service) notifyRoster(ctx context.Context, code string) {
	players, err := s.Players(ctx, code)
	if err != nil {
		return
	}
	s.notifier.RosterChanged(code, players)
}
