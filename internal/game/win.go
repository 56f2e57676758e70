package game

import (
	"context"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/store"
)

// finishGame ends the running game and performs the post-game cleanup:
// roles, round roster, guesses and votes are all removed so the room can
// be replayed or torn down. The result itself is derived and pushed, never
// stored.
func (s *Service) finishGame(ctx context.Context, code string, crewWon bool, rounds int) error {
	s.cancelRound(code)

	if err := s.store.DeleteCollection(ctx, store.GuessesPath(code)); err != nil {
		return storeErr(err)
	}
	if err := s.store.DeleteCollection(ctx, store.VotesPath(code)); err != nil {
		return storeErr(err)
	}

	patch := map[string]any{
		"state":       domain.StateEnded,
		"roles":       nil,
		"roundRoster": nil,
		"pulseCount":  0,
	}
	if err := s.store.SetDocument(ctx, store.RoomPath(code), patch, true); err != nil {
		return storeErr(err)
	}

	s.log.Info(logging.Game, logging.RoomLifecycle, "game ended", map[logging.ExtraKey]any{
		logging.RoomCode: code,
		logging.Round:    rounds,
		"CrewWon":        crewWon,
	})

	s.notifier.GameOver(code, domain.GameResult{CrewWon: crewWon})
	if err := s.publisher.PublishGameEnded(ctx, code, crewWon, rounds); err != nil {
		s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish game ended failed", map[logging.ExtraKey]any{
			logging.RoomCode:     code,
			logging.ErrorMessage: err.Error(),
		})
	}

	return nil
}

// PlayAgain re-enters the lobby with the same code and roster. Spectators
// come back as active players and the room's lifetime restarts. Host-only.
func (s *Service) PlayAgain(ctx context.Context, code, callerID string) error {
	room, err := s.getRoom(ctx, code)
	if err != nil {
		return err
	}
	if !room.IsHost(callerID) {
		return domain.ErrNotHost
	}
	if room.State != domain.StateEnded {
		return domain.ErrWrongState
	}

	players, err := s.Players(ctx, code)
	if err != nil {
		return err
	}

	now := s.now()
	lifetime := s.cfg.RoomLifetime
	if lifetime <= 0 {
		lifetime = domain.RoomLifetime
	}

	ops := []store.Op{{
		Kind: store.OpSet,
		Path: store.RoomPath(code),
		Data: map[string]any{
			"state":        domain.StateLobby,
			"currentRound": 0,
			"pulseCount":   0,
			"roles":        nil,
			"roundRoster":  nil,
			"expiresAt":    now.Add(lifetime),
		},
		Merge: true,
	}}
	for _, p := range players {
		if !p.Eliminated {
			continue
		}
		ops = append(ops, store.Op{
			Kind:  store.OpSet,
			Path:  store.PlayerPath(code, p.ID),
			Data:  map[string]any{"eliminated": false},
			Merge: true,
		})
	}
	if err := s.store.RunBatch(ctx, ops); err != nil {
		return storeErr(err)
	}

	s.log.Info(logging.Game, logging.RoomLifecycle, "room reset for replay", map[logging.ExtraKey]any{
		logging.RoomCode: code,
	})
	s.notifyRoster(ctx, code)

	return nil
}
