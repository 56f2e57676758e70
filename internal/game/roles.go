package game

import (
	"context"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/store"
)

// AssignRolesAndStartRound deals one imposter, draws the pulse count and
// starts round one. Host-only; the check is an identity comparison, which
// is enough for a room of friends but is still load-bearing for fairness.
func (s *Service) AssignRolesAndStartRound(ctx context.Context, code, callerID string) (*domain.Room, error) {
	room, err := s.getRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if !room.IsHost(callerID) {
		return nil, domain.ErrNotHost
	}
	if room.State != domain.StateLobby {
		return nil, domain.ErrWrongState
	}

	players, err := s.Players(ctx, code)
	if err != nil {
		return nil, err
	}
	ids := domain.ActiveIDs(players)
	if len(ids) < s.cfg.MinPlayers {
		return nil, domain.ErrInsufficientPlayers
	}

	imposter := ids[s.randInt(len(ids))]
	roles := make(map[string]domain.Role, len(ids))
	for _, id := range ids {
		if id == imposter {
			roles[id] = domain.RoleImposter
		} else {
			roles[id] = domain.RoleCrewmate
		}
	}

	room.Roles = roles
	room.PulseCount = s.drawPulse()
	room.CurrentRound++
	room.State = domain.StatePlaying
	room.RoundRoster = ids

	patch := map[string]any{
		"state":        room.State,
		"currentRound": room.CurrentRound,
		"pulseCount":   room.PulseCount,
		"roles":        room.Roles,
		"roundRoster":  room.RoundRoster,
	}
	if err := s.store.SetDocument(ctx, store.RoomPath(code), patch, true); err != nil {
		return nil, storeErr(err)
	}

	s.log.Info(logging.Game, logging.RoundEngine, "roles assigned, round started", map[logging.ExtraKey]any{
		logging.RoomCode: code,
		logging.Round:    room.CurrentRound,
	})

	for _, id := range ids {
		s.notifier.RoleAssigned(code, id, roles[id], room.CurrentRound)
	}
	if err := s.publisher.PublishRoundStarted(ctx, *room, len(ids)); err != nil {
		s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish round started failed", map[logging.ExtraKey]any{
			logging.RoomCode:     code,
			logging.ErrorMessage: err.Error(),
		})
	}

	s.launchRound(*room)
	return room, nil
}

// startNextRound continues an existing game: same roles, fresh pulse
// count, roster snapshot retaken from the surviving active players.
func (s *Service) startNextRound(ctx context.Context, code string) error {
	room, err := s.getRoom(ctx, code)
	if err != nil {
		return err
	}

	players, err := s.Players(ctx, code)
	if err != nil {
		return err
	}
	ids := domain.ActiveIDs(players)

	room.PulseCount = s.drawPulse()
	room.CurrentRound++
	room.State = domain.StatePlaying
	room.RoundRoster = ids

	patch := map[string]any{
		"state":        room.State,
		"currentRound": room.CurrentRound,
		"pulseCount":   room.PulseCount,
		"roundRoster":  room.RoundRoster,
	}
	if err := s.store.SetDocument(ctx, store.RoomPath(code), patch, true); err != nil {
		return storeErr(err)
	}

	s.log.Info(logging.Game, logging.RoundEngine, "next round started", map[logging.ExtraKey]any{
		logging.RoomCode: code,
		logging.Round:    room.CurrentRound,
	})
	if err := s.publisher.PublishRoundStarted(ctx, *room, len(ids)); err != nil {
		s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish round started failed", map[logging.ExtraKey]any{
			logging.RoomCode:     code,
			logging.ErrorMessage: err.Error(),
		})
	}

	s.launchRound(*room)
	return nil
}

func (s *Service) drawPulse() int {
	min, max := s.cfg.PulseMin, s.cfg.PulseMax
	if min <= 0 || max < min {
		min, max = 2, 6
	}
	return min + s.randInt(max-min+1)
}
