package game

import (
	"context"
	"time"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
)

// RoundPhase is where a running round is in its fixed window.
type RoundPhase string

const (
	PhaseAnnouncing RoundPhase = "announcing"
	PhaseDelivering RoundPhase = "delivering"
	PhaseCounting   RoundPhase = "counting"
	PhaseResolved   RoundPhase = "resolved"
)

const defaultRoundWindow = 10 * time.Second

// launchRound runs the wall-clock round timer for a room. Only one timer
// per room; starting a new round cancels the previous one.
func (s *Service) launchRound(room domain.Room) {
	ctx, cancel := context.WithCancel(context.Background())

	s.roundMu.Lock()
	if prev, ok := s.rounds[room.Code]; ok {
		prev()
	}
	s.rounds[room.Code] = cancel
	s.roundMu.Unlock()

	go s.runRound(ctx, room)
}

func (s *Service) cancelRound(code string) {
	s.roundMu.Lock()
	if cancel, ok := s.rounds[code]; ok {
		cancel()
		delete(s.rounds, code)
	}
	s.roundMu.Unlock()
}

// runRound walks the phases of one round. Pulses are spaced evenly so the
// whole sequence fits inside the window with silence on both ends:
// pulse i fires at i*window/(count+1). Crewmates get exactly the room's
// pulse count; the imposter gets nothing and has to bluff.
func (s *Service) runRound(ctx context.Context, room domain.Room) {
	window := s.cfg.RoundWindow
	if window <= 0 {
		window = defaultRoundWindow
	}

	endsAt := s.now().Add(window)
	s.notifier.RoundPhaseChanged(room.Code, room.CurrentRound, PhaseAnnouncing, endsAt)

	crew := make([]string, 0, len(room.RoundRoster))
	for _, id := range room.RoundRoster {
		if role, ok := room.RoleOf(id); ok && role == domain.RoleCrewmate {
			crew = append(crew, id)
		}
	}

	spacing := window / time.Duration(room.PulseCount+1)
	timer := time.NewTimer(spacing)
	defer timer.Stop()

	s.notifier.RoundPhaseChanged(room.Code, room.CurrentRound, PhaseDelivering, endsAt)

	for i := 1; i <= room.PulseCount; i++ {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		for _, id := range crew {
			if err := s.haptics.DeliverPulse(ctx, room.Code, id, i, room.PulseCount); err != nil {
				s.log.Warn(logging.Game, logging.RoundEngine, "pulse delivery failed", map[logging.ExtraKey]any{
					logging.RoomCode:     room.Code,
					logging.PlayerID:     id,
					logging.ErrorMessage: err.Error(),
				})
			}
		}

		timer.Reset(spacing)
	}

	s.notifier.RoundPhaseChanged(room.Code, room.CurrentRound, PhaseCounting, endsAt)

	remaining := window - spacing*time.Duration(room.PulseCount)
	if remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(remaining):
		}
	}

	s.notifier.RoundPhaseChanged(room.Code, room.CurrentRound, PhaseResolved, endsAt)

	s.roundMu.Lock()
	delete(s.rounds, room.Code)
	s.roundMu.Unlock()
}
