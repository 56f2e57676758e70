package metrics

import (
	"sync"
	"time"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/game"
)

// GameObserver counts game outcomes on their way to the clients. It wraps
// the real notifier so rounds started by completion flow (not just the
// host's start call) and every room closure reason are counted.
type GameObserver struct {
	next game.Notifier
	m    *Metrics

	mu          sync.Mutex
	roundStarts map[string]time.Time // room code → current round start
}

func NewGameObserver(m *Metrics, next game.Notifier) *GameObserver {
	return &GameObserver{
		next:        next,
		m:           m,
		roundStarts: make(map[string]time.Time),
	}
}

func (o *GameObserver) RosterChanged(code string, players []domain.Player) {
	o.next.RosterChanged(code, players)
}

func (o *GameObserver) RoleAssigned(code, playerID string, role domain.Role, round int) {
	o.next.RoleAssigned(code, playerID, role, round)
}

func (o *GameObserver) RoundPhaseChanged(code string, round int, phase game.RoundPhase, endsAt time.Time) {
	if phase == game.PhaseAnnouncing {
		o.m.RoundsStarted.Inc()
		o.mu.Lock()
		o.roundStarts[code] = time.Now()
		o.mu.Unlock()
	}
	o.next.RoundPhaseChanged(code, round, phase, endsAt)
}

func (o *GameObserver) RoundVerdict(code string, verdict game.Verdict) {
	o.mu.Lock()
	if start, ok := o.roundStarts[code]; ok {
		o.m.RoundDuration.Observe(time.Since(start).Seconds())
		delete(o.roundStarts, code)
	}
	o.mu.Unlock()

	o.next.RoundVerdict(code, verdict)
}

func (o *GameObserver) VoteResult(code string, result game.TallyResult) {
	o.next.VoteResult(code, result)
}

func (o *GameObserver) GameOver(code string, result domain.GameResult) {
	o.m.ObserveGameEnded(result.CrewWon)
	o.next.GameOver(code, result)
}

func (o *GameObserver) RoomClosed(code, reason string) {
	o.m.RoomsDeleted.WithLabelValues(reason).Inc()
	o.m.ActiveRooms.Dec()

	o.mu.Lock()
	delete(o.roundStarts, code)
	o.mu.Unlock()

	o.next.RoomClosed(code, reason)
}
