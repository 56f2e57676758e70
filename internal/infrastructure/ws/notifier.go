package ws

import (
	"context"
	"errors"
	"time"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/game"
)

// Notifier adapts the hub to the game core's push interfaces: broadcast
// for public state, per-player sends for roles, and pulse delivery as the
// haptics engine (the client renders a vibration for each pulse event).
type Notifier struct {
	core *Core
}

func NewNotifier(core *Core) *Notifier {
	return &Notifier{core: core}
}

func (n *Notifier) RosterChanged(code string, players []domain.Player) {
	n.core.Broadcast() <- NewRosterChanged(code, players)
}

func (n *Notifier) RoleAssigned(code, playerID string, role domain.Role, round int) {
	_ = n.core.SendToPlayer(code, playerID, NewRoleAssigned(code, role, round))
}

func (n *Notifier) RoundPhaseChanged(code string, round int, phase game.RoundPhase, endsAt time.Time) {
	n.core.Broadcast() <- NewRoundPhase(code, round, phase, endsAt)
}

func (n *Notifier) RoundVerdict(code string, verdict game.Verdict) {
	n.core.Broadcast() <- NewRoundVerdict(code, verdict)
}

func (n *Notifier) VoteResult(code string, result game.TallyResult) {
	n.core.Broadcast() <- NewVoteOutcome(code, result)
}

func (n *Notifier) GameOver(code string, result domain.GameResult) {
	n.core.Broadcast() <- NewGameOver(code, result)
}

func (n *Notifier) RoomClosed(code, reason string) {
	n.core.Broadcast() <- NewRoomClosed(code, reason)
}

// DeliverPulse implements the haptics engine over the socket. A player
// without a live connection simply misses the pulse; that is a client
// connectivity problem, not a round failure.
func (n *Notifier) DeliverPulse(ctx context.Context, code, playerID string, seq, total int) error {
	err := n.core.SendToPlayer(code, playerID, NewRoundPulse(code, seq, total))
	if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrClientNotFound) {
		return nil
	}
	return err
}
