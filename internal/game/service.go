// Package game holds the room and round state machine: directory, roster,
// role assignment, round engine, guess evaluation, voting and win
// resolution. All operations take (roomCode, playerID) explicitly and go
// through the store contract, so any number of server instances or test
// harnesses can drive the same rooms.
package game

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/haptics"
	"github.com/haptiq/haptiq-server/internal/infrastructure/configs"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/store"
)

// Notifier pushes realtime state to the clients of one room. Implemented
// by the websocket hub; a nop implementation is used in tests.
type Notifier interface {
	RosterChanged(code string, players []domain.Player)
	RoleAssigned(code, playerID string, role domain.Role, round int)
	RoundPhaseChanged(code string, round int, phase RoundPhase, endsAt time.Time)
	RoundVerdict(code string, verdict Verdict)
	VoteResult(code string, result TallyResult)
	GameOver(code string, result domain.GameResult)
	RoomClosed(code, reason string)
}

// Publisher emits lifecycle events to the message broker. The audit
// consumer turns them into audit log records.
type Publisher interface {
	PublishRoomCreated(ctx context.Context, room domain.Room) error
	PublishRoomDeleted(ctx context.Context, code, reason string) error
	PublishPlayerJoined(ctx context.Context, code string, player domain.Player) error
	PublishPlayerLeft(ctx context.Context, code, playerID string) error
	PublishRoundStarted(ctx context.Context, room domain.Room, rosterSize int) error
	PublishPlayerEvicted(ctx context.Context, code, playerID string, wasImposter bool) error
	PublishGameEnded(ctx context.Context, code string, crewWon bool, rounds int) error
}

type Options struct {
	Store     store.Store
	Logger    logging.Logger
	Config    configs.GameConfig
	Notifier  Notifier
	Publisher Publisher
	Haptics   haptics.Engine

	// RandInt overrides the uniform draw in [0,n). Tests pin it.
	RandInt func(n int) int
	// Now overrides the clock. Tests pin it.
	Now func() time.Time
}

type Service struct {
	store     store.Store
	log       logging.Logger
	cfg       configs.GameConfig
	notifier  Notifier
	publisher Publisher
	haptics   haptics.Engine

	randInt func(n int) int
	now     func() time.Time

	// One in-flight round timer per room.
	roundMu sync.Mutex
	rounds  map[string]context.CancelFunc
}

func NewService(opts Options) *Service {
	s := &Service{
		store:     opts.Store,
		log:       opts.Logger,
		cfg:       opts.Config,
		notifier:  opts.Notifier,
		publisher: opts.Publisher,
		haptics:   opts.Haptics,
		randInt:   opts.RandInt,
		now:       opts.Now,
		rounds:    make(map[string]context.CancelFunc),
	}

	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.haptics == nil {
		s.haptics = haptics.Nop{}
	}
	if s.randInt == nil {
		s.randInt = rand.IntN
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Close cancels every in-flight round timer.
func (s *Service) Close() {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	for code, cancel := range s.rounds {
		cancel()
		delete(s.rounds, code)
	}
}

type nopNotifier struct{}

func (nopNotifier) RosterChanged(string, []domain.Player)                   {}
func (nopNotifier) RoleAssigned(string, string, domain.Role, int)          {}
func (nopNotifier) RoundPhaseChanged(string, int, RoundPhase, time.Time)   {}
func (nopNotifier) RoundVerdict(string, Verdict)                           {}
func (nopNotifier) VoteResult(string, TallyResult)                         {}
func (nopNotifier) GameOver(string, domain.GameResult)                     {}
func (nopNotifier) RoomClosed(string, string)                              {}

type nopPublisher struct{}

func (nopPublisher) PublishRoomCreated(context.Context, domain.Room) error      { return nil }
func (nopPublisher) PublishRoomDeleted(context.Context, string, string) error   { return nil }
func (nopPublisher) PublishPlayerJoined(context.Context, string, domain.Player) error {
	return nil
}
func (nopPublisher) PublishPlayerLeft(context.Context, string, string) error { return nil }
func (nopPublisher) PublishRoundStarted(context.Context, domain.Room, int) error {
	return nil
}
func (nopPublisher) PublishPlayerEvicted(context.Context, string, string, bool) error {
	return nil
}
func (nopPublisher) PublishGameEnded(context.Context, string, bool, int) error { return nil }
