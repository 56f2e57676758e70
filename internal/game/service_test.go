package game_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/game"
	"github.com/haptiq/haptiq-server/internal/infrastructure/configs"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/store"
	"github.com/haptiq/haptiq-server/internal/store/memory"
)

type nopLogger struct{}

func (nopLogger) Init()                                                            {}
func (nopLogger) Debug(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Debugf(string, ...any)                                            {}
func (nopLogger) Info(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Infof(string, ...any)                                             {}
func (nopLogger) Warn(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Warnf(string, ...any)                                             {}
func (nopLogger) Error(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Errorf(string, ...any)                                            {}
func (nopLogger) Fatal(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Fatalf(string, ...any)                                            {}

// spyNotifier records everything pushed to clients.
type spyNotifier struct {
	mu       sync.Mutex
	verdicts []game.Verdict
	tallies  []game.TallyResult
	results  []domain.GameResult
	phases   []game.RoundPhase
	closed   []string
}

func (n *spyNotifier) RosterChanged(string, []domain.Player)          {}
func (n *spyNotifier) RoleAssigned(string, string, domain.Role, int)  {}
func (n *spyNotifier) RoundPhaseChanged(_ string, _ int, phase game.RoundPhase, _ time.Time) {
	n.mu.Lock()
	n.phases = append(n.phases, phase)
	n.mu.Unlock()
}
func (n *spyNotifier) RoundVerdict(_ string, v game.Verdict) {
	n.mu.Lock()
	n.verdicts = append(n.verdicts, v)
	n.mu.Unlock()
}
func (n *spyNotifier) VoteResult(_ string, r game.TallyResult) {
	n.mu.Lock()
	n.tallies = append(n.tallies, r)
	n.mu.Unlock()
}
func (n *spyNotifier) GameOver(_ string, r domain.GameResult) {
	n.mu.Lock()
	n.results = append(n.results, r)
	n.mu.Unlock()
}
func (n *spyNotifier) RoomClosed(code, _ string) {
	n.mu.Lock()
	n.closed = append(n.closed, code)
	n.mu.Unlock()
}

func (n *spyNotifier) lastResult() (domain.GameResult, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.results) == 0 {
		return domain.GameResult{}, false
	}
	return n.results[len(n.results)-1], true
}

type fixture struct {
	svc      *game.Service
	store    *memory.Memory
	notifier *spyNotifier
	now      time.Time
}

func testConfig() configs.GameConfig {
	return configs.GameConfig{
		MinPlayers:   3,
		PulseMin:     2,
		PulseMax:     6,
		RoundWindow:  10 * time.Second,
		RoomLifetime: 30 * time.Minute,
		CodeAttempts: 5,
	}
}

func newFixture(t *testing.T, mutate func(*game.Options)) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.New(),
		notifier: &spyNotifier{},
		now:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	opts := game.Options{
		Store:    f.store,
		Logger:   nopLogger{},
		Config:   testConfig(),
		Notifier: f.notifier,
		RandInt:  func(int) int { return 0 },
		Now:      func() time.Time { return f.now },
	}
	if mutate != nil {
		mutate(&opts)
	}

	f.svc = game.NewService(opts)
	t.Cleanup(f.svc.Close)
	return f
}

// seedRoom creates a room with a host plus extra named players joined one
// second apart, so roster order is deterministic.
func (f *fixture) seedRoom(t *testing.T, extra ...string) (*domain.Room, []domain.Player) {
	t.Helper()
	ctx := context.Background()

	room, host, err := f.svc.CreateRoom(ctx, "Ana", "")
	require.NoError(t, err)

	players := []domain.Player{host}
	for i, id := range extra {
		p, err := f.svc.AddPlayer(ctx, room.Code, domain.Player{
			ID:       id,
			Name:     "Player " + id,
			JoinedAt: f.now.Add(time.Duration(i+1) * time.Second),
		})
		require.NoError(t, err)
		players = append(players, p)
	}
	return room, players
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, host, err := f.svc.CreateRoom(ctx, "Ana", "cat")
	require.NoError(t, err)

	assert.Len(t, room.Code, domain.RoomCodeLength)
	for _, c := range room.Code {
		assert.True(t, c >= '0' && c <= '9', "room code must be numeric")
	}
	assert.Equal(t, domain.StateLobby, room.State)
	assert.Equal(t, 0, room.CurrentRound)
	assert.Equal(t, f.now.Add(30*time.Minute), room.ExpiresAt)

	assert.True(t, host.IsHost)
	assert.Equal(t, room.HostID, host.ID)

	players, err := f.svc.Players(ctx, room.Code)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Ana", players[0].Name)
}

func TestJoinRoomNotFound(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.JoinRoom(context.Background(), "000000")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestJoinRoomRejectsBadCode(t *testing.T) {
	f := newFixture(t, nil)

	for _, code := range []string{"", "12345", "1234567", "abc123"} {
		_, err := f.svc.JoinRoom(context.Background(), code)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "code %q", code)
	}
}

func TestJoinRoomExpiredDeletesRoom(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, _, err := f.svc.CreateRoom(ctx, "Ana", "")
	require.NoError(t, err)

	f.now = f.now.Add(31 * time.Minute)

	_, err = f.svc.JoinRoom(ctx, room.Code)
	assert.ErrorIs(t, err, domain.ErrRoomExpired)

	// The failed join is the garbage collector.
	var gone domain.Room
	err = f.store.GetDocument(ctx, store.RoomPath(room.Code), &gone)
	assert.ErrorIs(t, err, store.ErrNotFound)

	docs, err := f.store.ListCollection(ctx, store.PlayersPath(room.Code))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDeleteRoomCascades(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, _ := f.seedRoom(t, "b1", "c2")
	require.NoError(t, f.svc.DeleteRoom(ctx, room.Code))

	var gone domain.Room
	err := f.store.GetDocument(ctx, store.RoomPath(room.Code), &gone)
	assert.ErrorIs(t, err, store.ErrNotFound)

	players, err := f.store.ListCollection(ctx, store.PlayersPath(room.Code))
	require.NoError(t, err)
	assert.Empty(t, players)

	assert.Contains(t, f.notifier.closed, room.Code)
}

func TestAddPlayerRejoinKeepsJoinTime(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1")
	first := players[1]

	f.now = f.now.Add(5 * time.Minute)
	again, err := f.svc.AddPlayer(ctx, room.Code, domain.Player{ID: "b1", Name: "Renamed", Avatar: "dog"})
	require.NoError(t, err)

	assert.Equal(t, first.JoinedAt, again.JoinedAt)
	assert.Equal(t, "Renamed", again.Name)
	assert.Equal(t, "dog", again.Avatar)
}

func TestAddPlayerValidatesName(t *testing.T) {
	f := newFixture(t, nil)
	room, _ := f.seedRoom(t)

	_, err := f.svc.AddPlayer(context.Background(), room.Code, domain.Player{ID: "x", Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLeaveRoomPromotesEarliestJoined(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	host := players[0]

	require.NoError(t, f.svc.LeaveRoom(ctx, room.Code, host.ID))

	var after domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &after))
	assert.Equal(t, "b1", after.HostID, "earliest-joined survivor becomes host")

	var promoted domain.Player
	require.NoError(t, f.store.GetDocument(ctx, store.PlayerPath(room.Code, "b1"), &promoted))
	assert.True(t, promoted.IsHost)
}

func TestLeaveRoomLastPlayerDeletesRoom(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t)
	require.NoError(t, f.svc.LeaveRoom(ctx, room.Code, players[0].ID))

	var gone domain.Room
	err := f.store.GetDocument(ctx, store.RoomPath(room.Code), &gone)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestObservePlayersPushesSnapshots(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, _ := f.seedRoom(t, "b1")

	var mu sync.Mutex
	var last []domain.Player
	unsub, err := f.svc.ObservePlayers(ctx, room.Code, func(players []domain.Player) {
		mu.Lock()
		last = players
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsub()

	mu.Lock()
	assert.Len(t, last, 2, "initial snapshot delivered on subscribe")
	mu.Unlock()

	_, err = f.svc.AddPlayer(ctx, room.Code, domain.Player{ID: "c2", Name: "Cleo"})
	require.NoError(t, err)

	mu.Lock()
	assert.Len(t, last, 3)
	mu.Unlock()
}

func TestStoreFailureSurfacesAsUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, _ := f.seedRoom(t)

	// Poison the room document so the typed decode fails closed.
	require.NoError(t, f.store.SetDocument(ctx, store.RoomPath(room.Code), []string{"junk"}, false))

	_, err := f.svc.JoinRoom(ctx, room.Code)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.False(t, errors.Is(err, domain.ErrRoomNotFound))
}
