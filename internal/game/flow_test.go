package game_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/game"
	"github.com/haptiq/haptiq-server/internal/haptics"
	"github.com/haptiq/haptiq-server/internal/store"
)

// submitRound submits one guess per round roster member: reportZero for
// the imposter, reported for everyone else. The last submission triggers
// evaluation.
func submitRound(t *testing.T, f *fixture, code string, crewReport func(id string) int) {
	t.Helper()
	ctx := context.Background()

	var room domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(code), &room))
	require.Equal(t, domain.StatePlaying, room.State)

	for _, id := range room.RoundRoster {
		reported := crewReport(id)
		if id == room.ImposterID() {
			reported = 0
		}
		require.NoError(t, f.svc.SubmitGuess(ctx, code, id, reported))
	}
}

func TestAssignRolesAndStartRound(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	host := players[0]

	// Only the host may deal.
	_, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, "b1")
	assert.ErrorIs(t, err, domain.ErrNotHost)

	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, host.ID)
	require.NoError(t, err)

	imposters := 0
	for _, role := range started.Roles {
		if role == domain.RoleImposter {
			imposters++
		}
	}
	assert.Equal(t, 1, imposters, "exactly one imposter")
	assert.Len(t, started.Roles, 3)
	assert.GreaterOrEqual(t, started.PulseCount, 2)
	assert.LessOrEqual(t, started.PulseCount, 6)
	assert.Equal(t, 1, started.CurrentRound)
	assert.Equal(t, domain.StatePlaying, started.State)
	assert.Len(t, started.RoundRoster, 3)

	// Dealing twice mid-game is a state error.
	_, err = f.svc.AssignRolesAndStartRound(ctx, room.Code, host.ID)
	assert.ErrorIs(t, err, domain.ErrWrongState)
}

func TestAssignRolesRequiresMinimumPlayers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1")
	_, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientPlayers)
}

func TestPulseDeliveryMatchesRoles(t *testing.T) {
	recorder := haptics.NewRecorder()
	f := newFixture(t, func(o *game.Options) {
		cfg := testConfig()
		cfg.RoundWindow = 50 * time.Millisecond
		o.Config = cfg
		o.Haptics = recorder
	})
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	imposter := started.ImposterID()
	require.NotEmpty(t, imposter)

	require.Eventually(t, func() bool {
		for _, id := range started.RoundRoster {
			if id == imposter {
				continue
			}
			if recorder.Count(id) != started.PulseCount {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond, "every crewmate feels exactly the pulse count")

	assert.Equal(t, 0, recorder.Count(imposter), "the imposter feels nothing")
}

func TestAllCorrectThreeRoundsRoutesToVoting(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2", "d3", "e4")
	_, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	for round := 1; round <= 3; round++ {
		var current domain.Room
		require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &current))
		require.Equal(t, round, current.CurrentRound)

		pulse := current.PulseCount
		submitRound(t, f, room.Code, func(string) int { return pulse })
	}

	var after domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &after))
	assert.Equal(t, domain.StateVoting, after.State, "a clean sweep ends in a vote, not an imposter win")
	assert.Equal(t, 3, after.CurrentRound)

	_, ok := f.notifier.lastResult()
	assert.False(t, ok, "no terminal result yet")
}

func TestImposterWrongGuessForcesVoting(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	pulse := started.PulseCount
	for _, id := range started.RoundRoster {
		reported := pulse
		if id == started.ImposterID() {
			reported = 1 // a tell: the imposter felt nothing and said otherwise
		}
		require.NoError(t, f.svc.SubmitGuess(ctx, room.Code, id, reported))
	}

	var after domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &after))
	assert.Equal(t, domain.StateVoting, after.State)
}

func TestCrewWrongOnLastRoundEndsInImposterWin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2", "d3", "e4")
	_, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	// Two clean rounds, then one crewmate blows the final round.
	for round := 1; round <= 2; round++ {
		var current domain.Room
		require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &current))
		pulse := current.PulseCount
		submitRound(t, f, room.Code, func(string) int { return pulse })
	}

	var current domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &current))
	require.Equal(t, 3, current.CurrentRound)
	pulse := current.PulseCount
	submitRound(t, f, room.Code, func(id string) int {
		if id == "e4" {
			return pulse + 1
		}
		return pulse
	})

	result, ok := f.notifier.lastResult()
	require.True(t, ok)
	assert.False(t, result.CrewWon)

	var after domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &after))
	assert.Equal(t, domain.StateEnded, after.State)
	assert.Empty(t, after.Roles, "roles cleared between games")
}

func TestWrongCrewmateIsEliminatedMidGame(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2", "d3", "e4")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	pulse := started.PulseCount
	submitRound(t, f, room.Code, func(id string) int {
		if id == "d3" {
			return pulse + 2
		}
		return pulse
	})

	var evicted domain.Player
	require.NoError(t, f.store.GetDocument(ctx, store.PlayerPath(room.Code, "d3"), &evicted))
	assert.True(t, evicted.Eliminated, "wrong crewmate becomes a spectator")

	var after domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &after))
	assert.Equal(t, domain.StatePlaying, after.State)
	assert.Equal(t, 2, after.CurrentRound, "game continues with the survivors")
	assert.Len(t, after.RoundRoster, 4)
	assert.NotContains(t, after.RoundRoster, "d3")

	// Cleared for the next round.
	guesses, err := f.store.ListCollection(ctx, store.GuessesPath(room.Code))
	require.NoError(t, err)
	assert.Empty(t, guesses)
}

func TestEliminationDownToOneCrewmateEndsGame(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	// One of the two crewmates guesses wrong in round one; the lone
	// survivor cannot outvote anyone.
	crew := make([]string, 0, 2)
	for _, id := range started.RoundRoster {
		if id != started.ImposterID() {
			crew = append(crew, id)
		}
	}
	require.Len(t, crew, 2)

	pulse := started.PulseCount
	submitRound(t, f, room.Code, func(id string) int {
		if id == crew[0] {
			return pulse + 1
		}
		return pulse
	})

	result, ok := f.notifier.lastResult()
	require.True(t, ok)
	assert.False(t, result.CrewWon)
}

func TestVotingOutImposterWinsForCrew(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	imposter := started.ImposterID()

	// Force a vote via an imposter tell.
	for _, id := range started.RoundRoster {
		reported := started.PulseCount
		if id == imposter {
			reported = 1
		}
		require.NoError(t, f.svc.SubmitGuess(ctx, room.Code, id, reported))
	}

	// Both crewmates vote the imposter; the imposter deflects.
	var deflect string
	for _, id := range started.RoundRoster {
		if id != imposter {
			deflect = id
			break
		}
	}
	for _, id := range started.RoundRoster {
		target := imposter
		if id == imposter {
			target = deflect
		}
		require.NoError(t, f.svc.SubmitVote(ctx, room.Code, id, target))
	}

	result, ok := f.notifier.lastResult()
	require.True(t, ok)
	assert.True(t, result.CrewWon)

	require.Len(t, f.notifier.tallies, 1)
	assert.Equal(t, imposter, f.notifier.tallies[0].EvictedID)
	assert.True(t, f.notifier.tallies[0].WasImposter)

	// Votes cleared regardless of branch.
	votes, err := f.store.ListCollection(ctx, store.VotesPath(room.Code))
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestSelfVoteRejectedBeforeWrite(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	// Reach the voting phase.
	for _, id := range started.RoundRoster {
		reported := started.PulseCount
		if id == started.ImposterID() {
			reported = 1
		}
		require.NoError(t, f.svc.SubmitGuess(ctx, room.Code, id, reported))
	}

	err = f.svc.SubmitVote(ctx, room.Code, "b1", "b1")
	assert.ErrorIs(t, err, domain.ErrInvalidVote)

	votes, err := f.store.ListCollection(ctx, store.VotesPath(room.Code))
	require.NoError(t, err)
	assert.Empty(t, votes, "a rejected self-vote writes nothing")
}

func TestGuessAndVoteStateGuards(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")

	err := f.svc.SubmitGuess(ctx, room.Code, players[0].ID, 3)
	assert.ErrorIs(t, err, domain.ErrWrongState)

	err = f.svc.SubmitVote(ctx, room.Code, "b1", "c2")
	assert.ErrorIs(t, err, domain.ErrWrongState)

	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	err = f.svc.SubmitGuess(ctx, room.Code, "nobody", started.PulseCount)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestPlayAgainResetsRoomAndRoster(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	host := players[0]
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, host.ID)
	require.NoError(t, err)

	// End the game via an elimination cascade.
	crew := make([]string, 0, 2)
	for _, id := range started.RoundRoster {
		if id != started.ImposterID() {
			crew = append(crew, id)
		}
	}
	pulse := started.PulseCount
	submitRound(t, f, room.Code, func(id string) int {
		if id == crew[0] {
			return pulse + 1
		}
		return pulse
	})

	_, ok := f.notifier.lastResult()
	require.True(t, ok)

	// Non-host cannot reset.
	err = f.svc.PlayAgain(ctx, room.Code, crew[0])
	assert.ErrorIs(t, err, domain.ErrNotHost)

	f.now = f.now.Add(10 * time.Minute)
	require.NoError(t, f.svc.PlayAgain(ctx, room.Code, host.ID))

	var after domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &after))
	assert.Equal(t, domain.StateLobby, after.State)
	assert.Equal(t, 0, after.CurrentRound)
	assert.Empty(t, after.Roles)
	assert.Empty(t, after.RoundRoster)
	assert.Equal(t, f.now.Add(30*time.Minute), after.ExpiresAt, "lifetime restarts on replay")

	players2, err := f.svc.Players(ctx, room.Code)
	require.NoError(t, err)
	for _, p := range players2 {
		assert.False(t, p.Eliminated, "spectators return for the rematch")
	}
}

func TestLeaveDuringRoundShrinksDenominator(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2", "d3", "e4")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	// Everyone but one crewmate submits a correct guess.
	var straggler string
	for _, id := range started.RoundRoster {
		if id != started.ImposterID() {
			straggler = id
		}
	}
	for _, id := range started.RoundRoster {
		if id == straggler {
			continue
		}
		reported := started.PulseCount
		if id == started.ImposterID() {
			reported = 0
		}
		require.NoError(t, f.svc.SubmitGuess(ctx, room.Code, id, reported))
	}

	var mid domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &mid))
	require.Equal(t, 1, mid.CurrentRound, "round still waiting on the straggler")

	// The straggler walks; evaluation unblocks with the shrunk roster.
	require.NoError(t, f.svc.LeaveRoom(ctx, room.Code, straggler))

	var after domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &after))
	assert.Equal(t, 2, after.CurrentRound)
}

func TestJoinMidGameIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	// A stranger cannot take a seat once roles are dealt.
	_, err = f.svc.AddPlayer(ctx, room.Code, domain.Player{ID: "z9", Name: "Zed"})
	assert.ErrorIs(t, err, domain.ErrWrongState)

	// A seated player may still rejoin after a dropped connection.
	again, err := f.svc.AddPlayer(ctx, room.Code, domain.Player{ID: "b1", Name: "Player b1"})
	require.NoError(t, err)
	assert.Equal(t, "b1", again.ID)

	// The round completes with the dealt roster, nobody extra counted.
	pulse := started.PulseCount
	submitRound(t, f, room.Code, func(string) int { return pulse })

	var after domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &after))
	assert.Equal(t, 2, after.CurrentRound)
	assert.NotContains(t, after.RoundRoster, "z9")
}

func TestLeaveDuringVotingShrinksDenominator(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2", "d3", "e4")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	imposter := started.ImposterID()

	// Force a vote via an imposter tell.
	for _, id := range started.RoundRoster {
		reported := started.PulseCount
		if id == imposter {
			reported = 1
		}
		require.NoError(t, f.svc.SubmitGuess(ctx, room.Code, id, reported))
	}

	// Everyone but one crewmate votes the imposter; the imposter deflects.
	var straggler string
	for _, id := range started.RoundRoster {
		if id != imposter {
			straggler = id
		}
	}
	for _, id := range started.RoundRoster {
		if id == straggler {
			continue
		}
		target := imposter
		if id == imposter {
			target = straggler
		}
		require.NoError(t, f.svc.SubmitVote(ctx, room.Code, id, target))
	}

	var mid domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &mid))
	require.Equal(t, domain.StateVoting, mid.State, "vote still waiting on the straggler")

	// The straggler walks; the tally unblocks with the shrunk snapshot.
	require.NoError(t, f.svc.LeaveRoom(ctx, room.Code, straggler))

	require.Len(t, f.notifier.tallies, 1)
	assert.Equal(t, imposter, f.notifier.tallies[0].EvictedID)
	assert.True(t, f.notifier.tallies[0].WasImposter)

	result, ok := f.notifier.lastResult()
	require.True(t, ok)
	assert.True(t, result.CrewWon)
}

func TestImposterLeavingMidGameForfeits(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room, players := f.seedRoom(t, "b1", "c2")
	started, err := f.svc.AssignRolesAndStartRound(ctx, room.Code, players[0].ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.LeaveRoom(ctx, room.Code, started.ImposterID()))

	result, ok := f.notifier.lastResult()
	require.True(t, ok)
	assert.True(t, result.CrewWon, "the imposter cannot quit their way to a win")

	var after domain.Room
	require.NoError(t, f.store.GetDocument(ctx, store.RoomPath(room.Code), &after))
	assert.Equal(t, domain.StateEnded, after.State)
	assert.Empty(t, after.Roles)
	assert.NotEqual(t, started.ImposterID(), after.HostID, "the room passes to a survivor")
}
