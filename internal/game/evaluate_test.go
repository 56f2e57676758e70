package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/game"
)

func guess(player string, reported int) domain.Guess {
	return domain.Guess{PlayerID: player, ReportedCount: reported}
}

func TestEvaluate(t *testing.T) {
	roles := map[string]domain.Role{
		"imp": domain.RoleImposter,
		"c1":  domain.RoleCrewmate,
		"c2":  domain.RoleCrewmate,
		"c3":  domain.RoleCrewmate,
		"c4":  domain.RoleCrewmate,
	}

	tests := []struct {
		name       string
		pulse      int
		round      int
		rosterSize int
		guesses    []domain.Guess
		want       game.Verdict
	}{
		{
			name:       "imposter wrong goes to voting regardless of round",
			pulse:      4,
			round:      1,
			rosterSize: 5,
			guesses:    []domain.Guess{guess("imp", 1), guess("c1", 4), guess("c2", 4), guess("c3", 4), guess("c4", 4)},
			want:       game.Verdict{Kind: game.VerdictVoting, Round: 1},
		},
		{
			name:       "imposter wrong beats crew wrong in priority",
			pulse:      4,
			round:      1,
			rosterSize: 5,
			guesses:    []domain.Guess{guess("imp", 3), guess("c1", 9), guess("c2", 4), guess("c3", 4), guess("c4", 4)},
			want:       game.Verdict{Kind: game.VerdictVoting, Round: 1},
		},
		{
			name:       "crew wrong mid-game eliminates exactly the wrong ones",
			pulse:      4,
			round:      1,
			rosterSize: 5,
			guesses:    []domain.Guess{guess("imp", 0), guess("c1", 3), guess("c2", 4), guess("c3", 5), guess("c4", 4)},
			want:       game.Verdict{Kind: game.VerdictEliminate, Round: 1, Eliminated: []string{"c1", "c3"}},
		},
		{
			name:       "crew wrong on last round hands the imposter the win",
			pulse:      4,
			round:      3,
			rosterSize: 5,
			guesses:    []domain.Guess{guess("imp", 0), guess("c1", 3), guess("c2", 4), guess("c3", 4), guess("c4", 4)},
			want:       game.Verdict{Kind: game.VerdictImposterWin, Round: 3},
		},
		{
			name:       "all correct continues to the next round",
			pulse:      4,
			round:      1,
			rosterSize: 5,
			guesses:    []domain.Guess{guess("imp", 0), guess("c1", 4), guess("c2", 4), guess("c3", 4), guess("c4", 4)},
			want:       game.Verdict{Kind: game.VerdictNextRound, Round: 1},
		},
		{
			name:       "all correct on last round goes to voting",
			pulse:      4,
			round:      3,
			rosterSize: 5,
			guesses:    []domain.Guess{guess("imp", 0), guess("c1", 4), guess("c2", 4), guess("c3", 4), guess("c4", 4)},
			want:       game.Verdict{Kind: game.VerdictVoting, Round: 3},
		},
		{
			name:       "three-player roster has a two-round limit",
			pulse:      2,
			round:      2,
			rosterSize: 3,
			guesses:    []domain.Guess{guess("imp", 0), guess("c1", 2), guess("c2", 2)},
			want:       game.Verdict{Kind: game.VerdictVoting, Round: 2},
		},
		{
			name:       "two-player roster resolves after a single round",
			pulse:      2,
			round:      1,
			rosterSize: 2,
			guesses:    []domain.Guess{guess("imp", 0), guess("c1", 2)},
			want:       game.Verdict{Kind: game.VerdictVoting, Round: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := game.Evaluate(roles, tt.pulse, tt.round, tt.rosterSize, tt.guesses)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	roles := map[string]domain.Role{
		"imp": domain.RoleImposter,
		"c1":  domain.RoleCrewmate,
		"c2":  domain.RoleCrewmate,
	}
	guesses := []domain.Guess{guess("imp", 0), guess("c1", 3), guess("c2", 5)}

	first := game.Evaluate(roles, 5, 1, 3, guesses)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, game.Evaluate(roles, 5, 1, 3, guesses))
	}
}

func vote(voter, target string) domain.Vote {
	return domain.Vote{VoterID: voter, TargetID: target}
}

func TestTally(t *testing.T) {
	tests := []struct {
		name  string
		votes []domain.Vote
		want  game.TallyResult
	}{
		{
			name:  "plain plurality",
			votes: []domain.Vote{vote("a", "x"), vote("b", "x"), vote("c", "y")},
			want:  game.TallyResult{EvictedID: "x", VoteCount: 2},
		},
		{
			name:  "tie breaks to the lowest player id",
			votes: []domain.Vote{vote("a", "y"), vote("b", "x"), vote("x", "y"), vote("y", "x")},
			want:  game.TallyResult{EvictedID: "x", VoteCount: 2},
		},
		{
			name:  "single vote decides",
			votes: []domain.Vote{vote("a", "z")},
			want:  game.TallyResult{EvictedID: "z", VoteCount: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, game.Tally(tt.votes))
		})
	}
}
