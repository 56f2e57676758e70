package game

import (
	"context"
	"sort"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/store"
)

// VerdictKind routes the game after a round's guesses are in.
type VerdictKind string

const (
	// VerdictNextRound continues with the same roles and a fresh pulse count.
	VerdictNextRound VerdictKind = "next_round"
	// VerdictVoting sends the room to an elimination vote.
	VerdictVoting VerdictKind = "voting"
	// VerdictEliminate drops the wrong-guessing crewmates to spectators and
	// continues.
	VerdictEliminate VerdictKind = "eliminate"
	// VerdictImposterWin ends the game with a crew loss.
	VerdictImposterWin VerdictKind = "imposter_win"
)

// Verdict is the outcome of one round's evaluation.
type Verdict struct {
	Kind       VerdictKind `json:"kind"`
	Round      int         `json:"round"`
	Eliminated []string    `json:"eliminated,omitempty"`
}

// Evaluate applies the round decision table. Ground truth per player is
// pulseCount for crewmates and zero for the imposter. The rules, in order:
//
//  1. Imposter guessed wrong: straight to voting. A wrong guess from the
//     one player who felt nothing is itself a tell.
//  2. Some crewmates wrong: on the last round the crew ran out of time and
//     the imposter wins; otherwise the wrong crewmates are eliminated and
//     play continues.
//  3. Everyone correct: voting on the last round, next round otherwise.
//
// Pure and deterministic; all randomness lives in round setup.
func Evaluate(roles map[string]domain.Role, pulseCount, round, rosterSize int, guesses []domain.Guess) Verdict {
	imposterCorrect := true
	var crewWrong []string

	for _, g := range guesses {
		if roles[g.PlayerID] == domain.RoleImposter {
			if g.ReportedCount != 0 {
				imposterCorrect = false
			}
			continue
		}
		if g.ReportedCount != pulseCount {
			crewWrong = append(crewWrong, g.PlayerID)
		}
	}
	sort.Strings(crewWrong)

	lastRound := round >= domain.MaxRounds(rosterSize)

	switch {
	case !imposterCorrect:
		return Verdict{Kind: VerdictVoting, Round: round}
	case len(crewWrong) > 0 && lastRound:
		return Verdict{Kind: VerdictImposterWin, Round: round}
	case len(crewWrong) > 0:
		return Verdict{Kind: VerdictEliminate, Round: round, Eliminated: crewWrong}
	case lastRound:
		return Verdict{Kind: VerdictVoting, Round: round}
	default:
		return Verdict{Kind: VerdictNextRound, Round: round}
	}
}

// SubmitGuess upserts the player's reported count for the current round.
// Resubmission before evaluation is allowed and overwrites. The stored
// record carries the player's own ground truth so evaluation stays
// explainable after the room document moves on.
func (s *Service) SubmitGuess(ctx context.Context, code, playerID string, reportedCount int) error {
	room, err := s.getRoom(ctx, code)
	if err != nil {
		return err
	}
	if room.State != domain.StatePlaying {
		return domain.ErrWrongState
	}
	if !room.InRoundRoster(playerID) {
		return domain.ErrPlayerNotFound
	}

	role, ok := room.RoleOf(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}
	truth := 0
	if role == domain.RoleCrewmate {
		truth = room.PulseCount
	}

	guess := domain.Guess{
		PlayerID:      playerID,
		ReportedCount: reportedCount,
		RoundTruth:    truth,
		Round:         room.CurrentRound,
	}
	if err := s.store.SetDocument(ctx, store.GuessPath(code, playerID), guess, false); err != nil {
		return storeErr(err)
	}

	return s.maybeEvaluate(ctx, code)
}

// maybeEvaluate runs the verdict once every player in the round roster has
// a guess in for the current round. The denominator is the snapshot taken
// at round start, not a live roster read.
func (s *Service) maybeEvaluate(ctx context.Context, code string) error {
	room, err := s.getRoom(ctx, code)
	if err != nil {
		return err
	}
	if room.State != domain.StatePlaying {
		return nil
	}

	docs, err := s.store.ListCollection(ctx, store.GuessesPath(code))
	if err != nil {
		return storeErr(err)
	}

	inRoster := make(map[string]bool, len(room.RoundRoster))
	for _, id := range room.RoundRoster {
		inRoster[id] = true
	}

	guesses := make([]domain.Guess, 0, len(docs))
	for _, doc := range docs {
		var g domain.Guess
		if err := doc.Decode(&g); err != nil {
			return storeErr(err)
		}
		if g.Round == room.CurrentRound && inRoster[g.PlayerID] {
			guesses = append(guesses, g)
		}
	}

	if len(guesses) < len(room.RoundRoster) {
		return nil
	}

	verdict := Evaluate(room.Roles, room.PulseCount, room.CurrentRound, len(room.RoundRoster), guesses)
	return s.applyVerdict(ctx, room, verdict)
}

func (s *Service) applyVerdict(ctx context.Context, room *domain.Room, verdict Verdict) error {
	// Guesses are cleared on every branch so the next phase starts clean.
	if err := s.store.DeleteCollection(ctx, store.GuessesPath(room.Code)); err != nil {
		return storeErr(err)
	}

	s.log.Info(logging.Game, logging.Evaluation, "round evaluated", map[logging.ExtraKey]any{
		logging.RoomCode: room.Code,
		logging.Round:    verdict.Round,
		"Verdict":        string(verdict.Kind),
	})
	s.notifier.RoundVerdict(room.Code, verdict)

	switch verdict.Kind {
	case VerdictVoting:
		s.cancelRound(room.Code)
		// roundRoster stays in place: the same snapshot gates the vote.
		patch := map[string]any{"state": domain.StateVoting}
		if err := s.store.SetDocument(ctx, store.RoomPath(room.Code), patch, true); err != nil {
			return storeErr(err)
		}
		return nil

	case VerdictImposterWin:
		return s.finishGame(ctx, room.Code, false, verdict.Round)

	case VerdictEliminate:
		return s.eliminateAndContinue(ctx, room.Code, verdict.Eliminated)

	default:
		return s.startNextRound(ctx, room.Code)
	}
}

// eliminateAndContinue drops the given players to spectators, then either
// continues with the survivors or ends the game if the imposter has run
// the crew down to one.
func (s *Service) eliminateAndContinue(ctx context.Context, code string, eliminated []string) error {
	ops := make([]store.Op, 0, len(eliminated))
	for _, id := range eliminated {
		ops = append(ops, store.Op{
			Kind:  store.OpSet,
			Path:  store.PlayerPath(code, id),
			Data:  map[string]any{"eliminated": true},
			Merge: true,
		})
	}
	if err := s.store.RunBatch(ctx, ops); err != nil {
		return storeErr(err)
	}

	for _, id := range eliminated {
		if err := s.publisher.PublishPlayerEvicted(ctx, code, id, false); err != nil {
			s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish eviction failed", map[logging.ExtraKey]any{
				logging.RoomCode:     code,
				logging.ErrorMessage: err.Error(),
			})
		}
	}
	s.notifyRoster(ctx, code)

	return s.continueOrFinish(ctx, code)
}

// continueOrFinish starts the next round unless the active crew has
// shrunk to one, in which case the imposter has won.
func (s *Service) continueOrFinish(ctx context.Context, code string) error {
	room, err := s.getRoom(ctx, code)
	if err != nil {
		return err
	}
	players, err := s.Players(ctx, code)
	if err != nil {
		return err
	}

	crew := 0
	for _, p := range domain.ActivePlayers(players) {
		if role, ok := room.RoleOf(p.ID); ok && role == domain.RoleCrewmate {
			crew++
		}
	}
	if crew <= 1 {
		return s.finishGame(ctx, code, false, room.CurrentRound)
	}

	return s.startNextRound(ctx, code)
}
