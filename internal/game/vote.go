package game

import (
	"context"
	"sort"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/store"
)

// TallyResult is the outcome of one elimination vote.
type TallyResult struct {
	EvictedID   string `json:"evictedId"`
	VoteCount   int    `json:"voteCount"`
	WasImposter bool   `json:"wasImposter"`
}

// Tally counts a plurality vote. Ties break to the lowest player id so
// the result is deterministic across every client and replica.
func Tally(votes []domain.Vote) TallyResult {
	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		counts[v.TargetID]++
	}

	targets := make([]string, 0, len(counts))
	for id := range counts {
		targets = append(targets, id)
	}
	sort.Strings(targets)

	var result TallyResult
	for _, id := range targets {
		if counts[id] > result.VoteCount {
			result.EvictedID = id
			result.VoteCount = counts[id]
		}
	}
	return result
}

// SubmitVote records one elimination vote. Self-votes are rejected before
// anything is written; a voter's later vote overwrites their earlier one.
func (s *Service) SubmitVote(ctx context.Context, code, voterID, targetID string) error {
	if voterID == targetID {
		return domain.ErrInvalidVote
	}

	room, err := s.getRoom(ctx, code)
	if err != nil {
		return err
	}
	if room.State != domain.StateVoting {
		return domain.ErrWrongState
	}

	if !room.InRoundRoster(voterID) {
		return domain.ErrPlayerNotFound
	}

	players, err := s.Players(ctx, code)
	if err != nil {
		return err
	}
	var targetOK bool
	for _, p := range domain.ActivePlayers(players) {
		if p.ID == targetID {
			targetOK = true
			break
		}
	}
	if !targetOK {
		return domain.ErrInvalidVote
	}

	vote := domain.Vote{
		VoterID:   voterID,
		TargetID:  targetID,
		Timestamp: s.now(),
	}
	if err := s.store.SetDocument(ctx, store.VotePath(code, voterID), vote, false); err != nil {
		return storeErr(err)
	}

	return s.maybeTally(ctx, code)
}

// maybeTally resolves the vote once every roster member has one in. The
// denominator is the same snapshot that gated the round's guesses; voting
// follows the round without anyone being seated or eliminated in between,
// and leavers are trimmed from the snapshot on their way out.
func (s *Service) maybeTally(ctx context.Context, code string) error {
	room, err := s.getRoom(ctx, code)
	if err != nil {
		return err
	}
	if room.State != domain.StateVoting {
		return nil
	}

	docs, err := s.store.ListCollection(ctx, store.VotesPath(code))
	if err != nil {
		return storeErr(err)
	}
	votes := make([]domain.Vote, 0, len(docs))
	for _, doc := range docs {
		var v domain.Vote
		if err := doc.Decode(&v); err != nil {
			return storeErr(err)
		}
		if room.InRoundRoster(v.VoterID) {
			votes = append(votes, v)
		}
	}

	if len(votes) < len(room.RoundRoster) {
		return nil
	}

	result := Tally(votes)
	result.WasImposter = result.EvictedID == room.ImposterID()
	return s.applyTally(ctx, room, result)
}

func (s *Service) applyTally(ctx context.Context, room *domain.Room, result TallyResult) error {
	// Votes are cleared on every branch.
	if err := s.store.DeleteCollection(ctx, store.VotesPath(room.Code)); err != nil {
		return storeErr(err)
	}

	s.log.Info(logging.Game, logging.Voting, "vote tallied", map[logging.ExtraKey]any{
		logging.RoomCode: room.Code,
		logging.PlayerID: result.EvictedID,
		"WasImposter":    result.WasImposter,
	})
	s.notifier.VoteResult(room.Code, result)

	if err := s.publisher.PublishPlayerEvicted(ctx, room.Code, result.EvictedID, result.WasImposter); err != nil {
		s.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish eviction failed", map[logging.ExtraKey]any{
			logging.RoomCode:     room.Code,
			logging.ErrorMessage: err.Error(),
		})
	}

	if result.WasImposter {
		return s.finishGame(ctx, room.Code, true, room.CurrentRound)
	}

	patch := map[string]any{"eliminated": true}
	if err := s.store.SetDocument(ctx, store.PlayerPath(room.Code, result.EvictedID), patch, true); err != nil {
		return storeErr(err)
	}
	s.notifyRoster(ctx, room.Code)

	return s.continueOrFinish(ctx, room.Code)
}
