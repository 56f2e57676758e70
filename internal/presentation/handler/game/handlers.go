// Package game exposes the gameplay operations over HTTP. Verdicts, vote
// outcomes, and game results are not returned from these endpoints; they
// reach every player through the room's WebSocket once the last
// submission lands.
package game

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haptiq/haptiq-server/internal/game"
	"github.com/haptiq/haptiq-server/internal/infrastructure/json"
	"github.com/haptiq/haptiq-server/internal/infrastructure/metrics"
)

type Handler struct {
	service *game.Service
	metrics *metrics.Metrics
}

func NewHandler(service *game.Service, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		metrics: metrics,
	}
}

// StartRoundHandler godoc
// @Summary      Start the game
// @Description  Assigns secret roles and launches the first haptic round (host only, lobby only)
// @Tags         game
// @Accept       json
// @Produce      json
// @Param        roomCode path string true "Six digit room code"
// @Param        request body startRoundRequest true "Caller identity"
// @Success      200 {object} startRoundResponse "Round started"
// @Failure      400 {object} json.ErrorResponse "Not enough players"
// @Failure      403 {object} json.ErrorResponse "Caller is not the host"
// @Failure      409 {object} json.ErrorResponse "Room is not in the lobby"
// @Router       /rooms/{roomCode}/start [post]
func (h *Handler) StartRoundHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	var req startRoundRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, err := h.service.AssignRolesAndStartRound(r.Context(), code, req.PlayerID)
	if err != nil {
		json.WriteGameError(w, err)
		return
	}

	json.Write(w, http.StatusOK, startRoundResponse{
		Round:      room.CurrentRound,
		RosterSize: len(room.RoundRoster),
	})
}

// SubmitGuessHandler godoc
// @Summary      Submit a pulse count guess
// @Description  Records the caller's report for the current round; the verdict is broadcast once everyone in the round has reported
// @Tags         game
// @Accept       json
// @Produce      json
// @Param        roomCode path string true "Six digit room code"
// @Param        request body guessRequest true "Guess"
// @Success      202 "Guess recorded"
// @Failure      404 {object} json.ErrorResponse "Room or player not found"
// @Failure      409 {object} json.ErrorResponse "No round in progress"
// @Router       /rooms/{roomCode}/guess [post]
func (h *Handler) SubmitGuessHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	var req guessRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.service.SubmitGuess(r.Context(), code, req.PlayerID, req.Count); err != nil {
		json.WriteGameError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// SubmitVoteHandler godoc
// @Summary      Submit an elimination vote
// @Description  Records the caller's vote; the tally is broadcast once every active player has voted
// @Tags         game
// @Accept       json
// @Produce      json
// @Param        roomCode path string true "Six digit room code"
// @Param        request body voteRequest true "Vote"
// @Success      202 "Vote recorded"
// @Failure      400 {object} json.ErrorResponse "Invalid vote"
// @Failure      409 {object} json.ErrorResponse "Room is not voting"
// @Router       /rooms/{roomCode}/vote [post]
func (h *Handler) SubmitVoteHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	var req voteRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.service.SubmitVote(r.Context(), code, req.VoterID, req.TargetID); err != nil {
		json.WriteGameError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// LeaveRoomHandler godoc
// @Summary      Leave a room
// @Description  Removes the caller from the roster; the room is deleted when the last player leaves, and the host seat moves to the earliest joined survivor
// @Tags         game
// @Accept       json
// @Produce      json
// @Param        roomCode path string true "Six digit room code"
// @Param        request body leaveRequest true "Caller identity"
// @Success      204 "Left room"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Router       /rooms/{roomCode}/leave [post]
func (h *Handler) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	var req leaveRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.service.LeaveRoom(r.Context(), code, req.PlayerID); err != nil {
		json.WriteGameError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PlayAgainHandler godoc
// @Summary      Return the room to the lobby
// @Description  Resets a finished game for another run with the same roster (host only)
// @Tags         game
// @Accept       json
// @Produce      json
// @Param        roomCode path string true "Six digit room code"
// @Param        request body playAgainRequest true "Caller identity"
// @Success      204 "Room reset"
// @Failure      403 {object} json.ErrorResponse "Caller is not the host"
// @Failure      409 {object} json.ErrorResponse "Game has not ended"
// @Router       /rooms/{roomCode}/play-again [post]
func (h *Handler) PlayAgainHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	var req playAgainRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.service.PlayAgain(r.Context(), code, req.PlayerID); err != nil {
		json.WriteGameError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
