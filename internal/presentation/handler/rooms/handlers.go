package rooms

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/game"
	"github.com/haptiq/haptiq-server/internal/infrastructure/json"
	"github.com/haptiq/haptiq-server/internal/infrastructure/metrics"
	"github.com/haptiq/haptiq-server/internal/infrastructure/ws"
)

type Handler struct {
	service     *game.Service
	roomManager *ws.RoomManager
	core        *ws.Core
	metrics     *metrics.Metrics
}

func NewHandler(
	service *game.Service,
	roomManager *ws.RoomManager,
	core *ws.Core,
	metrics *metrics.Metrics,
) *Handler {
	return &Handler{
		service:     service,
		roomManager: roomManager,
		core:        core,
		metrics:     metrics,
	}
}

// CreateRoomHandler godoc
// @Summary      Create a new game room
// @Description  Opens a room with a fresh six digit code and seats the caller as host
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body createRoomRequest true "Room creation parameters"
// @Success      201 {object} createRoomResponse "Room created successfully"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Failure      503 {object} json.ErrorResponse "Storage backend unavailable"
// @Router       /rooms [post]
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, host, err := h.service.CreateRoom(r.Context(), req.HostName, req.Avatar)
	if err != nil {
		json.WriteGameError(w, err)
		return
	}

	h.metrics.RoomsCreated.Inc()
	h.metrics.ActiveRooms.Inc()

	json.Write(w, http.StatusCreated, createRoomResponse{
		RoomCode:  room.Code,
		HostID:    host.ID,
		State:     string(room.State),
		CreatedAt: room.CreatedAt,
		ExpiresAt: room.ExpiresAt,
		Players:   []playerResponse{toPlayerResponse(host)},
	})
}

// GetRoomHandler godoc
// @Summary      Look up a room
// @Description  Returns room details and the current roster for a room code
// @Tags         rooms
// @Produce      json
// @Param        roomCode path string true "Six digit room code"
// @Success      200 {object} roomResponse "Room details"
// @Failure      400 {object} json.ErrorResponse "Malformed room code"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      410 {object} json.ErrorResponse "Room expired"
// @Router       /rooms/{roomCode} [get]
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	room, err := h.service.JoinRoom(r.Context(), code)
	if err != nil {
		json.WriteGameError(w, err)
		return
	}

	players, err := h.service.Players(r.Context(), code)
	if err != nil {
		json.WriteGameError(w, err)
		return
	}

	json.Write(w, http.StatusOK, roomResponse{
		RoomCode:     room.Code,
		State:        string(room.State),
		CurrentRound: room.CurrentRound,
		CreatedAt:    room.CreatedAt,
		ExpiresAt:    room.ExpiresAt,
		Players:      toPlayerResponses(players),
	})
}

// JoinRoomHandler godoc
// @Summary      Join a room
// @Description  Adds the caller to the room roster, or refreshes their record on rejoin
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        roomCode path string true "Six digit room code"
// @Param        request body joinRequest true "Player details"
// @Success      200 {object} playerResponse "Player seated"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Failure      410 {object} json.ErrorResponse "Room expired"
// @Router       /rooms/{roomCode}/players [post]
func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	var req joinRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if _, err := h.service.JoinRoom(r.Context(), code); err != nil {
		json.WriteGameError(w, err)
		return
	}

	player, err := h.service.AddPlayer(r.Context(), code, domain.Player{
		ID:     req.PlayerID,
		Name:   req.Name,
		Avatar: req.Avatar,
	})
	if err != nil {
		json.WriteGameError(w, err)
		return
	}

	h.metrics.PlayersJoined.Inc()

	json.Write(w, http.StatusOK, toPlayerResponse(player))
}

// GetPlayersHandler godoc
// @Summary      List the roster
// @Description  Returns every player in the room, spectators included
// @Tags         rooms
// @Produce      json
// @Param        roomCode path string true "Six digit room code"
// @Success      200 {array} playerResponse "Roster"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Router       /rooms/{roomCode}/players [get]
func (h *Handler) GetPlayersHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	if _, err := h.service.JoinRoom(r.Context(), code); err != nil {
		json.WriteGameError(w, err)
		return
	}

	players, err := h.service.Players(r.Context(), code)
	if err != nil {
		json.WriteGameError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toPlayerResponses(players))
}

// DeleteRoomHandler godoc
// @Summary      Delete a room
// @Description  Tears down the room and every child record (host only)
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        roomCode path string true "Six digit room code"
// @Param        request body deleteRoomRequest true "Caller identity"
// @Success      204 "Room deleted"
// @Failure      403 {object} json.ErrorResponse "Caller is not the host"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Router       /rooms/{roomCode} [delete]
func (h *Handler) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	var req deleteRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, err := h.service.JoinRoom(r.Context(), code)
	if err != nil {
		json.WriteGameError(w, err)
		return
	}

	if !room.IsHost(req.PlayerID) {
		json.WriteGameError(w, domain.ErrNotHost)
		return
	}

	if err := h.service.DeleteRoom(r.Context(), code); err != nil {
		json.WriteGameError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConnectHandler godoc
// @Summary      Open the room event socket
// @Description  Upgrades to a WebSocket that streams roster, round, and vote events; role and pulse events are delivered only to this player
// @Tags         rooms
// @Param        roomCode path string true "Six digit room code"
// @Param        playerId query string true "Player id returned by the join endpoint"
// @Success      101 "Switching Protocols"
// @Failure      400 {object} json.ErrorResponse "Missing player id"
// @Router       /rooms/{roomCode}/connect [get]
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		json.WriteValidationError(w, errors.New("playerId query parameter is required"))
		return
	}

	conn, err := h.roomManager.Upgrade(w, r)
	if err != nil {
		log.Printf("WebSocket upgrade failed for room %s: %v", code, err)
		return
	}

	if _, err := h.service.JoinRoom(r.Context(), code); err != nil {
		msg := "Failed to load room"
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			msg = "Room not found"
		case errors.Is(err, domain.ErrRoomExpired):
			msg = "Room expired"
		}
		_ = conn.WriteJSON(ws.NewJoinFailed(code, msg))
		_ = conn.Close()
		return
	}

	players, err := h.service.Players(r.Context(), code)
	if err != nil {
		_ = conn.WriteJSON(ws.NewJoinFailed(code, "Failed to load roster"))
		_ = conn.Close()
		return
	}

	var name string
	seated := false
	for _, p := range players {
		if p.ID == playerID {
			name = p.Name
			seated = true
			break
		}
	}
	if !seated {
		_ = conn.WriteJSON(ws.NewJoinFailed(code, "Join the room before connecting"))
		_ = conn.Close()
		return
	}

	client := ws.NewClient(conn, playerID, code, name)
	h.core.Register() <- client
	h.metrics.ActiveConnections.Inc()

	go client.WriteMessage()
	go func() {
		client.ReadMessage(h.core)
		h.metrics.ActiveConnections.Dec()
	}()

	// Push the roster so a fresh connection does not wait for the next change.
	client.Message <- ws.NewRosterChanged(code, players)

	log.Printf("Player %s connected to room %s", playerID, code)
}
