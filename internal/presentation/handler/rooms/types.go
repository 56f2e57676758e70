package rooms

import (
	"time"

	"github.com/haptiq/haptiq-server/internal/domain"
)

// createRoomRequest represents the request to open a new game room
type createRoomRequest struct {
	HostName string `json:"hostName" example:"ana"`    // Display name of the room creator
	Avatar   string `json:"avatar" example:"octopus"`  // Avatar identifier chosen by the creator
}

// createRoomResponse represents the response after creating a room
type createRoomResponse struct {
	RoomCode  string         `json:"roomCode" example:"483920"`                // Six digit code other players type in
	HostID    string         `json:"hostId"`                                   // Server minted id of the host player
	State     string         `json:"state" example:"lobby"`                    // Lifecycle state of the room
	CreatedAt time.Time      `json:"createdAt" example:"2024-01-01T12:00:00Z"` // Room creation timestamp
	ExpiresAt time.Time      `json:"expiresAt"`                                // When the room stops accepting joins
	Players   []playerResponse `json:"players"`                                // Current roster
}

// joinRequest represents the request to add a player to the roster
type joinRequest struct {
	PlayerID string `json:"playerId"`                 // Client minted id for this app session
	Name     string `json:"name" example:"ben"`       // Display name
	Avatar   string `json:"avatar,omitempty"`         // Avatar identifier
}

// deleteRoomRequest identifies the caller for a room deletion
type deleteRoomRequest struct {
	PlayerID string `json:"playerId"`
}

// playerResponse represents one roster entry
type playerResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IsHost     bool      `json:"isHost"`
	Avatar     string    `json:"avatar,omitempty"`
	JoinedAt   time.Time `json:"joinedAt"`
	Eliminated bool      `json:"eliminated,omitempty"`
}

// roomResponse represents room details returned on lookup
type roomResponse struct {
	RoomCode     string           `json:"roomCode"`
	State        string           `json:"state"`
	CurrentRound int              `json:"currentRound"`
	CreatedAt    time.Time        `json:"createdAt"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	Players      []playerResponse `json:"players"`
}

func toPlayerResponse(p domain.Player) playerResponse {
	return playerResponse{
		ID:         p.ID,
		Name:       p.Name,
		IsHost:     p.IsHost,
		Avatar:     p.Avatar,
		JoinedAt:   p.JoinedAt,
		Eliminated: p.Eliminated,
	}
}

func toPlayerResponses(players []domain.Player) []playerResponse {
	mapped := make([]playerResponse, 0, len(players))
	for _, p := range players {
		mapped = append(mapped, toPlayerResponse(p))
	}
	return mapped
}
