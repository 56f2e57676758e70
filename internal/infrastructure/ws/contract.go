package ws

import (
	"time"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/game"
)

type WSMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
	Data     any    `json:"data,omitempty"`
}

// Payload structs
type PlayerPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsHost     bool   `json:"isHost"`
	Avatar     string `json:"avatar,omitempty"`
	Eliminated bool   `json:"eliminated,omitempty"`
}

type RosterPayload struct {
	Players []PlayerPayload `json:"players"`
}

type RolePayload struct {
	Role  domain.Role `json:"role"`
	Round int         `json:"round"`
}

type PhasePayload struct {
	Round  int       `json:"round"`
	Phase  string    `json:"phase"`
	EndsAt time.Time `json:"endsAt"`
}

type PulsePayload struct {
	Seq   int `json:"seq"`
	Total int `json:"total"`
}

type GameOverPayload struct {
	CrewWon bool `json:"crewWon"`
}

type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

func NewRosterChanged(roomCode string, players []domain.Player) *WSMessage {
	payload := RosterPayload{Players: make([]PlayerPayload, 0, len(players))}
	for _, p := range players {
		payload.Players = append(payload.Players, PlayerPayload{
			ID:         p.ID,
			Name:       p.Name,
			IsHost:     p.IsHost,
			Avatar:     p.Avatar,
			Eliminated: p.Eliminated,
		})
	}

	return &WSMessage{
		Type:     RosterChanged,
		RoomCode: roomCode,
		Data:     payload,
	}
}

func NewRoleAssigned(roomCode string, role domain.Role, round int) *WSMessage {
	return &WSMessage{
		Type:     RoleAssigned,
		RoomCode: roomCode,
		Data: RolePayload{
			Role:  role,
			Round: round,
		},
	}
}

func NewRoundPhase(roomCode string, round int, phase game.RoundPhase, endsAt time.Time) *WSMessage {
	return &WSMessage{
		Type:     RoundPhase,
		RoomCode: roomCode,
		Data: PhasePayload{
			Round:  round,
			Phase:  string(phase),
			EndsAt: endsAt,
		},
	}
}

func NewRoundPulse(roomCode string, seq, total int) *WSMessage {
	return &WSMessage{
		Type:     RoundPulse,
		RoomCode: roomCode,
		Data: PulsePayload{
			Seq:   seq,
			Total: total,
		},
	}
}

func NewRoundVerdict(roomCode string, verdict game.Verdict) *WSMessage {
	return &WSMessage{
		Type:     RoundVerdict,
		RoomCode: roomCode,
		Data:     verdict,
	}
}

func NewVoteOutcome(roomCode string, result game.TallyResult) *WSMessage {
	return &WSMessage{
		Type:     VoteOutcome,
		RoomCode: roomCode,
		Data:     result,
	}
}

func NewGameOver(roomCode string, result domain.GameResult) *WSMessage {
	return &WSMessage{
		Type:     GameOver,
		RoomCode: roomCode,
		Data: GameOverPayload{
			CrewWon: result.CrewWon,
		},
	}
}

func NewRoomClosed(roomCode, reason string) *WSMessage {
	return &WSMessage{
		Type:     RoomClosed,
		RoomCode: roomCode,
		Data: RoomClosedPayload{
			Reason: reason,
		},
	}
}

func NewError(roomCode, message string) *WSMessage {
	return &WSMessage{
		Type:     ErrorEvent,
		RoomCode: roomCode,
		Data: ErrorPayload{
			Message: message,
			Retry:   false,
		},
	}
}

func NewJoinFailed(roomCode, reason string) *WSMessage {
	return &WSMessage{
		Type:     JoinFailed,
		RoomCode: roomCode,
		Data: ErrorPayload{
			Code:    "JOIN_FAILED",
			Message: reason,
			Retry:   true,
		},
	}
}
