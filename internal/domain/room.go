package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

const (
	// RoomCodeLength is the length of generated room codes. The codes are
	// numeric so they can be typed on a phone keypad.
	RoomCodeLength = 6

	roomCodeChars = "0123456789"

	// RoomLifetime is how long a room stays joinable after creation.
	RoomLifetime = 30 * time.Minute
)

var charsetLen = big.NewInt(int64(len(roomCodeChars)))

// RoomState is the lifecycle state of a room.
type RoomState string

const (
	StateLobby   RoomState = "lobby"
	StatePlaying RoomState = "playing"
	StateVoting  RoomState = "voting"
	StateEnded   RoomState = "ended"
)

// Role is a player's secret role for the current game.
type Role string

const (
	RoleCrewmate Role = "crewmate"
	RoleImposter Role = "imposter"
)

// Room is the root gameplay document. Players, guesses and votes live in
// child collections scoped to the room code and die with the room.
type Room struct {
	Code         string          `json:"code" bson:"_id"`
	HostID       string          `json:"hostId" bson:"host_id"`
	State        RoomState       `json:"state" bson:"state"`
	CurrentRound int             `json:"currentRound" bson:"current_round"`
	PulseCount   int             `json:"pulseCount" bson:"pulse_count"`
	Roles        map[string]Role `json:"roles,omitempty" bson:"roles,omitempty"`
	// RoundRoster is the snapshot of active player ids taken when the round
	// started. Completion counting for both guesses and votes compares
	// submissions against this snapshot, not a live roster read, so a
	// rejoin or leave cannot change the denominator while submissions are
	// in flight. The snapshot carries unchanged into the voting phase.
	RoundRoster []string  `json:"roundRoster,omitempty" bson:"round_roster,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	ExpiresAt   time.Time `json:"expiresAt" bson:"expires_at"`
}

func NewRoom(code, hostID string, now time.Time, lifetime time.Duration) *Room {
	if lifetime <= 0 {
		lifetime = RoomLifetime
	}
	return &Room{
		Code:      code,
		HostID:    hostID,
		State:     StateLobby,
		CreatedAt: now,
		ExpiresAt: now.Add(lifetime),
	}
}

// Expired reports whether the room is past its lifetime.
func (r *Room) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

func (r *Room) IsHost(playerID string) bool {
	return r.HostID != "" && r.HostID == playerID
}

// ImposterID returns the id of the single imposter, or "" when no roles
// are assigned. Exactly one imposter exists while State != lobby.
func (r *Room) ImposterID() string {
	for id, role := range r.Roles {
		if role == RoleImposter {
			return id
		}
	}
	return ""
}

// RoleOf returns the role assigned to a player for the current game.
func (r *Room) RoleOf(playerID string) (Role, bool) {
	role, ok := r.Roles[playerID]
	return role, ok
}

// InRoundRoster reports whether the player was active when the current
// round started.
func (r *Room) InRoundRoster(playerID string) bool {
	for _, id := range r.RoundRoster {
		if id == playerID {
			return true
		}
	}
	return false
}

// MaxRounds is the number of haptic rounds allowed before the game is
// forced to a resolution, as a function of the active roster size.
func MaxRounds(rosterSize int) int {
	switch {
	case rosterSize >= 5:
		return 3
	case rosterSize >= 3:
		return 2
	default:
		return 1
	}
}

// GenerateRoomCode returns a random numeric room code. Uniqueness is the
// caller's concern: the directory verifies absence in the store before
// committing and retries on collision.
func GenerateRoomCode() (string, error) {
	var sb strings.Builder
	sb.Grow(RoomCodeLength)

	for i := 0; i < RoomCodeLength; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(roomCodeChars[n.Int64()])
	}

	return sb.String(), nil
}
