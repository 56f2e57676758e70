package domain

import (
	"sort"
	"time"
)

// Player is a member of one room. The id is minted client-side per app
// session and re-minted on rejoin; name and avatar may be written twice by
// design (the host record is created before the host picks a name).
type Player struct {
	ID       string    `json:"id" bson:"_id"`
	Name     string    `json:"name" bson:"name"`
	IsHost   bool      `json:"isHost" bson:"is_host"`
	Avatar   string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	JoinedAt time.Time `json:"joinedAt" bson:"joined_at"`
	// Eliminated players stay in the roster as spectators but take no part
	// in rounds or votes.
	Eliminated bool `json:"eliminated,omitempty" bson:"eliminated,omitempty"`
}

// ActivePlayers filters out spectators.
func ActivePlayers(players []Player) []Player {
	active := make([]Player, 0, len(players))
	for _, p := range players {
		if !p.Eliminated {
			active = append(active, p)
		}
	}
	return active
}

// ActiveIDs returns the ids of non-eliminated players sorted by join time
// (ties broken by id) so the roster snapshot is deterministic.
func ActiveIDs(players []Player) []string {
	active := ActivePlayers(players)
	sort.Slice(active, func(i, j int) bool {
		if active[i].JoinedAt.Equal(active[j].JoinedAt) {
			return active[i].ID < active[j].ID
		}
		return active[i].JoinedAt.Before(active[j].JoinedAt)
	})

	ids := make([]string, 0, len(active))
	for _, p := range active {
		ids = append(ids, p.ID)
	}
	return ids
}

// EarliestJoined returns the player who joined first, used for host
// promotion when the current host leaves. Returns false for an empty list.
func EarliestJoined(players []Player) (Player, bool) {
	if len(players) == 0 {
		return Player{}, false
	}

	earliest := players[0]
	for _, p := range players[1:] {
		if p.JoinedAt.Before(earliest.JoinedAt) ||
			(p.JoinedAt.Equal(earliest.JoinedAt) && p.ID < earliest.ID) {
			earliest = p
		}
	}
	return earliest, true
}
